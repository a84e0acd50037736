// Copyright (C) 2015-2016  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

package indexsink

import (
	"context"
	"sync"
)

// MemSink is an in-process Sink recording every call, for asserting
// idempotence (P1) and work-queue completeness (P4) in internal/sync tests
// without a live Elasticsearch.
type MemSink struct {
	mu        sync.Mutex
	Commits   map[string]CommitDoc
	Files     map[string]FileDoc
	Deleted   map[string]bool
	PutCommitCalls int
	PutFileCalls   int
}

func NewMemSink() *MemSink {
	return &MemSink{
		Commits: make(map[string]CommitDoc),
		Files:   make(map[string]FileDoc),
		Deleted: make(map[string]bool),
	}
}

func (s *MemSink) PutCommit(ctx context.Context, id string, doc CommitDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Commits[id] = doc
	s.PutCommitCalls++
	return nil
}

func (s *MemSink) PutFile(ctx context.Context, id string, doc FileDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files[id] = doc
	s.PutFileCalls++
	return nil
}

func (s *MemSink) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, id)
	s.Deleted[id] = true
	return nil
}

// ResetCallCounts clears the call counters (not the recorded documents), so
// a test can assert "zero writes on the second run" (P1) after a first run
// has already populated the sink.
func (s *MemSink) ResetCallCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCommitCalls = 0
	s.PutFileCalls = 0
}

var _ Sink = (*MemSink)(nil)
