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

// Package indexsink is the search-service side of synchronization: one
// document per commit, one per file, both upserted by a stable id so
// repeated delivery is harmless.
package indexsink

import "context"

// CommitDoc mirrors what the indexer extracts from a git commit object.
type CommitDoc struct {
	RepoID     string   `json:"repo_id"`
	Parents    []string `json:"parents"`
	Author     Person   `json:"author"`
	Committer  Person   `json:"committer"`
	CommitDate string   `json:"commit_date"` // RFC-3339, original tz offset
	Message    string   `json:"message"`
}

// Person is a cloned git signature (name/email may be empty but never nil
// in Go, unlike the optional fields of the original Rust model).
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileDoc mirrors one text file's content at the commit that last changed it.
type FileDoc struct {
	RepoID          string `json:"repo_id"`
	Path            string `json:"path"`
	Text            string `json:"text"`
	ChangedCommitID string `json:"changed_commit_id"`
	ChangedDate     string `json:"changed_date"` // RFC-3339
}

// Sink is the search-service port consumed by internal/sync. ElasticSink is
// its production implementation; MemSink is an in-memory test double.
type Sink interface {
	PutCommit(ctx context.Context, id string, doc CommitDoc) error
	PutFile(ctx context.Context, id string, doc FileDoc) error
	// DeleteFile retracts a file document; see DESIGN.md's file-deletion
	// open-question resolution (spec.md §9 suggests this as "straightforward").
	DeleteFile(ctx context.Context, id string) error
}
