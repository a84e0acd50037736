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

package catalog

import (
	"fmt"
	"sync"
)

// MemCatalog is an in-process Catalog for exercising internal/sync without a
// SQLite file. It is not safe to share across processes; tests only.
type MemCatalog struct {
	mu    sync.Mutex
	repos map[string]*Repository   // by URI
	brs   map[string]*Branch       // by repoID+"\x00"+name
	cmts  map[string]*PendingCommit // by repoID+"\x00"+id
	files map[string]*PendingFile   // by repoID+"\x00"+branch+"\x00"+path
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{
		repos: make(map[string]*Repository),
		brs:   make(map[string]*Branch),
		cmts:  make(map[string]*PendingCommit),
		files: make(map[string]*PendingFile),
	}
}

func (c *MemCatalog) Close() error { return nil }

func branchKey(repoID, name string) string { return repoID + "\x00" + name }
func commitKey(repoID, id string) string   { return repoID + "\x00" + id }
func fileKey(repoID, branch string, path []byte) string {
	return repoID + "\x00" + branch + "\x00" + string(path)
}

func (c *MemCatalog) FindRepoByURI(uri string) (*Repository, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.repos[uri]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (c *MemCatalog) InsertRepo(r *Repository) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.repos[r.URI]; ok {
		return fmt.Errorf("catalog: repo %q already exists", r.URI)
	}
	cp := *r
	c.repos[r.URI] = &cp
	return nil
}

func (c *MemCatalog) UpdateRepo(r *Repository) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *r
	c.repos[r.URI] = &cp
	return nil
}

func (c *MemCatalog) FindBranch(repoID, name string) (*Branch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.brs[branchKey(repoID, name)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (c *MemCatalog) InsertBranch(b *Branch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *b
	c.brs[branchKey(b.RepoID, b.Name)] = &cp
	return nil
}

func (c *MemCatalog) MarkBranchIndexed(repoID, name, commitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.brs[branchKey(repoID, name)]
	if !ok {
		return fmt.Errorf("catalog: branch %s/%s not found", repoID, name)
	}
	id := commitID
	b.IndexedCommitID = &id
	return nil
}

func (c *MemCatalog) CreateCommitIfAbsent(repoID, commitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := commitKey(repoID, commitID)
	if _, ok := c.cmts[k]; ok {
		return nil
	}
	c.cmts[k] = &PendingCommit{RepoID: repoID, ID: commitID, State: NotIndexed}
	return nil
}

func (c *MemCatalog) ListCommitsNotIndexed(repoID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, cm := range c.cmts {
		if cm.RepoID == repoID && cm.State == NotIndexed {
			out = append(out, cm.ID)
		}
	}
	return out, nil
}

func (c *MemCatalog) MarkCommitIndexed(repoID, commitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cm, ok := c.cmts[commitKey(repoID, commitID)]
	if !ok {
		return fmt.Errorf("catalog: commit %s/%s not found", repoID, commitID)
	}
	cm.State = Indexed
	return nil
}

func (c *MemCatalog) ClearCommits(repoID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, cm := range c.cmts {
		if cm.RepoID == repoID {
			delete(c.cmts, k)
		}
	}
	return nil
}

func (c *MemCatalog) UpsertFile(repoID, branch string, path []byte, changedCommitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := fileKey(repoID, branch, path)
	f, ok := c.files[k]
	if !ok {
		pcopy := make([]byte, len(path))
		copy(pcopy, path)
		c.files[k] = &PendingFile{
			RepoID:          repoID,
			Branch:          branch,
			Path:            pcopy,
			ChangedCommitID: changedCommitID,
		}
		return nil
	}
	f.ChangedCommitID = changedCommitID
	f.IndexedCommitID = nil
	f.Deleted = false
	return nil
}

func (c *MemCatalog) ListFilesNeedingIndex(repoID string) ([]*PendingFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*PendingFile
	for _, f := range c.files {
		if f.RepoID != repoID {
			continue
		}
		if f.NeedsIndex() {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *MemCatalog) MarkFileIndexed(repoID, branch string, path []byte, indexedCommitID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[fileKey(repoID, branch, path)]
	if !ok {
		return fmt.Errorf("catalog: file %s/%s/%q not found", repoID, branch, path)
	}
	id := indexedCommitID
	f.IndexedCommitID = &id
	return nil
}

func (c *MemCatalog) MarkFileDeleted(repoID, branch string, path []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[fileKey(repoID, branch, path)]
	if !ok {
		return fmt.Errorf("catalog: file %s/%s/%q not found", repoID, branch, path)
	}
	f.Deleted = true
	f.IndexedCommitID = nil
	return nil
}

var _ Catalog = (*MemCatalog)(nil)
