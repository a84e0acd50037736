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

// Package catalog is the persistent record of repositories, branches,
// pending commits and per-file indexing watermarks (spec §4.1). It is the
// only component whose writes are observed across runs.
package catalog

import "time"

// SyncState is the on-disk clone state of a Repository.
type SyncState string

const (
	NotCloned SyncState = "NotCloned"
	Cloned    SyncState = "Cloned"
	Corrupted SyncState = "Corrupted"
)

// CommitState is whether a PendingCommit has reached the sink yet.
type CommitState string

const (
	NotIndexed CommitState = "NotIndexed"
	Indexed    CommitState = "Indexed"
)

// Repository is the catalog's record of one mirrored remote.
type Repository struct {
	ID              string // hex SHA-1 of URI; see gitid.RepoID
	URI             string
	Path            string
	SyncState       SyncState
	AddedDatetime   *time.Time
	FetchedDatetime *time.Time
	IndexedDatetime *time.Time
}

// Branch is the catalog's record of one tracked branch of a Repository.
type Branch struct {
	RepoID          string
	Name            string
	IndexedCommitID *string // nil: never indexed yet
}

// PendingCommit is a commit discovered by a revision walk that may still
// need to reach the sink.
type PendingCommit struct {
	RepoID string
	ID     string
	State  CommitState
}

// PendingFile is the catalog's bookkeeping for one path on one branch: it
// needs (re)indexing iff IndexedCommitID is nil or != ChangedCommitID.
type PendingFile struct {
	RepoID          string
	Branch          string
	Path            []byte // opaque bytes: filesystems aren't guaranteed a text encoding
	ChangedCommitID string
	IndexedCommitID *string
	Deleted         bool // see DESIGN.md: file-deletion open question
}

// NeedsIndex reports whether f must be (re)indexed, per spec §3's
// PendingFile invariant.
func (f *PendingFile) NeedsIndex() bool {
	return f.IndexedCommitID == nil || *f.IndexedCommitID != f.ChangedCommitID
}

// Catalog is the storage port consumed by internal/sync. SQLiteCatalog is
// its production implementation; MemCatalog is an in-memory test double.
type Catalog interface {
	FindRepoByURI(uri string) (*Repository, error)
	InsertRepo(r *Repository) error
	UpdateRepo(r *Repository) error

	FindBranch(repoID, name string) (*Branch, error)
	InsertBranch(b *Branch) error
	MarkBranchIndexed(repoID, name, commitID string) error

	CreateCommitIfAbsent(repoID, commitID string) error
	ListCommitsNotIndexed(repoID string) ([]string, error)
	MarkCommitIndexed(repoID, commitID string) error
	ClearCommits(repoID string) error

	UpsertFile(repoID, branch string, path []byte, changedCommitID string) error
	ListFilesNeedingIndex(repoID string) ([]*PendingFile, error)
	// MarkFileIndexed takes branch in addition to spec §4.1's (repo_id, path)
	// signature: PendingFile's identifying key is (repo_id, branch, path)
	// per spec §3, so branch is required to address the right row.
	MarkFileIndexed(repoID, branch string, path []byte, indexedCommitID string) error
	MarkFileDeleted(repoID, branch string, path []byte) error

	Close() error
}
