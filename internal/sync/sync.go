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

// Package sync is the incremental synchronization engine: it reconciles an
// on-disk git mirror with its remote, decides which commits and files have
// changed since the last run, and drives those deltas into a search sink in
// a restartable way. There is no daemon loop here — Coordinator.Fetch and
// Coordinator.Index each run once and return.
package sync

import (
	"context"
	"fmt"

	"lab.nexedi.com/kirr/codelauf/internal/catalog"
	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/gitbackend"
	"lab.nexedi.com/kirr/codelauf/internal/gitid"
	"lab.nexedi.com/kirr/codelauf/internal/indexsink"
)

// RepoSpec names one remote to mirror and the branches to track on it.
type RepoSpec struct {
	URI      string
	Branches []string // defaults to {"master"} if empty
	RepoDir  string   // local path; required for a remote not yet in the catalog, ignored otherwise
}

func (s RepoSpec) branches() []string {
	if len(s.Branches) == 0 {
		return []string{"master"}
	}
	return s.Branches
}

// Coordinator is the per-repository state machine (spec.md §4.4). It is the
// only component that mutates Repository rows.
type Coordinator struct {
	Catalog catalog.Catalog
	Git     *gitbackend.Backend
	Sink    indexsink.Sink
	Progress gitbackend.ProgressFunc
}

func New(cat catalog.Catalog, git *gitbackend.Backend, sink indexsink.Sink) *Coordinator {
	return &Coordinator{Catalog: cat, Git: git, Sink: sink}
}

// loadOrCreateRepo implements step 1: "Load or create the Repository row".
func (co *Coordinator) loadOrCreateRepo(spec RepoSpec) (*catalog.Repository, error) {
	repoID := gitid.RepoID(spec.URI).String()

	repo, err := co.Catalog.FindRepoByURI(spec.URI)
	if err != nil {
		return nil, codelauferr.Wrap(codelauferr.CatalogErr, "sync.loadOrCreateRepo", err)
	}
	if repo != nil {
		return repo, nil
	}

	path := spec.RepoDir
	if path == "" {
		return nil, codelauferr.New(codelauferr.ConfigArgs, "sync.loadOrCreateRepo", fmt.Errorf("no repo-dir configured for new remote %s", spec.URI))
	}

	repo = &catalog.Repository{
		ID:        repoID,
		URI:       spec.URI,
		Path:      path,
		SyncState: catalog.NotCloned,
	}
	if err := co.Catalog.InsertRepo(repo); err != nil {
		return nil, codelauferr.Wrap(codelauferr.CatalogErr, "sync.loadOrCreateRepo: insert", err)
	}
	for _, b := range spec.branches() {
		if err := co.Catalog.InsertBranch(&catalog.Branch{RepoID: repoID, Name: b}); err != nil {
			return nil, codelauferr.Wrap(codelauferr.CatalogErr, "sync.loadOrCreateRepo: insert branch", err)
		}
	}
	return repo, nil
}

// ensureUpToDate implements steps 2–3: probe the filesystem, then
// clone-or-fetch and fast-forward local branches to their remote tips.
func (co *Coordinator) ensureUpToDate(repo *catalog.Repository, branches []string) (*gitbackend.Repo, error) {
	exists := co.Git.ExistsAt(repo.Path)
	if !exists {
		repo.SyncState = catalog.NotCloned
	} else if repo.SyncState == catalog.NotCloned {
		repo.SyncState = catalog.Cloned
	}

	var gitRepo *gitbackend.Repo
	var err error

	switch repo.SyncState {
	case catalog.NotCloned:
		gitRepo, err = co.Git.Clone(repo.URI, repo.Path, co.Progress)
		if err != nil {
			return nil, codelauferr.Wrap(codelauferr.GitErr, "sync.ensureUpToDate: clone", err)
		}
		// Clone only checks out the remote's default branch locally; any
		// other tracked branch exists solely as a remote-tracking ref until
		// we point a local branch at it too.
		for _, b := range branches {
			if err := gitRepo.SetLocalBranchToRemote(b); err != nil {
				return nil, codelauferr.Wrap(codelauferr.GitErr, "sync.ensureUpToDate: set local branch after clone", err)
			}
		}
		repo.SyncState = catalog.Cloned
		if err := co.Catalog.UpdateRepo(repo); err != nil {
			return nil, codelauferr.Wrap(codelauferr.CatalogErr, "sync.ensureUpToDate: update after clone", err)
		}
	case catalog.Cloned:
		gitRepo, err = co.Git.Open(repo.Path)
		if err != nil {
			return nil, codelauferr.Wrap(codelauferr.GitErr, "sync.ensureUpToDate: open", err)
		}
		if err := gitRepo.Fetch(branches, co.Progress); err != nil {
			return nil, codelauferr.Wrap(codelauferr.GitErr, "sync.ensureUpToDate: fetch", err)
		}
		for _, b := range branches {
			if err := gitRepo.SetLocalBranchToRemote(b); err != nil {
				return nil, codelauferr.Wrap(codelauferr.GitErr, "sync.ensureUpToDate: set local branch", err)
			}
		}
	case catalog.Corrupted:
		return nil, codelauferr.New(codelauferr.InvalidState, "sync.ensureUpToDate",
			fmt.Errorf("repo %s is marked corrupted, needs manual repair", repo.URI))
	}
	return gitRepo, nil
}

// Fetch runs clone-or-fetch and ref reconciliation only — it populates
// pending commits but never touches the sink (spec.md §9's "coordinator
// does not distinguish fetch from index" resolved explicitly here).
func (co *Coordinator) Fetch(ctx context.Context, spec RepoSpec) error {
	repo, err := co.loadOrCreateRepo(spec)
	if err != nil {
		return err
	}
	gitRepo, err := co.ensureUpToDate(repo, spec.branches())
	if err != nil {
		return err
	}
	defer gitRepo.Close()

	for _, b := range spec.branches() {
		if err := co.planRevisions(repo, gitRepo, b); err != nil {
			return err
		}
	}
	return nil
}

// Index runs Fetch's steps plus tree planning and draining to the sink —
// the full per-run pipeline of spec.md §4.4.
func (co *Coordinator) Index(ctx context.Context, spec RepoSpec) error {
	repo, err := co.loadOrCreateRepo(spec)
	if err != nil {
		return err
	}
	gitRepo, err := co.ensureUpToDate(repo, spec.branches())
	if err != nil {
		return err
	}
	defer gitRepo.Close()

	tips := make(map[string]gitid.Sha1, len(spec.branches()))
	for _, b := range spec.branches() {
		if err := co.planRevisions(repo, gitRepo, b); err != nil {
			return err
		}
		if err := co.planTree(repo, gitRepo, b); err != nil {
			return err
		}
		T, err := branchTip(gitRepo, b)
		if err != nil {
			return err
		}
		tips[b] = T
	}

	return co.drain(ctx, repo, gitRepo, tips)
}
