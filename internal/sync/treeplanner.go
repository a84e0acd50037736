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

package sync

import (
	"lab.nexedi.com/kirr/codelauf/internal/catalog"
	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/gitbackend"
	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// planTree implements TreePlanner (spec.md §4.6): on a branch's first
// index it walks the full tree at the tip; afterwards it diffs the
// previous tip against the new one and only enqueues what changed.
func (co *Coordinator) planTree(repo *catalog.Repository, gitRepo *gitbackend.Repo, branch string) error {
	T, err := branchTip(gitRepo, branch)
	if err != nil {
		return err
	}
	tipCommit, err := gitRepo.FindCommit(T)
	if err != nil {
		return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: find tip commit", err)
	}
	tipTree, err := gitRepo.TreeOf(tipCommit)
	if err != nil {
		return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: tree of tip", err)
	}
	defer tipTree.Free()

	br, err := co.Catalog.FindBranch(repo.ID, branch)
	if err != nil {
		return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planTree: find branch", err)
	}

	if br == nil || br.IndexedCommitID == nil {
		entries, err := gitRepo.WalkTree(tipTree)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: walk tree", err)
		}
		seen := gitid.NewStrSet()
		for _, e := range entries {
			if e.Kind != gitbackend.KindBlob {
				continue
			}
			// WalkTree does not descend into submodules/gitlinks, so each
			// blob path appears once; the dedup still guarantees UpsertFile
			// is called exactly once per path.
			path := string(e.Path)
			if seen.Contains(path) {
				continue
			}
			seen.Add(path)
			if err := co.Catalog.UpsertFile(repo.ID, branch, e.Path, T.String()); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planTree: upsert file", err)
			}
		}
		return nil
	}

	L, err := gitid.Sha1Parse(*br.IndexedCommitID)
	if err != nil {
		return codelauferr.Wrap(codelauferr.EncodingErr, "sync.planTree: parse watermark", err)
	}
	baseCommit, err := gitRepo.FindCommit(L)
	if err != nil {
		return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: find base commit", err)
	}
	baseTree, err := gitRepo.TreeOf(baseCommit)
	if err != nil {
		return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: tree of base", err)
	}
	defer baseTree.Free()

	deltas, err := gitRepo.TreeDiff(baseTree, tipTree)
	if err != nil {
		return codelauferr.Wrap(codelauferr.GitErr, "sync.planTree: tree diff", err)
	}

	upserted := gitid.NewStrSet()
	deleted := gitid.NewStrSet()
	for _, d := range deltas {
		switch d.Status {
		case gitbackend.Added, gitbackend.Modified, gitbackend.Renamed:
			if len(d.NewPath) == 0 {
				continue
			}
			// a rename can appear alongside an unrelated delta touching the
			// same destination path; dedup so each path is upserted once.
			path := string(d.NewPath)
			if upserted.Contains(path) {
				continue
			}
			upserted.Add(path)
			if err := co.Catalog.UpsertFile(repo.ID, branch, d.NewPath, T.String()); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planTree: upsert file", err)
			}
		case gitbackend.Deleted:
			path := string(d.OldPath)
			if deleted.Contains(path) {
				continue
			}
			deleted.Add(path)
			if err := co.Catalog.MarkFileDeleted(repo.ID, branch, d.OldPath); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planTree: mark file deleted", err)
			}
		}
	}
	return nil
}
