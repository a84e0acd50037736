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
	"fmt"

	"lab.nexedi.com/kirr/codelauf/internal/catalog"
	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/gitbackend"
	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// branchTip resolves the current commit a local branch ref points at.
func branchTip(gitRepo *gitbackend.Repo, branch string) (gitid.Sha1, error) {
	id, err := gitRepo.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return gitid.Sha1{}, codelauferr.Wrap(codelauferr.GitErr, "sync.branchTip", err)
	}
	return id, nil
}

// planRevisions implements RevisionPlanner (spec.md §4.5): it scopes a
// revision walk against the branch's last-indexed watermark and enqueues
// every commit the walk yields as a PendingCommit.
func (co *Coordinator) planRevisions(repo *catalog.Repository, gitRepo *gitbackend.Repo, branch string) error {
	T, err := branchTip(gitRepo, branch)
	if err != nil {
		return err
	}

	br, err := co.Catalog.FindBranch(repo.ID, branch)
	if err != nil {
		return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planRevisions: find branch", err)
	}
	if br == nil {
		if err := co.Catalog.InsertBranch(&catalog.Branch{RepoID: repo.ID, Name: branch}); err != nil {
			return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planRevisions: insert branch", err)
		}
		br = &catalog.Branch{RepoID: repo.ID, Name: branch}
	}

	var commits []gitid.Sha1
	if br.IndexedCommitID == nil {
		commits, err = gitRepo.Revwalk([]gitid.Sha1{T}, nil)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.planRevisions: revwalk", err)
		}
	} else {
		L, err := gitid.Sha1Parse(*br.IndexedCommitID)
		if err != nil {
			return codelauferr.Wrap(codelauferr.EncodingErr, "sync.planRevisions: parse watermark", err)
		}
		bases, err := gitRepo.MergeBases(T, L)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.planRevisions: merge-bases", err)
		}

		if !gitid.NewSha1Set(bases...).Contains(L) {
			// L is no longer an ancestor of T: the branch's history was
			// rewritten. Prune orphaned pending commits rather than let
			// them accumulate forever (spec.md §9 open question).
			if err := co.Catalog.ClearCommits(repo.ID); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.planRevisions: clear commits", err)
			}
		}

		commits, err = gitRepo.Revwalk([]gitid.Sha1{T}, bases)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.planRevisions: revwalk", err)
		}
	}

	for _, id := range commits {
		if err := co.Catalog.CreateCommitIfAbsent(repo.ID, id.String()); err != nil {
			return codelauferr.Wrap(codelauferr.CatalogErr, fmt.Sprintf("sync.planRevisions: create commit %s", id), err)
		}
	}
	return nil
}
