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
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"lab.nexedi.com/kirr/codelauf/internal/catalog"
	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/gitbackend"
	"lab.nexedi.com/kirr/codelauf/internal/gitid"
	"lab.nexedi.com/kirr/codelauf/internal/indexsink"
)

// drain implements Indexer (spec.md §4.7): it ships every pending commit
// and file for repo to the sink, marks catalog rows as indexed, and — once
// both queues are empty — advances each branch's watermark to tips[branch].
func (co *Coordinator) drain(ctx context.Context, repo *catalog.Repository, gitRepo *gitbackend.Repo, tips map[string]gitid.Sha1) error {
	if err := co.drainCommits(ctx, repo, gitRepo); err != nil {
		return err
	}
	if err := co.drainFiles(ctx, repo, gitRepo); err != nil {
		return err
	}
	for branch, T := range tips {
		if err := co.Catalog.MarkBranchIndexed(repo.ID, branch, T.String()); err != nil {
			return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drain: mark branch indexed", err)
		}
	}
	return nil
}

func (co *Coordinator) drainCommits(ctx context.Context, repo *catalog.Repository, gitRepo *gitbackend.Repo) error {
	ids, err := co.Catalog.ListCommitsNotIndexed(repo.ID)
	if err != nil {
		return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainCommits: list", err)
	}

	for _, idStr := range ids {
		id, err := gitid.Sha1Parse(idStr)
		if err != nil {
			return codelauferr.Wrap(codelauferr.EncodingErr, "sync.drainCommits: parse id", err)
		}
		commit, err := gitRepo.FindCommit(id)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.drainCommits: find commit", err)
		}
		doc := commitDocOf(repo.ID, commit)

		if err := co.Sink.PutCommit(ctx, idStr, doc); err != nil {
			return codelauferr.Wrap(codelauferr.SinkErr, "sync.drainCommits: put commit", err)
		}
		if err := co.Catalog.MarkCommitIndexed(repo.ID, idStr); err != nil {
			return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainCommits: mark indexed", err)
		}
		commit.Free()
	}
	return nil
}

func commitDocOf(repoID string, c *gitbackend.Commit) indexsink.CommitDoc {
	parents := make([]string, c.ParentCount())
	for i := range parents {
		parents[i] = c.ParentID(uint(i)).String()
	}
	author := c.Author()
	committer := c.Committer()
	return indexsink.CommitDoc{
		RepoID:     repoID,
		Parents:    parents,
		Author:     indexsink.Person{Name: author.Name, Email: author.Email},
		Committer:  indexsink.Person{Name: committer.Name, Email: committer.Email},
		CommitDate: committer.When.Format("2006-01-02T15:04:05Z07:00"),
		Message:    c.Message(),
	}
}

func (co *Coordinator) drainFiles(ctx context.Context, repo *catalog.Repository, gitRepo *gitbackend.Repo) error {
	pending, err := co.Catalog.ListFilesNeedingIndex(repo.ID)
	if err != nil {
		return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainFiles: list", err)
	}

	for _, f := range pending {
		docID := gitid.FileDocID(mustParseSha1(repo.ID), f.Path).String()

		if f.Deleted {
			if err := co.Sink.DeleteFile(ctx, docID); err != nil {
				return codelauferr.Wrap(codelauferr.SinkErr, "sync.drainFiles: delete file", err)
			}
			if err := co.Catalog.MarkFileIndexed(repo.ID, f.Branch, f.Path, f.ChangedCommitID); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainFiles: mark deleted file indexed", err)
			}
			continue
		}

		changedID, err := gitid.Sha1Parse(f.ChangedCommitID)
		if err != nil {
			return codelauferr.Wrap(codelauferr.EncodingErr, "sync.drainFiles: parse changed commit", err)
		}
		commit, err := gitRepo.FindCommit(changedID)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.drainFiles: find changed commit", err)
		}
		changedDate := commitDocOf(repo.ID, commit).CommitDate
		tree, err := gitRepo.TreeOf(commit)
		if err != nil {
			commit.Free()
			return codelauferr.Wrap(codelauferr.GitErr, "sync.drainFiles: tree of changed commit", err)
		}

		blobOid, found, err := lookupPathOid(gitRepo, tree, f.Path)
		tree.Free()
		commit.Free()
		if err != nil {
			return err
		}
		if !found {
			// the path existed at changed_commit_id when the delta was
			// recorded but is gone from the tree now (possible after a
			// history rewrite); treat as nothing to index, not an error.
			if err := co.Catalog.MarkFileIndexed(repo.ID, f.Branch, f.Path, f.ChangedCommitID); err != nil {
				return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainFiles: mark indexed (vanished)", err)
			}
			continue
		}

		blob, err := gitRepo.FindBlob(blobOid)
		if err != nil {
			return codelauferr.Wrap(codelauferr.GitErr, "sync.drainFiles: find blob", err)
		}

		if !blob.IsBinary() {
			text := strings.ToValidUTF8(string(blob.Data()), string(utf8.RuneError))
			doc := indexsink.FileDoc{
				RepoID:          repo.ID,
				Path:            string(f.Path),
				Text:            text,
				ChangedCommitID: f.ChangedCommitID,
				ChangedDate:     changedDate,
			}
			if err := co.Sink.PutFile(ctx, docID, doc); err != nil {
				blob.Free()
				return codelauferr.Wrap(codelauferr.SinkErr, "sync.drainFiles: put file", err)
			}
		}
		blob.Free()

		if err := co.Catalog.MarkFileIndexed(repo.ID, f.Branch, f.Path, f.ChangedCommitID); err != nil {
			return codelauferr.Wrap(codelauferr.CatalogErr, "sync.drainFiles: mark indexed", err)
		}
	}
	return nil
}

// lookupPathOid resolves a repo-root-relative path to its blob oid within
// tree by walking the whole tree and matching each blob entry's full path.
func lookupPathOid(gitRepo *gitbackend.Repo, tree *gitbackend.Tree, path []byte) (gitid.Sha1, bool, error) {
	entries, err := gitRepo.WalkTree(tree)
	if err != nil {
		return gitid.Sha1{}, false, codelauferr.Wrap(codelauferr.GitErr, "sync.lookupPathOid: walk tree", err)
	}
	for _, e := range entries {
		if e.Kind == gitbackend.KindBlob && string(e.Path) == string(path) {
			return e.Oid, true, nil
		}
	}
	return gitid.Sha1{}, false, nil
}

func mustParseSha1(s string) gitid.Sha1 {
	id, err := gitid.Sha1Parse(s)
	if err != nil {
		panic(fmt.Sprintf("codelauf: invalid repo_id %q persisted in catalog: %v", s, err))
	}
	return id
}
