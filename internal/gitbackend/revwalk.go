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

package gitbackend

import (
	"errors"
	"fmt"
	"io"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// MergeBases returns every merge base of a and b; empty if their histories
// are disjoint.
func (r *Repo) MergeBases(a, b gitid.Sha1) ([]gitid.Sha1, error) {
	oids, err := r.repo.MergeBases(toOid(a), toOid(b))
	if err != nil {
		// libgit2 reports "no merge base" as an error rather than an
		// empty result; that is not a failure for disjoint histories.
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("merge bases %s %s: %w", a, b, err)
	}
	out := make([]gitid.Sha1, len(oids))
	for i, o := range oids {
		out[i] = fromOid(o)
	}
	return out, nil
}

// Revwalk returns every commit id reachable from any of push but not from
// any of hide.
func (r *Repo) Revwalk(push, hide []gitid.Sha1) ([]gitid.Sha1, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("revwalk: %w", err)
	}
	defer walk.Free()

	for _, id := range push {
		if err := walk.Push(toOid(id)); err != nil {
			return nil, fmt.Errorf("revwalk push %s: %w", id, err)
		}
	}
	for _, id := range hide {
		if err := walk.Hide(toOid(id)); err != nil {
			return nil, fmt.Errorf("revwalk hide %s: %w", id, err)
		}
	}

	var out []gitid.Sha1
	var oid git2go.Oid
	for {
		err := walk.Next(&oid)
		if err != nil {
			if isIterOver(err) {
				break
			}
			return nil, fmt.Errorf("revwalk next: %w", err)
		}
		out = append(out, fromOid(&oid))
	}
	return out, nil
}

func isIterOver(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var gitErr *git2go.GitError
	if errors.As(err, &gitErr) {
		return gitErr.Code == git2go.ErrorCodeIterOver
	}
	return false
}

func isNotFound(err error) bool {
	var gitErr *git2go.GitError
	if errors.As(err, &gitErr) {
		return gitErr.Code == git2go.ErrorCodeNotFound
	}
	return false
}
