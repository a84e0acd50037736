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
	"fmt"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// DeltaStatus classifies one tree-diff entry.
type DeltaStatus int

const (
	Added DeltaStatus = iota
	Modified
	Deleted
	Renamed
	Other
)

// Delta is one path-level change between two trees.
type Delta struct {
	Status  DeltaStatus
	OldPath []byte
	NewPath []byte
	OldOid  gitid.Sha1
	NewOid  gitid.Sha1
}

// TreeDiff diffs old against new (old may be nil, meaning "everything
// added"), always with pure-whitespace and file-mode-only changes
// suppressed, per the core's mandated diff options.
func (r *Repo) TreeDiff(old, new *Tree) ([]Delta, error) {
	var oldTree *git2go.Tree
	if old != nil {
		oldTree = old.tree
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("diff options: %w", err)
	}
	opts.Flags |= git2go.DiffIgnoreFilemode | git2go.DiffIgnoreWhitespace

	diff, err := r.repo.DiffTreeToTree(oldTree, new.tree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff tree to tree: %w", err)
	}
	defer diff.Free()

	n, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("num deltas: %w", err)
	}

	out := make([]Delta, 0, n)
	for i := 0; i < n; i++ {
		d, err := diff.Delta(i)
		if err != nil {
			return nil, fmt.Errorf("delta %d: %w", i, err)
		}
		out = append(out, Delta{
			Status:  fromDiffStatus(d.Status),
			OldPath: []byte(d.OldFile.Path),
			NewPath: []byte(d.NewFile.Path),
			OldOid:  fromOid(&d.OldFile.Oid),
			NewOid:  fromOid(&d.NewFile.Oid),
		})
	}
	return out, nil
}

func fromDiffStatus(s git2go.Delta) DeltaStatus {
	switch s {
	case git2go.DeltaAdded:
		return Added
	case git2go.DeltaModified:
		return Modified
	case git2go.DeltaDeleted:
		return Deleted
	case git2go.DeltaRenamed:
		return Renamed
	default:
		return Other
	}
}
