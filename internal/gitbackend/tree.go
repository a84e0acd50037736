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
	"path"
	"runtime"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// Tree is a safe handle on a git2go.Tree.
type Tree struct {
	tree *git2go.Tree
}

func (t *Tree) Free() { t.tree.Free() }

func (r *Repo) TreeOf(c *Commit) (*Tree, error) {
	t, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", c.ID(), err)
	}
	return &Tree{tree: t}, nil
}

// EntryKind classifies a WalkTree entry: Blob, Tree, or Other for anything
// else (e.g. submodule Commit entries), which callers ignore.
type EntryKind int

const (
	KindBlob EntryKind = iota
	KindTree
	KindOther
)

// TreeEntry is one (path, kind, oid) produced by WalkTree. Path is relative
// to the repository root and is opaque bytes, matching PendingFile.Path.
type TreeEntry struct {
	Path []byte
	Kind EntryKind
	Oid  gitid.Sha1
}

// frame is one level of the explicit walk stack: a subtree together with
// the path prefix it was reached at.
type frame struct {
	tree   *git2go.Tree
	prefix string
	owns   bool // true if this *git2go.Tree must be Free()d by us
}

// WalkTree recursively lists every blob and subtree under t, using an
// explicit stack rather than recursion or libgit2's own callback-based
// walk — the iteration mechanism has no contractual meaning, this shape
// just keeps object lifetimes easy to reason about in Go.
func (r *Repo) WalkTree(t *Tree) ([]TreeEntry, error) {
	var out []TreeEntry
	stack := []frame{{tree: t.tree, prefix: "", owns: false}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := top.tree.EntryCount()
		for i := uint64(0); i < n; i++ {
			e := top.tree.EntryByIndex(i)
			p := joinTreePath(top.prefix, e.Name)

			switch e.Type {
			case git2go.ObjectBlob:
				out = append(out, TreeEntry{
					Path: []byte(p),
					Kind: KindBlob,
					Oid:  fromOid(e.Id),
				})
			case git2go.ObjectTree:
				out = append(out, TreeEntry{
					Path: []byte(p),
					Kind: KindTree,
					Oid:  fromOid(e.Id),
				})
				sub, err := r.repo.LookupTree(e.Id)
				if err != nil {
					freeFrames(stack)
					if top.owns {
						top.tree.Free()
					}
					return nil, fmt.Errorf("lookup subtree %s: %w", p, err)
				}
				stack = append(stack, frame{tree: sub, prefix: p, owns: true})
			default:
				out = append(out, TreeEntry{
					Path: []byte(p),
					Kind: KindOther,
					Oid:  fromOid(e.Id),
				})
			}
		}

		if top.owns {
			top.tree.Free()
		}
	}

	runtime.KeepAlive(r)
	return out, nil
}

func freeFrames(stack []frame) {
	for _, f := range stack {
		if f.owns {
			f.tree.Free()
		}
	}
}

func joinTreePath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
