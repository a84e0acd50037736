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
	"runtime"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// Blob is a safe handle on a git2go.Blob.
type Blob struct {
	blob *git2go.Blob
}

func (r *Repo) FindBlob(id gitid.Sha1) (*Blob, error) {
	b, err := r.repo.LookupBlob(toOid(id))
	if err != nil {
		return nil, fmt.Errorf("find blob %s: %w", id, err)
	}
	return &Blob{blob: b}, nil
}

// Data returns a copy of the blob's raw bytes.
func (b *Blob) Data() []byte {
	data := cloneBytes(b.blob.Contents())
	runtime.KeepAlive(b)
	return data
}

// IsBinary reports libgit2's content-sniffing heuristic for "not text",
// used by the indexer to skip the body of binary files (spec scenario 4).
func (b *Blob) IsBinary() bool {
	isBin := b.blob.IsBinary()
	runtime.KeepAlive(b)
	return isBin
}

func (b *Blob) Free() { b.blob.Free() }
