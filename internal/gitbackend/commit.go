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
	"time"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// Signature is a cloned, GC-safe copy of a git2go.Signature.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a safe handle on a git2go.Commit.
type Commit struct {
	commit *git2go.Commit
}

func (r *Repo) FindCommit(id gitid.Sha1) (*Commit, error) {
	c, err := r.repo.LookupCommit(toOid(id))
	if err != nil {
		return nil, fmt.Errorf("find commit %s: %w", id, err)
	}
	return &Commit{commit: c}, nil
}

func (c *Commit) ID() gitid.Sha1 {
	id := fromOid(c.commit.Id())
	runtime.KeepAlive(c)
	return id
}

func (c *Commit) ParentCount() uint { return c.commit.ParentCount() }

func (c *Commit) ParentID(n uint) gitid.Sha1 {
	id := fromOid(c.commit.ParentId(n))
	runtime.KeepAlive(c)
	return id
}

func (c *Commit) Message() string {
	msg := cloneString(c.commit.Message())
	runtime.KeepAlive(c)
	return msg
}

func (c *Commit) Author() Signature {
	s := cloneSignature(c.commit.Author())
	runtime.KeepAlive(c)
	return s
}

func (c *Commit) Committer() Signature {
	s := cloneSignature(c.commit.Committer())
	runtime.KeepAlive(c)
	return s
}

func cloneSignature(s *git2go.Signature) Signature {
	if s == nil {
		return Signature{}
	}
	return Signature{
		Name:  cloneString(s.Name),
		Email: cloneString(s.Email),
		When:  s.When,
	}
}

func (c *Commit) Free() { c.commit.Free() }
