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

// Package gitbackend wraps git2go with unconditional safety, the same way
// the original internal/git package does: every handle that can alias
// git2go-owned memory is copied before it crosses back out, followed by a
// runtime.KeepAlive on the owning handle, so a GC run can never invalidate
// memory a caller is still holding.
//
// On top of that safety discipline, Backend/Repo expose exactly the
// operations a repository mirror needs: clone/open/fetch, ref resolution,
// revision walking, tree walking and diffing, blob access.
package gitbackend

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	git2go "github.com/libgit2/git2go/v31"

	"lab.nexedi.com/kirr/codelauf/internal/gitid"
)

// ProgressFunc receives fetch progress: receivedBytes is the running total
// of transferred object data; sideband, when non-empty, is a server-side
// progress message (spec: "must expose progress callbacks").
type ProgressFunc func(receivedBytes uint64, sideband string)

// Backend is the capability used to clone and open working copies. It
// carries no state of its own; all state lives in the Repo it returns.
type Backend struct{}

func NewBackend() *Backend { return &Backend{} }

// ExistsAt reports whether path looks like a git working copy, per the
// "checks for a .git directory marker" contract.
func (b *Backend) ExistsAt(path string) bool {
	fi, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && fi != nil
}

// Clone clones uri into path as a fresh working copy.
func (b *Backend) Clone(uri, path string, progress ProgressFunc) (*Repo, error) {
	opts := &git2go.CloneOptions{
		FetchOptions: &git2go.FetchOptions{
			RemoteCallbacks: progressCallbacks(progress),
		},
	}
	repo, err := git2go.Clone(uri, path, opts)
	if err != nil {
		return nil, fmt.Errorf("clone %s -> %s: %w", uri, path, err)
	}
	return &Repo{repo: repo}, nil
}

// Open opens an existing working copy at path.
func (b *Backend) Open(path string) (*Repo, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Repo{repo: repo}, nil
}

// Repo is a safe handle on one on-disk working copy. It is borrowed by the
// coordinator into the planners and indexer for the duration of one run and
// never persisted beyond it.
type Repo struct {
	repo *git2go.Repository
}

func (r *Repo) Close() error {
	r.repo.Free()
	return nil
}

func (r *Repo) Path() string {
	p := cloneString(r.repo.Path())
	runtime.KeepAlive(r)
	return p
}

// Fetch fetches the named branches from origin and prunes deleted refs.
func (r *Repo) Fetch(branches []string, progress ProgressFunc) error {
	remote, err := r.repo.Remotes.Lookup("origin")
	if err != nil {
		return fmt.Errorf("lookup remote origin: %w", err)
	}
	defer remote.Free()

	refspecs := make([]string, len(branches))
	for i, b := range branches {
		refspecs[i] = fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", b, b)
	}

	opts := &git2go.FetchOptions{
		RemoteCallbacks: progressCallbacks(progress),
		Prune:           git2go.FetchPruneOn,
	}
	if err := remote.Fetch(refspecs, opts, ""); err != nil {
		return fmt.Errorf("fetch %v: %w", branches, err)
	}
	return nil
}

// SetLocalBranchToRemote makes refs/heads/<branch> point at whatever
// refs/remotes/origin/<branch> currently points at — a mirror never merges.
func (r *Repo) SetLocalBranchToRemote(branch string) error {
	remoteRef, err := r.repo.References.Lookup("refs/remotes/origin/" + branch)
	if err != nil {
		return fmt.Errorf("lookup refs/remotes/origin/%s: %w", branch, err)
	}
	defer remoteRef.Free()

	target := remoteRef.Target()
	_, err = r.repo.References.Create("refs/heads/"+branch, target, true,
		"codelauf: fast-forward local branch to origin")
	if err != nil {
		return fmt.Errorf("set refs/heads/%s: %w", branch, err)
	}
	return nil
}

// ResolveRef resolves a fully qualified ref name (e.g. "refs/heads/master")
// to the commit id it currently points at.
func (r *Repo) ResolveRef(name string) (gitid.Sha1, error) {
	ref, err := r.repo.References.Lookup(name)
	if err != nil {
		return gitid.Sha1{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	defer ref.Free()

	resolved, err := ref.Resolve()
	if err != nil {
		return gitid.Sha1{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	defer resolved.Free()

	id, err := gitid.Sha1FromBytes(resolved.Target()[:])
	runtime.KeepAlive(r)
	return id, err
}

func progressCallbacks(progress ProgressFunc) git2go.RemoteCallbacks {
	if progress == nil {
		return git2go.RemoteCallbacks{}
	}
	return git2go.RemoteCallbacks{
		TransferProgressCallback: func(stats git2go.TransferProgress) error {
			progress(uint64(stats.ReceivedBytes), "")
			return nil
		},
		SidebandProgressCallback: func(msg string) error {
			progress(0, msg)
			return nil
		},
	}
}

func cloneString(s string) string {
	b := make([]byte, len(s))
	copy(b, s)
	return string(b)
}

func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
