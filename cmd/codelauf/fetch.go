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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/gitid"
	"lab.nexedi.com/kirr/codelauf/internal/sync"
)

var (
	fetchRemote   string
	fetchBranches []string
	fetchRepoDir  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "clones or fetches a repository and records new commits, without indexing",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := repoSpecFromFlags(fetchRemote, fetchBranches, fetchRepoDir)
		if err != nil {
			return err
		}

		cat, err := openCatalog()
		if err != nil {
			return err
		}
		defer cat.Close()

		co, err := newCoordinator(cat)
		if err != nil {
			return err
		}

		log.Info().Str("remote", spec.URI).Strs("branches", spec.Branches).Msg("fetch starting")
		return co.Fetch(context.Background(), spec)
	},
}

func init() {
	flags := fetchCmd.Flags()
	flags.StringVarP(&fetchRemote, "remote", "r", "", "repository remote url (required unless config index.remote is set, even for an already cloned repo)")
	flags.StringArrayVarP(&fetchBranches, "branch", "b", nil, "branch to track (repeatable; default master)")
	flags.StringVarP(&fetchRepoDir, "repo-dir", "R", "", "repo dir to use (clones if it does not exist)")
}

func repoSpecFromFlags(remote string, branches []string, repoDir string) (sync.RepoSpec, error) {
	remote = firstNonEmptyStr(remote, cfg.Index.Remote)
	if remote == "" {
		return sync.RepoSpec{}, codelauferr.New(codelauferr.ConfigArgs, "cmd.repoSpecFromFlags",
			fmt.Errorf("no remote given (--remote or config index.remote)"))
	}
	if len(branches) == 0 && cfg.Index.Branch != "" {
		branches = []string{cfg.Index.Branch}
	}

	repoID := gitid.RepoID(remote).String()
	dir := firstNonEmptyStr(repoDir, cfg.Index.RepoDir)
	return sync.RepoSpec{
		URI:      remote,
		Branches: branches,
		RepoDir:  repoDirFor(repoID, dir),
	}, nil
}

func firstNonEmptyStr(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
