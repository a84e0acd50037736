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

	"github.com/spf13/cobra"
)

var (
	indexRemote   string
	indexBranches []string
	indexRepoDir  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "indexes a single repository and exits",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := repoSpecFromFlags(indexRemote, indexBranches, indexRepoDir)
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

		log.Info().Str("remote", spec.URI).Strs("branches", spec.Branches).Msg("index starting")
		return co.Index(context.Background(), spec)
	},
}

func init() {
	flags := indexCmd.Flags()
	flags.StringVarP(&indexRemote, "remote", "r", "", "repository remote url (required unless config index.remote is set, even for an already cloned repo)")
	flags.StringArrayVarP(&indexBranches, "branch", "b", nil, "branch to track (repeatable; default master)")
	flags.StringVarP(&indexRepoDir, "repo-dir", "R", "", "repo dir to use (clones if it does not exist)")
}
