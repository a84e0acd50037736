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
	"fmt"

	"github.com/spf13/cobra"

	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "starts the worker process to mirror and index repos (not implemented in this build)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}
		defer cat.Close()
		return codelauferr.New(codelauferr.InvalidState, "cmd.sync",
			fmt.Errorf("distributed scheduling over zookeeper is out of scope for this build; use fetch/index directly"))
	},
}
