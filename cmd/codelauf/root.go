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

// Command codelauf wires config, logging and the sync core into the
// "init"/"fetch"/"index"/"sync" subcommands described in spec.md §6.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lab.nexedi.com/kirr/codelauf/internal/catalog"
	"lab.nexedi.com/kirr/codelauf/internal/codelauferr"
	"lab.nexedi.com/kirr/codelauf/internal/config"
	"lab.nexedi.com/kirr/codelauf/internal/gitbackend"
	"lab.nexedi.com/kirr/codelauf/internal/indexsink"
	"lab.nexedi.com/kirr/codelauf/internal/logging"
	"lab.nexedi.com/kirr/codelauf/internal/sync"
)

var (
	configPath    string
	dataDirFlag   string
	zookeeperFlag string
	elasticFlag   string
	verboseCount  int
	quietCount    int

	cfg Config
	log zerolog.Logger
)

// Config is the merged, ready-to-use configuration for the current
// invocation, built in PersistentPreRunE before any subcommand body runs.
type Config = config.Config

var rootCmd = &cobra.Command{
	Use:   "codelauf",
	Short: "codelauf indexes git repositories for search",
	Long: `codelauf mirrors remote git repositories into a local working area
and incrementally feeds commit metadata and file contents into a full-text
search index.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfigAndLogger,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	flags.StringVarP(&dataDirFlag, "data-dir", "d", "", "data directory")
	flags.StringVarP(&zookeeperFlag, "zookeeper", "z", "", "zookeeper host:port[/dir] (env ZOOKEEPER)")
	flags.StringVarP(&elasticFlag, "elasticsearch", "e", "", "elasticsearch host:port (env ELASTICSEARCH)")
	flags.CountVarP(&verboseCount, "verbose", "v", "increase verbosity (repeatable)")
	flags.CountVarP(&quietCount, "quiet", "q", "decrease verbosity (repeatable)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(syncCmd)
}

func loadConfigAndLogger(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded.Apply(config.Flags{
		DataDir:       dataDirFlag,
		Zookeeper:     zookeeperFlag,
		Elasticsearch: elasticFlag,
	})

	level := logging.LevelFromVerbosity(1 + verboseCount - quietCount)
	log = logging.New(level)
	return nil
}

func dbPath() string {
	return filepath.Join(cfg.DataDir, "db.sqlite")
}

func openCatalog() (*catalog.SQLiteCatalog, error) {
	return catalog.Open(dbPath())
}

func newCoordinator(cat catalog.Catalog) (*sync.Coordinator, error) {
	if cfg.Elasticsearch == "" {
		return nil, codelauferr.New(codelauferr.ConfigArgs, "cmd.newCoordinator",
			fmt.Errorf("no elasticsearch host configured (--elasticsearch, config file, or ELASTICSEARCH env)"))
	}
	sink, err := indexsink.NewElasticSink("http://" + cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	co := sync.New(cat, gitbackend.NewBackend(), sink)
	co.Progress = func(receivedBytes uint64, sideband string) {
		if sideband != "" {
			log.Debug().Str("sideband", sideband).Msg("fetch progress")
		} else {
			log.Debug().Uint64("received_bytes", receivedBytes).Msg("fetch progress")
		}
	}
	return co, nil
}

func repoDirFor(repoID, configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(cfg.DataDir, "repos", repoID)
}
