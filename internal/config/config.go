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

// Package config loads codelauf's TOML configuration file and merges it
// with CLI flags and environment variables, in that order of decreasing
// priority: flag, then config file, then env var, then built-in default.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full on-disk configuration document.
type Config struct {
	DataDir       string      `toml:"data_dir"`
	Zookeeper     string      `toml:"zookeeper"`
	Elasticsearch string      `toml:"elasticsearch"`
	Index         IndexConfig `toml:"index"`
	Sync          SyncConfig  `toml:"sync"`
}

// IndexConfig holds the defaults `index`/`fetch` fall back to when a flag
// of the same name is not given on the command line.
type IndexConfig struct {
	Remote  string `toml:"remote"`
	Branch  string `toml:"branch"`
	RepoDir string `toml:"repo_dir"`
}

// SyncConfig is reserved for the distributed worker's tuning knobs; the
// core has nothing to configure here yet (spec.md §1 Non-goal).
type SyncConfig struct{}

func defaultConfig() Config {
	return Config{DataDir: "."}
}

// Load reads path, if given, and overlays it onto the built-in default.
// An empty path is not an error: it yields the default config, matching
// the original prototype's "no -c flag means an empty, in-memory Config".
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Flags carries the subset of config fields that can also be set on the
// command line; a non-empty field here wins over both the config file and
// the environment.
type Flags struct {
	DataDir       string
	Zookeeper     string
	Elasticsearch string
	Remote        string
	Branch        string
	RepoDir       string
}

// Apply overlays flags and environment variables onto cfg, flag winning
// over whatever cfg already had from the file, which wins over env.
func (cfg Config) Apply(flags Flags) Config {
	cfg.DataDir = firstNonEmpty(flags.DataDir, cfg.DataDir)
	cfg.Zookeeper = firstNonEmpty(flags.Zookeeper, cfg.Zookeeper, os.Getenv("ZOOKEEPER"))
	cfg.Elasticsearch = firstNonEmpty(flags.Elasticsearch, cfg.Elasticsearch, os.Getenv("ELASTICSEARCH"))
	cfg.Index.Remote = firstNonEmpty(flags.Remote, cfg.Index.Remote)
	cfg.Index.Branch = firstNonEmpty(flags.Branch, cfg.Index.Branch)
	cfg.Index.RepoDir = firstNonEmpty(flags.RepoDir, cfg.Index.RepoDir)
	return cfg
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
