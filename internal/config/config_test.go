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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathYieldsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "." {
		t.Fatalf("expected default data_dir \".\", got %q", cfg.DataDir)
	}
}

func TestLoadParsesTOMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codelauf.toml")
	doc := `
data_dir = "/var/lib/codelauf"
zookeeper = "localhost:2181/codelauf"
elasticsearch = "localhost:9200"

[index]
remote = "https://example.com/repo.git"
branch = "master"
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataDir != "/var/lib/codelauf" {
		t.Fatalf("unexpected data_dir %q", cfg.DataDir)
	}
	if cfg.Index.Remote != "https://example.com/repo.git" {
		t.Fatalf("unexpected index.remote %q", cfg.Index.Remote)
	}
	if cfg.Index.Branch != "master" {
		t.Fatalf("unexpected index.branch %q", cfg.Index.Branch)
	}
}

func TestApplyFlagWinsOverFileWinsOverEnv(t *testing.T) {
	t.Setenv("ZOOKEEPER", "env:2181")

	cfg := Config{Zookeeper: "file:2181"}
	out := cfg.Apply(Flags{})
	if out.Zookeeper != "file:2181" {
		t.Fatalf("expected file value to win over env, got %q", out.Zookeeper)
	}

	out = cfg.Apply(Flags{Zookeeper: "flag:2181"})
	if out.Zookeeper != "flag:2181" {
		t.Fatalf("expected flag value to win over file, got %q", out.Zookeeper)
	}

	empty := Config{}
	out = empty.Apply(Flags{})
	if out.Zookeeper != "env:2181" {
		t.Fatalf("expected env fallback when file and flag are empty, got %q", out.Zookeeper)
	}
}
