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

package gitid

import "testing"

func TestSha1ParseRoundtrip(t *testing.T) {
	const s = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	id, err := Sha1Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if id.String() != s {
		t.Fatalf("roundtrip: got %q, want %q", id.String(), s)
	}
}

func TestSha1ParseInvalid(t *testing.T) {
	for _, bad := range []string{"", "zz", "da39a3ee5e6b4b0d3255bfef95601890afd8070"} {
		if _, err := Sha1Parse(bad); err == nil {
			t.Errorf("Sha1Parse(%q): expected error", bad)
		}
	}
}

func TestRepoIDDeterministic(t *testing.T) {
	a := RepoID("https://example.com/foo.git")
	b := RepoID("https://example.com/foo.git")
	c := RepoID("https://example.com/bar.git")
	if a != b {
		t.Fatal("RepoID not deterministic for same uri")
	}
	if a == c {
		t.Fatal("RepoID collided for different uris")
	}
}

func TestFileDocIDStable(t *testing.T) {
	repoID := RepoID("https://example.com/foo.git")
	id1 := FileDocID(repoID, []byte("a.txt"))
	id2 := FileDocID(repoID, []byte("a.txt"))
	id3 := FileDocID(repoID, []byte("b.txt"))
	if id1 != id2 {
		t.Fatal("FileDocID not deterministic")
	}
	if id1 == id3 {
		t.Fatal("FileDocID collided for different paths")
	}
}

func TestSha1SetElements(t *testing.T) {
	a, _ := Sha1Parse("da39a3ee5e6b4b0d3255bfef95601890afd80709")
	b, _ := Sha1Parse("356a192b7913b04c54574d18c28d46e6395428ab")
	s := NewSha1Set(a, b, a)
	if len(s) != 2 {
		t.Fatalf("expected 2 distinct elements, got %d", len(s))
	}
	if !s.Contains(a) || !s.Contains(b) {
		t.Fatal("set missing expected elements")
	}
}
