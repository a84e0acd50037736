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

// RepoID is a stable, content-addressed repository id: SHA-1 of the remote
// URI bytes. Same URI -> same id, across runs and across machines (P2).
func RepoID(uri string) Sha1 {
	return Of([]byte(uri))
}

// FileDocID is the search-sink document id for a file: SHA-1(repo_id bytes
// concatenated with path bytes). Path is taken as opaque bytes so that
// non-UTF-8 paths still produce a stable id (P6).
func FileDocID(repoID Sha1, path []byte) Sha1 {
	return Of(repoID.Bytes(), path)
}
