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

// Package gitid provides the Sha1 value type shared by the catalog, the Git
// backend and the search sink: repository ids, commit ids and file document
// ids are all SHA-1 hex values.
package gitid

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

const RawSize = 20

// Sha1 holds a SHA-1 value in raw (binary) form.
//
// NOTE zero value of Sha1{} is the NULL sha1.
// NOTE Sha1 is small enough (20 bytes) that it is reasonable to pass it by
//      value, not by reference.
type Sha1 struct {
	v [RawSize]byte
}

var _ fmt.Stringer = Sha1{}

func (id Sha1) String() string {
	return hex.EncodeToString(id.v[:])
}

// Bytes returns the raw 20-byte value.
func (id Sha1) Bytes() []byte {
	return id.v[:]
}

func Sha1Parse(s string) (Sha1, error) {
	var id Sha1
	if hex.DecodedLen(len(s)) != RawSize {
		return Sha1{}, fmt.Errorf("gitid: %q: invalid sha1", s)
	}
	_, err := hex.Decode(id.v[:], []byte(s))
	if err != nil {
		return Sha1{}, fmt.Errorf("gitid: %q: invalid sha1: %w", s, err)
	}
	return id, nil
}

// Sha1FromBytes builds a Sha1 from a raw 20-byte slice.
func Sha1FromBytes(b []byte) (Sha1, error) {
	var id Sha1
	if len(b) != RawSize {
		return Sha1{}, fmt.Errorf("gitid: %d bytes: invalid sha1 length", len(b))
	}
	copy(id.v[:], b)
	return id, nil
}

var _ fmt.Scanner = (*Sha1)(nil)

func (id *Sha1) Scan(s fmt.ScanState, ch rune) error {
	switch ch {
	case 's', 'v':
	default:
		return fmt.Errorf("Sha1.Scan: invalid verb %q", ch)
	}

	tok, err := s.Token(true, nil)
	if err != nil {
		return err
	}

	*id, err = Sha1Parse(string(tok))
	return err
}

// IsNull reports whether id is the all-zero sha1.
func (id Sha1) IsNull() bool {
	return id == Sha1{}
}

// Of computes the SHA-1 of the concatenation of parts.
func Of(parts ...[]byte) Sha1 {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	var id Sha1
	copy(id.v[:], h.Sum(nil))
	return id
}

// BySha1 sorts a []Sha1 slice.
type BySha1 []Sha1

func (p BySha1) Len() int           { return len(p) }
func (p BySha1) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p BySha1) Less(i, j int) bool { return bytes.Compare(p[i].v[:], p[j].v[:]) < 0 }
