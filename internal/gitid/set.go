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

// Sha1Set is a set of Sha1, used by the revision planner to track merge
// bases / hide-sets without duplicate bookkeeping.
type Sha1Set map[Sha1]struct{}

func NewSha1Set(idv ...Sha1) Sha1Set {
	s := make(Sha1Set, len(idv))
	for _, id := range idv {
		s.Add(id)
	}
	return s
}

func (s Sha1Set) Add(id Sha1) {
	s[id] = struct{}{}
}

func (s Sha1Set) Contains(id Sha1) bool {
	_, ok := s[id]
	return ok
}

// Elements returns all elements of the set as a slice, in unspecified order.
func (s Sha1Set) Elements() []Sha1 {
	ev := make([]Sha1, 0, len(s))
	for e := range s {
		ev = append(ev, e)
	}
	return ev
}

// StrSet is a set of string, used for small membership checks (e.g. the tree
// planner's path dedup) where a Sha1Set doesn't apply.
type StrSet map[string]struct{}

func NewStrSet(v ...string) StrSet {
	s := make(StrSet, len(v))
	for _, e := range v {
		s.Add(e)
	}
	return s
}

func (s StrSet) Add(v string) {
	s[v] = struct{}{}
}

func (s StrSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}
