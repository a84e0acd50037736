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

package codelauferr

import (
	"errors"
	"testing"
)

func TestKindOfWrapsOnce(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CatalogErr, "catalog.InsertRepo", cause)

	if KindOf(err) != CatalogErr {
		t.Fatalf("KindOf: got %v, want CatalogErr", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
}

func TestWrapPreservesKind(t *testing.T) {
	inner := New(GitErr, "gitbackend.Fetch", errors.New("network unreachable"))
	outer := Wrap(Other, "sync.Coordinator.Run", inner)

	if outer.Kind != GitErr {
		t.Fatalf("Wrap: kind got %v, want GitErr (preserved from inner)", outer.Kind)
	}
}

func TestKindOfUntaggedError(t *testing.T) {
	if KindOf(errors.New("plain")) != Other {
		t.Fatal("untagged error should report Other")
	}
}
