// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import "errors"

var (
	// ErrValidation reports a caller-supplied shape that is invalid at
	// construction time: an empty column signature or an unknown kind.
	ErrValidation = errors.New("invalid column signature")

	// ErrIndexRange reports a record index outside [1, Len()].
	ErrIndexRange = errors.New("record index out of range")

	// ErrTypeMismatch reports a tuple component whose type has no
	// relationship to the column's element kind.
	ErrTypeMismatch = errors.New("value type does not match column kind")

	// ErrConversion reports a numeric component that is the right shape but
	// cannot be represented by the column's element kind (overflow, or a
	// fractional value supplied for an integer column).
	ErrConversion = errors.New("value not representable by column kind")

	// ErrClosed reports use of a Store or Sink after Close.
	ErrClosed = errors.New("use after close")
)
