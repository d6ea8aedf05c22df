// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bpowers/largecol/layout"
)

// Kind identifies one of the fixed-width primitive element types a column
// can hold.  Every kind has a constant byte width and no embedded pointers,
// so a column of N elements is always exactly N×Width() bytes on disk.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// Tuple is one logical record: one component per column, in column order.
type Tuple []any

// Width returns the on-disk size of a single element in bytes.
func (k Kind) Width() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// tag is the stable on-disk identifier for a kind, persisted in the layout
// descriptor.  Tags must never be renumbered.
func (k Kind) tag() uint8 {
	return uint8(k)
}

func kindFromTag(tag uint8) Kind {
	k := Kind(tag)
	if k.Width() == 0 {
		return Invalid
	}
	return k
}

// columnsFor converts a column signature to its descriptor form, validating
// the shape invariants the on-disk format requires.
func columnsFor(kinds []Kind) ([]layout.Column, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: dataset needs at least one column", ErrValidation)
	}
	cols := make([]layout.Column, len(kinds))
	for i, k := range kinds {
		w := k.Width()
		if w == 0 {
			return nil, fmt.Errorf("%w: column %d has unknown kind %s", ErrValidation, i+1, k)
		}
		cols[i] = layout.Column{Tag: k.tag(), Width: uint8(w)}
	}
	return cols, nil
}

// kindsFor converts a descriptor signature back to kinds.  A tag this
// version doesn't know, or a recorded width that disagrees with the tag,
// means the dataset was written by an incompatible version.
func kindsFor(cols []layout.Column) ([]Kind, error) {
	kinds := make([]Kind, len(cols))
	for i, c := range cols {
		k := kindFromTag(c.Tag)
		if k == Invalid {
			return nil, fmt.Errorf("%w: column %d has unsupported kind tag %d", layout.ErrFormat, i+1, c.Tag)
		}
		if int(c.Width) != k.Width() {
			return nil, fmt.Errorf("%w: column %d records width %d for %s (want %d)",
				layout.ErrFormat, i+1, c.Width, k, k.Width())
		}
		kinds[i] = k
	}
	return kinds, nil
}

// get decodes the element stored in b (exactly Width() bytes) into its
// natural Go type.  Byte order is the host's; see the package docs.
func (k Kind) get(b []byte) any {
	switch k {
	case Int8:
		return int8(b[0])
	case Int16:
		return int16(binary.NativeEndian.Uint16(b))
	case Int32:
		return int32(binary.NativeEndian.Uint32(b))
	case Int64:
		return int64(binary.NativeEndian.Uint64(b))
	case Uint8:
		return b[0]
	case Uint16:
		return binary.NativeEndian.Uint16(b)
	case Uint32:
		return binary.NativeEndian.Uint32(b)
	case Uint64:
		return binary.NativeEndian.Uint64(b)
	case Float32:
		return math.Float32frombits(binary.NativeEndian.Uint32(b))
	case Float64:
		return math.Float64frombits(binary.NativeEndian.Uint64(b))
	default:
		panic("invariant broken: get on invalid kind")
	}
}

// put coerces v to the kind's element type and encodes it into b (exactly
// Width() bytes).  b is untouched if coercion fails.
func (k Kind) put(b []byte, v any) error {
	switch k {
	case Int8, Int16, Int32, Int64:
		n, err := k.coerceSigned(v)
		if err != nil {
			return err
		}
		switch k {
		case Int8:
			b[0] = byte(int8(n))
		case Int16:
			binary.NativeEndian.PutUint16(b, uint16(int16(n)))
		case Int32:
			binary.NativeEndian.PutUint32(b, uint32(int32(n)))
		case Int64:
			binary.NativeEndian.PutUint64(b, uint64(n))
		}
	case Uint8, Uint16, Uint32, Uint64:
		n, err := k.coerceUnsigned(v)
		if err != nil {
			return err
		}
		switch k {
		case Uint8:
			b[0] = uint8(n)
		case Uint16:
			binary.NativeEndian.PutUint16(b, uint16(n))
		case Uint32:
			binary.NativeEndian.PutUint32(b, uint32(n))
		case Uint64:
			binary.NativeEndian.PutUint64(b, n)
		}
	case Float32:
		f, err := k.coerceFloat(v)
		if err != nil {
			return err
		}
		binary.NativeEndian.PutUint32(b, math.Float32bits(float32(f)))
	case Float64:
		f, err := k.coerceFloat(v)
		if err != nil {
			return err
		}
		binary.NativeEndian.PutUint64(b, math.Float64bits(f))
	default:
		panic("invariant broken: put on invalid kind")
	}
	return nil
}

func asSigned(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asUnsigned(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uintptr:
		return uint64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	return 0, false
}

func (k Kind) signedRange() (min, max int64) {
	switch k {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func (k Kind) unsignedMax() uint64 {
	switch k {
	case Uint8:
		return math.MaxUint8
	case Uint16:
		return math.MaxUint16
	case Uint32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// coerceSigned accepts any Go integer exactly in range, or a float with no
// fractional part.  Lossy values are an ErrConversion, non-numeric values an
// ErrTypeMismatch.
func (k Kind) coerceSigned(v any) (int64, error) {
	min, max := k.signedRange()
	if n, ok := asSigned(v); ok {
		if n < min || n > max {
			return 0, fmt.Errorf("%w: %d overflows %s", ErrConversion, n, k)
		}
		return n, nil
	}
	if u, ok := asUnsigned(v); ok {
		if u > uint64(max) {
			return 0, fmt.Errorf("%w: %d overflows %s", ErrConversion, u, k)
		}
		return int64(u), nil
	}
	if f, ok := asFloat(v); ok {
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("%w: %v has no exact %s representation", ErrConversion, f, k)
		}
		if f < float64(min) || f > float64(max) {
			return 0, fmt.Errorf("%w: %v overflows %s", ErrConversion, f, k)
		}
		return int64(f), nil
	}
	return 0, fmt.Errorf("%w: cannot store %T in %s column", ErrTypeMismatch, v, k)
}

func (k Kind) coerceUnsigned(v any) (uint64, error) {
	max := k.unsignedMax()
	if u, ok := asUnsigned(v); ok {
		if u > max {
			return 0, fmt.Errorf("%w: %d overflows %s", ErrConversion, u, k)
		}
		return u, nil
	}
	if n, ok := asSigned(v); ok {
		if n < 0 || uint64(n) > max {
			return 0, fmt.Errorf("%w: %d overflows %s", ErrConversion, n, k)
		}
		return uint64(n), nil
	}
	if f, ok := asFloat(v); ok {
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("%w: %v has no exact %s representation", ErrConversion, f, k)
		}
		if f < 0 || f > float64(max) {
			return 0, fmt.Errorf("%w: %v overflows %s", ErrConversion, f, k)
		}
		return uint64(f), nil
	}
	return 0, fmt.Errorf("%w: cannot store %T in %s column", ErrTypeMismatch, v, k)
}

// coerceFloat accepts any numeric value; integers convert the way the
// language converts them (large magnitudes round).
func (k Kind) coerceFloat(v any) (float64, error) {
	if f, ok := asFloat(v); ok {
		return f, nil
	}
	if n, ok := asSigned(v); ok {
		return float64(n), nil
	}
	if u, ok := asUnsigned(v); ok {
		return float64(u), nil
	}
	return 0, fmt.Errorf("%w: cannot store %T in %s column", ErrTypeMismatch, v, k)
}
