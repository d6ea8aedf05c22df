// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/largecol/layout"
)

func TestKindWidths(t *testing.T) {
	widths := map[Kind]int{
		Int8: 1, Uint8: 1,
		Int16: 2, Uint16: 2,
		Int32: 4, Uint32: 4, Float32: 4,
		Int64: 8, Uint64: 8, Float64: 8,
	}
	for k, w := range widths {
		assert.Equal(t, w, k.Width(), "%s", k)
	}
	assert.Zero(t, Invalid.Width())
	assert.Zero(t, Kind(99).Width())
}

func TestColumnsForValidation(t *testing.T) {
	_, err := columnsFor(nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = columnsFor([]Kind{Int32, Invalid})
	assert.ErrorIs(t, err, ErrValidation)

	cols, err := columnsFor([]Kind{Int64, Float64})
	require.NoError(t, err)
	assert.Equal(t, []layout.Column{{Tag: 4, Width: 8}, {Tag: 10, Width: 8}}, cols)
}

func TestKindsForRejectsIncompatibleSignatures(t *testing.T) {
	_, err := kindsFor([]layout.Column{{Tag: 200, Width: 8}})
	assert.ErrorIs(t, err, layout.ErrFormat)

	// a tag whose recorded width disagrees with what the tag means here
	_, err = kindsFor([]layout.Column{{Tag: Int64.tag(), Width: 4}})
	assert.ErrorIs(t, err, layout.ErrFormat)

	kinds, err := kindsFor([]layout.Column{{Tag: Int64.tag(), Width: 8}, {Tag: Float32.tag(), Width: 4}})
	require.NoError(t, err)
	assert.Equal(t, []Kind{Int64, Float32}, kinds)
}

func TestPutGetRoundtrip(t *testing.T) {
	cases := []struct {
		kind Kind
		in   any
		out  any
	}{
		{Int8, int8(-7), int8(-7)},
		{Int16, int16(-30000), int16(-30000)},
		{Int32, int32(1 << 30), int32(1 << 30)},
		{Int64, int64(-1 << 62), int64(-1 << 62)},
		{Uint8, uint8(255), uint8(255)},
		{Uint16, uint16(65535), uint16(65535)},
		{Uint32, uint32(1 << 31), uint32(1 << 31)},
		{Uint64, uint64(1) << 63, uint64(1) << 63},
		{Float32, float32(1.5), float32(1.5)},
		{Float64, 2.25, 2.25},

		// coercions
		{Float64, 10, float64(10)},
		{Float64, int64(3), float64(3)},
		{Float32, uint16(9), float32(9)},
		{Int64, 11, int64(11)},
		{Int64, 11.0, int64(11)},
		{Int32, uint8(4), int32(4)},
		{Uint8, 200, uint8(200)},
		{Uint64, 5.0, uint64(5)},
	}
	buf := make([]byte, 8)
	for _, c := range cases {
		require.NoError(t, c.kind.put(buf[:c.kind.Width()], c.in), "%s <- %v", c.kind, c.in)
		assert.Equal(t, c.out, c.kind.get(buf[:c.kind.Width()]), "%s <- %v", c.kind, c.in)
	}
}

func TestPutRejectsLossyValues(t *testing.T) {
	buf := make([]byte, 8)

	// overflow
	assert.ErrorIs(t, Int8.put(buf[:1], 128), ErrConversion)
	assert.ErrorIs(t, Uint8.put(buf[:1], 256), ErrConversion)
	assert.ErrorIs(t, Int16.put(buf[:2], uint64(1)<<40), ErrConversion)
	assert.ErrorIs(t, Uint32.put(buf[:4], -1), ErrConversion)

	// fractional values have no exact integer representation
	assert.ErrorIs(t, Int64.put(buf[:8], 10.5), ErrConversion)
	assert.ErrorIs(t, Uint16.put(buf[:2], float32(1.25)), ErrConversion)

	// non-numeric values are a different failure entirely
	assert.ErrorIs(t, Int64.put(buf[:8], "10"), ErrTypeMismatch)
	assert.ErrorIs(t, Float64.put(buf[:8], true), ErrTypeMismatch)
	assert.ErrorIs(t, Uint8.put(buf[:1], nil), ErrTypeMismatch)
}
