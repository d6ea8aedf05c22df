// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/largecol/layout"
)

func TestStoreCreateOpenRoundtrip(t *testing.T) {
	dir := t.TempDir()
	sig := []Kind{Int64, Float64, Uint8}

	s, err := Create(dir, 10, sig)
	require.NoError(t, err)
	assert.Equal(t, int64(10), s.Len())
	assert.Equal(t, sig, s.Columns())

	// freshly created records are zero-valued
	tup, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, Tuple{int64(0), float64(0), uint8(0)}, tup)

	require.NoError(t, s.Set(3, Tuple{int64(-5), 2.5, uint8(9)}))
	require.NoError(t, s.Close())

	// reopening by directory alone recovers count and element types
	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, int64(10), s2.Len())
	assert.Equal(t, sig, s2.Columns())

	tup, err = s2.Get(3)
	require.NoError(t, err)
	assert.Equal(t, Tuple{int64(-5), 2.5, uint8(9)}, tup)
}

func TestStoreValidation(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(dir, 5, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Create(dir, 5, []Kind{Invalid})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Create(dir, -1, []Kind{Int32})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Create(filepath.Join(dir, "missing"), 5, []Kind{Int32})
	assert.Error(t, err)
}

func TestStoreIndexRange(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 4, []Kind{Int32})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(0)
	assert.ErrorIs(t, err, ErrIndexRange)
	_, err = s.Get(5)
	assert.ErrorIs(t, err, ErrIndexRange)
	assert.ErrorIs(t, s.Set(5, Tuple{int32(1)}), ErrIndexRange)

	_, err = s.GetRange(0, 2)
	assert.ErrorIs(t, err, ErrIndexRange)
	_, err = s.GetRange(3, 2)
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestStoreTypeChecks(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 2, []Kind{Int64, Float64})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Set(1, Tuple{int64(1)}), ErrTypeMismatch)
	assert.ErrorIs(t, s.Set(1, Tuple{"x", 1.0}), ErrTypeMismatch)
	assert.ErrorIs(t, s.Set(1, Tuple{int64(1), 1.0, 2}), ErrTypeMismatch)

	// a rejected tuple must leave the record untouched
	require.NoError(t, s.Set(1, Tuple{int64(7), 7.0}))
	assert.ErrorIs(t, s.Set(1, Tuple{int64(8), "bad"}), ErrTypeMismatch)
	tup, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, Tuple{int64(7), 7.0}, tup)
}

func TestStoreSliceRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 10, []Kind{Int64, Float64})
	require.NoError(t, err)
	defer s.Close()

	vals := make([]Tuple, 0, 6)
	for i := int64(3); i <= 8; i++ {
		vals = append(vals, Tuple{i, float64(i) / 2})
	}
	require.NoError(t, s.SetRange(3, 8, vals))

	got, err := s.GetRange(3, 8)
	require.NoError(t, err)
	assert.Equal(t, vals, got)

	assert.ErrorIs(t, s.SetRange(3, 8, vals[:5]), ErrValidation)
}

func TestStoreEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 0, []Kind{Int64})
	require.NoError(t, err)
	assert.Zero(t, s.Len())
	_, err = s.Get(1)
	assert.ErrorIs(t, err, ErrIndexRange)
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	assert.Zero(t, s2.Len())
	require.NoError(t, s2.Close())
}

func TestStoreOpenMissingColumn(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 3, []Kind{Int64, Int64})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, os.Remove(layout.BinaryFilename(dir, 2)))
	_, err = Open(dir)
	assert.Error(t, err)
}

func TestStoreOpenShortColumn(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 3, []Kind{Int64})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.NoError(t, os.Truncate(layout.BinaryFilename(dir, 1), 23))
	_, err = Open(dir)
	assert.Error(t, err)
}

func TestStoreUseAfterClose(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, 1, []Kind{Int64})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	// double close is fine
	require.NoError(t, s.Close())

	_, err = s.Get(1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(1, Tuple{int64(1)}), ErrClosed)
	assert.ErrorIs(t, s.Sync(), ErrClosed)
}

// Write a permutation through one mapped view, reopen and sort it in place,
// then reopen once more and verify the sorted contents stuck.
func TestStoreSortInPlacePersists(t *testing.T) {
	const n = 39
	dir := t.TempDir()

	s, err := Create(dir, n, []Kind{Int32})
	require.NoError(t, err)
	perm := rand.New(rand.NewSource(1)).Perm(n)
	for i, p := range perm {
		require.NoError(t, s.Set(int64(i+1), Tuple{int32(p + 1)}))
	}
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	vals := make([]int32, 0, n)
	for i := int64(1); i <= n; i++ {
		tup, err := s.Get(i)
		require.NoError(t, err)
		vals = append(vals, tup[0].(int32))
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	for i, v := range vals {
		require.NoError(t, s.Set(int64(i+1), Tuple{v}))
	}
	require.NoError(t, s.Sync())
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	for i := int64(1); i <= n; i++ {
		tup, err := s.Get(i)
		require.NoError(t, err)
		assert.Equal(t, Tuple{int32(i)}, tup)
	}
}
