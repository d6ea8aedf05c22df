// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/bpowers/largecol/internal/mmap"
	"github.com/bpowers/largecol/layout"
)

// Store is a fixed-length random-access view of a dataset: every column
// file memory-mapped read-write, the whole exposed as a sequence of tuples
// indexable by 1-based record position.  The record count never changes for
// the lifetime of a Store; use a Sink to grow a dataset.
//
// A Store is not safe for concurrent use.
type Store struct {
	dir    string
	count  int64
	kinds  []Kind
	cols   []mappedColumn
	rowBuf []byte
	offs   []int
	closed atomic.Bool
}

type mappedColumn struct {
	f     *os.File
	data  []byte
	width int
}

func statDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	return nil
}

// Create builds a new dataset of exactly count zero-valued records in dir
// and returns a Store over it.  The descriptor is written first, so the
// dataset's shape is authoritative before any column file exists.  If
// creation fails part-way, already-created column files are not rolled
// back; the directory is in an indeterminate state and should be discarded.
func Create(dir string, count int64, kinds []Kind) (*Store, error) {
	cols, err := columnsFor(kinds)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative record count %d", ErrValidation, count)
	}
	if err := statDir(dir); err != nil {
		return nil, err
	}
	if err := layout.Write(dir, count, cols); err != nil {
		return nil, err
	}

	s := newStore(dir, count, kinds)
	for i, k := range kinds {
		path := layout.BinaryFilename(dir, i+1)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		size := count * int64(k.Width())
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			_ = s.Close()
			return nil, fmt.Errorf("truncate %s: %w", path, err)
		}
		col, err := mapColumn(f, size, k.Width())
		if err != nil {
			_ = f.Close()
			_ = s.Close()
			return nil, fmt.Errorf("map %s: %w", path, err)
		}
		s.cols = append(s.cols, col)
	}
	return s, nil
}

// Open maps the existing dataset in dir, deriving the record count and
// column types from its descriptor.
func Open(dir string) (*Store, error) {
	count, lcols, err := layout.Read(dir)
	if err != nil {
		return nil, err
	}
	kinds, err := kindsFor(lcols)
	if err != nil {
		return nil, err
	}

	s := newStore(dir, count, kinds)
	for i, k := range kinds {
		path := layout.BinaryFilename(dir, i+1)
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		size := count * int64(k.Width())
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			_ = s.Close()
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if fi.Size() < size {
			_ = f.Close()
			_ = s.Close()
			return nil, fmt.Errorf("column file %s too short: %d < %d", path, fi.Size(), size)
		}
		col, err := mapColumn(f, size, k.Width())
		if err != nil {
			_ = f.Close()
			_ = s.Close()
			return nil, fmt.Errorf("map %s: %w", path, err)
		}
		s.cols = append(s.cols, col)
	}
	return s, nil
}

func newStore(dir string, count int64, kinds []Kind) *Store {
	s := &Store{
		dir:   dir,
		count: count,
		kinds: kinds,
		cols:  make([]mappedColumn, 0, len(kinds)),
		offs:  make([]int, len(kinds)),
	}
	row := 0
	for i, k := range kinds {
		s.offs[i] = row
		row += k.Width()
	}
	s.rowBuf = make([]byte, row)
	return s
}

func mapColumn(f *os.File, size int64, width int) (mappedColumn, error) {
	col := mappedColumn{f: f, width: width}
	if size == 0 {
		// mapping zero bytes is an error on most platforms; an empty
		// dataset simply has nothing to map
		return col, nil
	}
	data, err := mmap.Map(f, int(size), mmap.Writable|mmap.RandomAccess)
	if err != nil {
		return mappedColumn{}, err
	}
	col.data = data
	return col, nil
}

// Len returns the dataset's record count.
func (s *Store) Len() int64 {
	return s.count
}

// Columns returns the dataset's column signature.
func (s *Store) Columns() []Kind {
	kinds := make([]Kind, len(s.kinds))
	copy(kinds, s.kinds)
	return kinds
}

func (s *Store) checkIndex(i int64) error {
	if i < 1 || i > s.count {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrIndexRange, i, s.count)
	}
	return nil
}

// Get returns the record at 1-based position i.
func (s *Store) Get(i int64) (Tuple, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	t := make(Tuple, len(s.kinds))
	for c, k := range s.kinds {
		w := s.cols[c].width
		off := (i - 1) * int64(w)
		t[c] = k.get(s.cols[c].data[off : off+int64(w)])
	}
	return t, nil
}

// GetRange returns the records at positions lo..hi inclusive, in ascending
// order.
func (s *Store) GetRange(lo, hi int64) ([]Tuple, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := s.checkIndex(lo); err != nil {
		return nil, err
	}
	if err := s.checkIndex(hi); err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: descending range %d..%d", ErrIndexRange, lo, hi)
	}
	ts := make([]Tuple, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		t, err := s.Get(i)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return ts, nil
}

// Set writes t into the record at 1-based position i.  Every component is
// coerced before any column is touched, so a mismatched tuple leaves the
// record unchanged.
func (s *Store) Set(i int64, t Tuple) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.checkIndex(i); err != nil {
		return err
	}
	if err := s.encodeRow(t); err != nil {
		return err
	}
	for c := range s.kinds {
		w := s.cols[c].width
		off := (i - 1) * int64(w)
		copy(s.cols[c].data[off:off+int64(w)], s.rowBuf[s.offs[c]:s.offs[c]+w])
	}
	return nil
}

// SetRange writes ts element-wise into positions lo..hi inclusive; len(ts)
// must equal the range length.
func (s *Store) SetRange(lo, hi int64, ts []Tuple) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.checkIndex(lo); err != nil {
		return err
	}
	if err := s.checkIndex(hi); err != nil {
		return err
	}
	if lo > hi {
		return fmt.Errorf("%w: descending range %d..%d", ErrIndexRange, lo, hi)
	}
	if n := hi - lo + 1; int64(len(ts)) != n {
		return fmt.Errorf("%w: %d tuples for a range of %d records", ErrValidation, len(ts), n)
	}
	for j, t := range ts {
		if err := s.Set(lo+int64(j), t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) encodeRow(t Tuple) error {
	if len(t) != len(s.kinds) {
		return fmt.Errorf("%w: tuple has %d components, want %d", ErrTypeMismatch, len(t), len(s.kinds))
	}
	for c, k := range s.kinds {
		if err := k.put(s.rowBuf[s.offs[c]:s.offs[c]+k.Width()], t[c]); err != nil {
			return fmt.Errorf("column %d: %w", c+1, err)
		}
	}
	return nil
}

// Sync flushes every column mapping's dirty pages to the backing files.
// Writes are not guaranteed visible to another process before Sync (or
// Close) returns.
func (s *Store) Sync() error {
	if s.closed.Load() {
		return ErrClosed
	}
	for c := range s.cols {
		if s.cols[c].data == nil {
			continue
		}
		if err := mmap.Sync(s.cols[c].data); err != nil {
			return fmt.Errorf("msync column %d: %w", c+1, err)
		}
	}
	return nil
}

// Close syncs, unmaps, and closes every column.  Calling Close more than
// once is fine; only the first call does anything.
func (s *Store) Close() error {
	if alreadyClosed := s.closed.Swap(true); alreadyClosed {
		return nil
	}
	var firstErr error
	for c := range s.cols {
		col := &s.cols[c]
		if col.data != nil {
			if err := mmap.Sync(col.data); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("msync column %d: %w", c+1, err)
			}
			if err := mmap.Unmap(col.data); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("munmap column %d: %w", c+1, err)
			}
			col.data = nil
		}
		if col.f != nil {
			if err := col.f.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close column %d: %w", c+1, err)
			}
			col.f = nil
		}
	}
	return firstErr
}
