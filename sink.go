// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package largecol

import (
	"bufio"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/bpowers/largecol/internal/mmap"
	"github.com/bpowers/largecol/layout"
)

const sinkBufferSize = 1 << 20

// Sink appends records to a dataset one at a time, for the case where the
// final count is not known up front.  The layout descriptor is only written
// at Flush or Close: a Sink that is abandoned without either leaves no
// valid descriptor, so partial writes never appear as a complete dataset.
//
// A Sink is not safe for concurrent use.
type Sink struct {
	dir    string
	kinds  []Kind
	cols   []layout.Column
	count  int64
	files  []*os.File
	ws     []*bufio.Writer
	rowBuf []byte
	offs   []int

	// err is sticky: a write that fails part-way through a tuple leaves
	// the columns at inconsistent lengths, which nothing can repair.
	err    error
	closed atomic.Bool
}

// CreateSink opens a fresh sink over dir, truncating any existing column
// files.  The count starts at zero.
func CreateSink(dir string, kinds []Kind) (*Sink, error) {
	cols, err := columnsFor(kinds)
	if err != nil {
		return nil, err
	}
	if err := statDir(dir); err != nil {
		return nil, err
	}
	s := newSink(dir, kinds, cols, 0)
	if err := s.openStreams(os.O_WRONLY | os.O_CREATE | os.O_TRUNC); err != nil {
		_ = s.closeFiles()
		return nil, err
	}
	return s, nil
}

// OpenSink reopens the dataset in dir for sequential writing.  With
// appendMode true, the recorded count is kept and every column file's size
// is first checked against it (the only corruption check performed: a
// matching size is trusted to mean the prior session closed cleanly).
// With appendMode false the column files are truncated and the count reset
// to zero.
func OpenSink(dir string, appendMode bool) (*Sink, error) {
	count, lcols, err := layout.Read(dir)
	if err != nil {
		return nil, err
	}
	kinds, err := kindsFor(lcols)
	if err != nil {
		return nil, err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		for i, k := range kinds {
			if err := layout.CheckFilesize(dir, count, i+1, k.Width()); err != nil {
				return nil, err
			}
		}
		flag = os.O_WRONLY | os.O_APPEND
	} else {
		count = 0
	}

	s := newSink(dir, kinds, lcols, count)
	if err := s.openStreams(flag); err != nil {
		_ = s.closeFiles()
		return nil, err
	}
	return s, nil
}

func newSink(dir string, kinds []Kind, cols []layout.Column, count int64) *Sink {
	s := &Sink{
		dir:   dir,
		kinds: kinds,
		cols:  cols,
		count: count,
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

func (s *Sink) openStreams(flag int) error {
	s.files = make([]*os.File, 0, len(s.kinds))
	s.ws = make([]*bufio.Writer, 0, len(s.kinds))
	for i := range s.kinds {
		path := layout.BinaryFilename(s.dir, i+1)
		f, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		s.files = append(s.files, f)
		s.ws = append(s.ws, bufio.NewWriterSize(f, sinkBufferSize))
	}
	return nil
}

// Len returns the number of records the sink has seen: records pushed this
// session, plus the prior session's count for an append-mode reopen.  The
// count only becomes authoritative on disk at Flush or Close.
func (s *Sink) Len() int64 {
	return s.count
}

// Columns returns the sink's column signature.
func (s *Sink) Columns() []Kind {
	kinds := make([]Kind, len(s.kinds))
	copy(kinds, s.kinds)
	return kinds
}

// Push appends one record.  Every component is coerced to its column's
// element kind before any bytes are written, so a mismatched tuple is
// rejected cleanly.  A byte write that fails part-way through, however,
// leaves the columns at unequal lengths: the sink is poisoned, the error is
// returned from every later call, and the caller must discard the sink and
// fall back to the state of the last successful Flush.
func (s *Sink) Push(t Tuple) error {
	if s.err != nil {
		return s.err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.encodeRow(t); err != nil {
		return err
	}
	for c, k := range s.kinds {
		w := k.Width()
		if _, err := s.ws[c].Write(s.rowBuf[s.offs[c] : s.offs[c]+w]); err != nil {
			s.err = fmt.Errorf("sink poisoned: partial record write to column %d: %w", c+1, err)
			return s.err
		}
	}
	s.count++
	return nil
}

func (s *Sink) encodeRow(t Tuple) error {
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

// Flush makes the dataset consistent at the current count: it writes the
// layout descriptor, then drains every column stream to storage.  It may be
// called any number of times; each call re-establishes the descriptor.
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return s.flush()
}

func (s *Sink) flush() error {
	if err := layout.Write(s.dir, s.count, s.cols); err != nil {
		return err
	}
	for c, w := range s.ws {
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush column %d: %w", c+1, err)
		}
	}
	for c, f := range s.files {
		if err := mmap.Fdatasync(f); err != nil {
			return fmt.Errorf("fdatasync column %d: %w", c+1, err)
		}
	}
	return nil
}

// Close flushes and releases every column stream.  A closed sink must not
// be used again.  Closing a poisoned sink releases the streams without
// writing a descriptor: the on-disk columns are at inconsistent lengths,
// and advertising a count would be a lie.
func (s *Sink) Close() error {
	if alreadyClosed := s.closed.Swap(true); alreadyClosed {
		return nil
	}
	if s.err != nil {
		_ = s.closeFiles()
		return s.err
	}
	if err := s.flush(); err != nil {
		_ = s.closeFiles()
		return err
	}
	return s.closeFiles()
}

func (s *Sink) closeFiles() error {
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = nil
	s.ws = nil
	return firstErr
}
