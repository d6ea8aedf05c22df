// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package layout reads and writes the sidecar descriptor that makes a
// directory of flat column files a dataset: a magic marker, the record
// count, and the per-column type signature.  It also owns the naming and
// sizing rules for the column files themselves, and the sandboxed path
// resolver for companion metadata under <dir>/meta.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Magic is the version marker every descriptor starts with.  A
	// descriptor carrying anything else is an incompatible format.
	Magic = "LargeCol-0.1"

	// DescriptorName is the descriptor's filename within a dataset dir.
	DescriptorName = "layout.mpk"

	// MetaDirName is the subdirectory reserved for companion metadata.
	MetaDirName = "meta"
)

var (
	// ErrFormat reports a descriptor that is not a compatible largecol
	// layout: wrong magic, corrupted signature, or an element kind this
	// version doesn't understand.
	ErrFormat = errors.New("incompatible or corrupted layout descriptor")

	// ErrSizeMismatch reports a column file whose byte length disagrees
	// with the recorded record count.
	ErrSizeMismatch = errors.New("column file size disagrees with recorded count")

	// ErrPathEscape reports a metadata path that resolves outside the
	// dataset's meta directory.
	ErrPathEscape = errors.New("metadata path escapes the meta directory")
)

// Column describes one column of the signature: a stable kind tag plus the
// element's byte width.  The pair is compared structurally on open, so a
// descriptor written with a different column layout fails to read instead
// of being misinterpreted.
type Column struct {
	Tag   uint8 `msgpack:"tag"`
	Width uint8 `msgpack:"width"`
}

type descriptor struct {
	Magic   string   `msgpack:"magic"`
	Count   int64    `msgpack:"count"`
	Columns []Column `msgpack:"columns"`
	SigSum  uint64   `msgpack:"sigsum"`
}

// sigSum checksums the packed signature so that descriptor bit-rot is
// caught on read without touching any column data.
func sigSum(cols []Column) uint64 {
	packed := make([]byte, 0, 2*len(cols))
	for _, c := range cols {
		packed = append(packed, c.Tag, c.Width)
	}
	return farm.Hash64(packed)
}

func descriptorPath(dir string) string {
	return filepath.Join(dir, DescriptorName)
}

// requireDir fails fast if dir is absent or not a directory; every layout
// operation resolves paths under an existing dataset directory.
func requireDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	return nil
}

// Write creates or overwrites the dataset descriptor and ensures the meta
// subdirectory exists.  It is called whenever a dataset's shape becomes
// authoritative: store creation, and sink flush/close.
func Write(dir string, count int64, cols []Column) error {
	if err := requireDir(dir); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("negative record count %d", count)
	}
	if err := os.MkdirAll(filepath.Join(dir, MetaDirName), 0o755); err != nil {
		return fmt.Errorf("mkdir meta: %w", err)
	}

	d := descriptor{
		Magic:   Magic,
		Count:   count,
		Columns: cols,
		SigSum:  sigSum(cols),
	}
	data, err := msgpack.Marshal(&d)
	if err != nil {
		return fmt.Errorf("msgpack.Marshal: %w", err)
	}

	// Write-then-rename so a reader never observes a torn descriptor.
	tmp := descriptorPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, descriptorPath(dir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Read loads the descriptor for dir and returns the recorded count and
// column signature.  As a side effect it ensures the meta subdirectory
// exists, migrating datasets created before meta was introduced.
func Read(dir string) (count int64, cols []Column, err error) {
	if err := requireDir(dir); err != nil {
		return 0, nil, err
	}
	data, err := os.ReadFile(descriptorPath(dir))
	if err != nil {
		return 0, nil, fmt.Errorf("read descriptor: %w", err)
	}

	var d descriptor
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if d.Magic != Magic {
		return 0, nil, fmt.Errorf("%w: magic %q, want %q", ErrFormat, d.Magic, Magic)
	}
	if d.Count < 0 {
		return 0, nil, fmt.Errorf("%w: negative record count %d", ErrFormat, d.Count)
	}
	if len(d.Columns) == 0 {
		return 0, nil, fmt.Errorf("%w: empty column signature", ErrFormat)
	}
	if got := sigSum(d.Columns); got != d.SigSum {
		return 0, nil, fmt.Errorf("%w: signature checksum %x, want %x", ErrFormat, got, d.SigSum)
	}
	for i, c := range d.Columns {
		if c.Width == 0 {
			return 0, nil, fmt.Errorf("%w: column %d has zero width", ErrFormat, i+1)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, MetaDirName), 0o755); err != nil {
		return 0, nil, fmt.Errorf("mkdir meta: %w", err)
	}
	return d.Count, d.Columns, nil
}

// Exists reports whether dir carries a dataset descriptor.  It does not
// validate the descriptor; use Read for that.
func Exists(dir string) bool {
	fi, err := os.Stat(descriptorPath(dir))
	return err == nil && fi.Mode().IsRegular()
}
