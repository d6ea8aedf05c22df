// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap wraps the platform memory-mapping primitives used to expose
// column files as dense in-memory arrays.
package mmap

import (
	"os"
)

type Options uint

const (
	// Writable maps the file read-write (otherwise read-only).
	Writable Options = 1 << 0

	// SequentialAccess hints aggressive read-ahead.  Incompatible with
	// RandomAccess.  Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 1

	// RandomAccess hints that read-ahead is less useful than usual.
	// Incompatible with SequentialAccess.  Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 2
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

// Map memory-maps the first size bytes of f.
func Map(f *os.File, size int, opt Options) ([]byte, error) {
	return mmap(f, size, opt)
}

// Unmap releases a mapping returned by Map.
func Unmap(b []byte) error {
	return munmap(b)
}

// Sync flushes dirty pages of a writable mapping to its backing file.
// Until it (or Unmap) returns, another process reading the file is not
// guaranteed to observe writes made through the mapping.
func Sync(b []byte) error {
	return msync(b)
}

// Fdatasync is the fastest fsync-like call that makes data written to f
// durable, skipping metadata (timestamps) where the platform allows.
//
// Errors from it are not recoverable: many kernels mark dirty pages clean
// even when the flush failed, so the only sensible handling is to treat the
// dataset as suspect.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
