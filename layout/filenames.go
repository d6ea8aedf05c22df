// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// BinaryFilename derives the flat file holding column i (1-based) of the
// dataset in dir.  Pure path arithmetic, no I/O.
func BinaryFilename(dir string, i int) string {
	return filepath.Join(dir, strconv.Itoa(i)+".bin")
}

// CheckFilesize verifies that column i's file is exactly count×width bytes,
// the only length consistent with the recorded record count.  It runs
// before an append-mode reopen to catch files truncated or grown between
// sessions; it deliberately says nothing about the bytes themselves.
func CheckFilesize(dir string, count int64, i int, width int) error {
	path := BinaryFilename(dir, i)
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	want := count * int64(width)
	if fi.Size() != want {
		return fmt.Errorf("%w: %s is %d bytes, want %d (%d records × %d bytes)",
			ErrSizeMismatch, path, fi.Size(), want, count, width)
	}
	return nil
}
