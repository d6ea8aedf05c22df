// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mmap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = Writable | RandomAccess
	if !o.Has(Writable) || o.Has(SequentialAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
}

func TestMapWriteSyncUnmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col.bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	const size = 4096
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	b, err := Map(f, size, Writable|RandomAccess)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(b) != size {
		t.Fatalf("len(mapping) = %d, wanted %d", len(b), size)
	}
	b[0] = 0x42
	b[size-1] = 0x24
	if err := Sync(b); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := Unmap(b); err != nil {
		t.Fatalf("Unmap: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if data[0] != 0x42 || data[size-1] != 0x24 {
		t.Fatalf("writes through the mapping did not reach the file")
	}

	if err := Fdatasync(f); err != nil {
		t.Fatalf("Fdatasync: %v", err)
	}
}
