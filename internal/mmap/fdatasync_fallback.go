// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !linux

package mmap

import "os"

func fdatasync(f *os.File) error {
	return f.Sync()
}
