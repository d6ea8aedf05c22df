// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package largecol stores fixed-width record tuples column-major on disk,
// one flat binary file per column, so that any single column can be
// memory-mapped and accessed as a dense array without touching the others.
//
// A dataset is a directory:
//
//	<dir>/
//	├── layout.mpk   descriptor: magic, record count, column signature
//	├── meta/        free-form companion metadata, never interpreted here
//	├── 1.bin        column 1: N × width(T1) bytes, raw fixed-width values
//	├── 2.bin        column 2: N × width(T2) bytes
//	└── ...
//
// Two access modes are provided. A Store memory-maps an existing (or freshly
// created, fixed-size) dataset and reads/writes arbitrary records by 1-based
// index. A Sink appends records one at a time when the final count is not
// known up front, and persists the authoritative count when flushed or
// closed.
//
// The descriptor is only written when a dataset's shape becomes
// authoritative: at Store creation, and at Sink Flush/Close. A Sink that is
// opened and abandoned leaves no valid descriptor, so a reader can treat
// "descriptor present and consistent" as proof that no writer died
// mid-session. There is no journal: records appended after the last Flush
// are lost if the process crashes, and a failed write part-way through a
// tuple leaves that Sink unusable.
//
// Values are stored in the host's native byte order. The format is not
// portable across platforms that disagree on endianness.
package largecol
