// Copyright 2026 The largecol Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MetaPath resolves rel against the dataset's meta directory and returns
// the joined path.  Any rel that would land outside <dir>/meta, whether by
// an absolute path or by ".." traversal, is rejected with ErrPathEscape.
// The result is pure path arithmetic; nothing needs to exist yet.
func MetaPath(dir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscape, rel)
	}
	base := filepath.Join(dir, MetaDirName)
	joined := filepath.Join(base, rel)

	back, err := filepath.Rel(base, joined)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, rel)
	}
	if back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves to %s", ErrPathEscape, rel, joined)
	}
	return joined, nil
}
