// Package file implements the local filesystem side of an import run:
// non-recursive directory listings and sequential data file reads.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ListFiles returns the regular files directly inside dir, as full paths in
// lexical order. Subdirectories are not descended into; hidden files are
// skipped.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "" || name[0] == '.' {
			continue
		}
		if !e.Type().IsRegular() {
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			// Follow symlinks to regular files only.
			fi, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
