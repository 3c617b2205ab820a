package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Matcher decides which file names are pages.
type Matcher interface {
	IsPage(name string) bool
}

// FindPages walks root depth-first in directory-listing order and returns every
// file the matcher accepts. Returned paths are joined onto root.
func FindPages(root string, m Matcher) ([]string, error) {
	var found []string
	if err := findPages(root, m, &found); err != nil {
		return nil, err
	}
	return found, nil
}

func findPages(dir string, m Matcher, found *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		// Stat, not the dir entry type: symlinked directories are descended.
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("stat entry: %w", err)
		}

		if info.IsDir() {
			if err := findPages(full, m, found); err != nil {
				return err
			}
			continue
		}
		if m.IsPage(entry.Name()) {
			*found = append(*found, full)
		}
	}
	return nil
}

// Outside drops the paths that lie inside dir. Read-only callers use it to
// ignore a previous output tree that the build itself would have removed.
func Outside(paths []string, dir string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !within(dir, p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
