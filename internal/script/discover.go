package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns are the patterns Discover uses when none are given.
var DefaultPatterns = []string{"**/*.toml", "**/*.yaml", "**/*.yml"}

// Discover expands doublestar patterns relative to root and returns the
// matching files, deduplicated and sorted. Absolute patterns are matched
// against the filesystem as-is. With no patterns, DefaultPatterns are used.
func Discover(root string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}

		var matches []string
		if filepath.IsAbs(pattern) {
			found, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", pattern, err)
			}
			matches = found
		} else {
			found, err := doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", pattern, err)
			}
			for _, m := range found {
				matches = append(matches, filepath.Join(root, filepath.FromSlash(m)))
			}
		}

		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}
