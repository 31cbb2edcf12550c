// Package exclude provides the exclusion filter applied by the walker to
// replica-relative paths. Patterns use doublestar glob syntax and are matched
// against both the full relative path and its base name.
package exclude

import (
	"fmt"
	pathpkg "path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Dav1dK/csync/pkg/logging"
)

// DefaultPatterns is the exclusion list shipped with csync. It covers the
// probe and journal artifacts that csync itself creates.
var DefaultPatterns = []string{
	"*.ctmp",
	".csync_journal.db*",
}

// Filter is an ordered list of exclusion patterns. A nil *Filter excludes
// nothing.
type Filter struct {
	// patterns are the exclusion patterns.
	patterns []string
	// logger is the filter's logger.
	logger *logging.Logger
}

// NewFilter creates a filter from the specified patterns, validating their
// syntax.
func NewFilter(patterns []string, logger *logging.Logger) (*Filter, error) {
	// Verify that patterns are valid doublestar patterns.
	for _, pattern := range patterns {
		if _, err := doublestar.Match(pattern, "a"); err != nil {
			return nil, fmt.Errorf("unable to parse exclude pattern (%s): %w", pattern, err)
		}
	}

	// Create the filter.
	return &Filter{patterns: patterns, logger: logger}, nil
}

// Excluded indicates whether or not the specified replica-relative path
// matches an exclusion pattern. The path must not have a leading separator.
func (f *Filter) Excluded(path string) bool {
	// A nil filter excludes nothing.
	if f == nil {
		return false
	}

	// Check patterns against the whole path and its base name. Any error here
	// is a non-match, since patterns were validated at construction.
	for _, pattern := range f.patterns {
		if match, _ := doublestar.Match(pattern, path); match {
			f.logger.Tracef("%s excluded by %s", path, pattern)
			return true
		}
		if match, _ := doublestar.Match(pattern, pathpkg.Base(path)); match {
			f.logger.Tracef("%s excluded by %s (basename)", path, pattern)
			return true
		}
	}
	return false
}
