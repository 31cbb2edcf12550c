//go:build !windows

package configuration

import (
	"path/filepath"
)

// defaultSourcePath returns the location of the shipped default configuration
// on POSIX systems.
func defaultSourcePath() (string, error) {
	return filepath.Join("/etc", "csync", configurationFileName), nil
}
