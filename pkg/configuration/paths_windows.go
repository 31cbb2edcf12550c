//go:build windows

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultSourcePath returns the location of the shipped default configuration
// on Windows, which is installed next to the running executable.
func defaultSourcePath() (string, error) {
	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("unable to determine executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(executable), configurationFileName), nil
}
