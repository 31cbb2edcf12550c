package configuration

import (
	"fmt"
	"os"
	"path/filepath"
)

// configurationFileName is the base name of the configuration file.
const configurationFileName = "csync.conf"

// Path returns the expected location of the user's configuration file inside
// the user's configuration directory.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user configuration directory: %w", err)
	}
	return filepath.Join(base, "csync", configurationFileName), nil
}
