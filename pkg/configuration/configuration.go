// Package configuration provides loading and parsing of csync's line-oriented
// configuration file, whose keys tune traversal depth, the acceptable clock
// skew between replicas, and conflict-copy behavior.
package configuration

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dav1dK/csync/pkg/logging"
)

const (
	// DefaultMaximumDirectoryDepth is the default bound on traversal
	// recursion depth.
	DefaultMaximumDirectoryDepth = 50
	// DefaultMaximumTimeDifference is the default bound on replica clock
	// skew, in seconds.
	DefaultMaximumTimeDifference = 10
)

// Configuration holds the tunables read from the configuration file.
type Configuration struct {
	// MaximumDirectoryDepth bounds traversal recursion depth.
	MaximumDirectoryDepth uint
	// MaximumTimeDifference bounds the acceptable clock skew between
	// replicas, in seconds.
	MaximumTimeDifference uint
	// WithConflictCopies indicates whether or not conflict copies are created
	// during propagation.
	WithConflictCopies bool
}

// Default creates a configuration holding the default tunables.
func Default() *Configuration {
	return &Configuration{
		MaximumDirectoryDepth: DefaultMaximumDirectoryDepth,
		MaximumTimeDifference: DefaultMaximumTimeDifference,
	}
}

// Load reads the configuration file at the specified path. If the file does
// not exist, the shipped default configuration is first installed in its
// place, and failure to do so is fatal. An existing file that can't be opened
// is not fatal: the default tunables are returned. Individual malformed lines
// and unknown keys are skipped.
func Load(path string, logger *logging.Logger) (*Configuration, error) {
	// Install the shipped default configuration if none exists yet.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		source, err := defaultSourcePath()
		if err != nil {
			return nil, fmt.Errorf("unable to locate default configuration: %w", err)
		}
		logger.Tracef("copying %s to %s", source, path)
		if err := install(source, path); err != nil {
			return nil, fmt.Errorf("unable to install default configuration: %w", err)
		}
	}

	// Start from defaults.
	result := Default()

	// Open the file. Inability to open an existing configuration leaves the
	// tunables at their defaults.
	file, err := os.Open(path)
	if err != nil {
		logger.Warnf("unable to open configuration at %s: %v", path, err)
		return result, nil
	}
	defer file.Close()
	logger.Debugf("reading configuration data from %s", path)

	// Process lines. A scan failure mid-file keeps whatever was parsed up to
	// that point.
	scanner := bufio.NewScanner(file)
	var number uint
	for scanner.Scan() {
		number++
		result.applyLine(scanner.Text(), number, logger)
	}
	if err := scanner.Err(); err != nil {
		logger.Warnf("unable to read configuration at %s: %v", path, err)
	}

	// Success.
	return result, nil
}

// install copies the shipped default configuration into place.
func install(source, target string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("unable to read default configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return fmt.Errorf("unable to create configuration directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

// trimBlanks removes leading and trailing blanks (spaces and tabs) from a
// string, along with any carriage return left over from CRLF line endings.
func trimBlanks(s string) string {
	return strings.Trim(s, " \t\r")
}

// applyLine parses a single configuration line and applies any recognized
// assignment to the configuration.
func (c *Configuration) applyLine(line string, number uint, logger *logging.Logger) {
	// Skip comment lines.
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
		return
	}

	// Split on the first '='. Lines without one are skipped. The value is
	// exactly the bytes after the first '=' up to end of line, trimmed.
	index := strings.IndexByte(line, '=')
	if index < 0 {
		return
	}
	key := trimBlanks(line[:index])
	value := trimBlanks(line[index+1:])
	if key == "" {
		return
	}

	// Apply the assignment. Out-of-range values are skipped.
	switch strings.ToLower(key) {
	case "max_depth":
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			c.MaximumDirectoryDepth = uint(parsed)
		}
	case "with_confilct_copies", "with_conflict_copies":
		// The first spelling is the historical keyword, accepted as spelled
		// for backward compatibility. Anything other than yes enables
		// nothing.
		c.WithConflictCopies = strings.EqualFold(value, "yes")
	case "max_time_difference":
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			c.MaximumTimeDifference = uint(parsed)
		}
	default:
		logger.Debugf("unsupported option: %s, line: %d", key, number)
	}
}
