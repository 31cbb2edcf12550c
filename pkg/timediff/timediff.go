// Package timediff implements the time-difference probe that bounds clock
// skew between replicas before synchronization is permitted. The probe
// creates a zero-byte temporary file on each replica and compares their
// modification times.
package timediff

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Dav1dK/csync/pkg/logging"
	"github.com/Dav1dK/csync/pkg/vio"
)

// probeFileName is the name of the temporary probe file created under the
// local replica root.
const probeFileName = "csync_timediff.ctmp"

// Measure returns the absolute difference between the replica clocks. It
// creates the probe file at the same URI on both replicas, stats each, and
// removes both temporaries on all exit paths, including errors. The caller
// compares the result against the configured maximum time difference and
// refuses synchronization when it is exceeded.
func Measure(localRoot string, local, remote vio.Backend, logger *logging.Logger) (time.Duration, error) {
	// Compose the probe URI under the local replica root.
	uri := filepath.Join(localRoot, probeFileName)

	// Both temporaries are removed unconditionally. Removal failures are
	// irrelevant here: either the file was never created, or a later sync
	// will exclude it anyway.
	defer func() {
		local.Unlink(uri)
		remote.Unlink(uri)
	}()

	// Probe the local replica.
	localTime, err := probe(local, uri)
	if err != nil {
		logger.Errorf("synchronization is not possible: %v", err)
		return 0, fmt.Errorf("unable to probe local replica: %w", err)
	}

	// Probe the remote replica.
	remoteTime, err := probe(remote, uri)
	if err != nil {
		logger.Errorf("synchronization is not possible: %v", err)
		return 0, fmt.Errorf("unable to probe remote replica: %w", err)
	}

	// Compute the absolute difference.
	difference := localTime.Sub(remoteTime)
	if difference < 0 {
		difference = -difference
	}
	logger.Debugf("time difference: %v", difference)

	// Success.
	return difference, nil
}

// probe creates a zero-byte temporary file through the specified backend and
// returns its modification time.
func probe(backend vio.Backend, uri string) (time.Time, error) {
	handle, err := backend.Creat(uri, 0644)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to create temporary file %s: %w", uri, err)
	}
	if err := handle.Close(); err != nil {
		return time.Time{}, fmt.Errorf("unable to close temporary file %s: %w", uri, err)
	}
	stat, err := backend.Stat(uri)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to stat temporary file %s: %w", uri, err)
	}
	return stat.ModificationTime, nil
}
