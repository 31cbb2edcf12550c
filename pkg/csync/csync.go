// Package csync provides the synchronization context that owns the two
// replicas, the prior-sync state database, and the configured tunables, and
// that drives the update-detection phase over both replicas. The resulting
// replica trees are consumed by downstream reconciliation stages.
package csync

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dav1dK/csync/pkg/configuration"
	"github.com/Dav1dK/csync/pkg/logging"
	"github.com/Dav1dK/csync/pkg/timediff"
	"github.com/Dav1dK/csync/pkg/update"
	"github.com/Dav1dK/csync/pkg/vio"
	"github.com/Dav1dK/csync/pkg/vio/local"
)

// Options control optional context behavior.
type Options struct {
	// LocalBackend services I/O for the local replica. The local filesystem
	// backend is used if unset.
	LocalBackend vio.Backend
	// RemoteBackend services I/O for the remote replica. The local
	// filesystem backend is used if unset, which supports local-to-local
	// synchronization.
	RemoteBackend vio.Backend
	// Database is the prior-sync state database. First-sync semantics apply
	// if unset.
	Database update.Database
	// Excludes identifies excluded paths. No paths are excluded if unset.
	Excludes update.Excluder
	// Configuration provides the initial tunables. Defaults are used if
	// unset.
	Configuration *configuration.Configuration
	// SyncSymbolicLinks indicates whether or not in-root symbolic links are
	// synchronized.
	SyncSymbolicLinks bool
	// Logger is the context's logger. The root logger is used if unset.
	Logger *logging.Logger
}

// Context is the process-wide synchronization state for one sync invocation.
// It is not safe for concurrent usage and must not be reused across sync
// runs.
type Context struct {
	// identifier uniquely identifies this sync run in logs.
	identifier string
	// local is the local replica.
	local *update.Replica
	// remote is the remote replica.
	remote *update.Replica
	// database is the prior-sync state database.
	database update.Database
	// excludes identifies excluded paths.
	excludes update.Excluder
	// maximumDirectoryDepth bounds traversal recursion depth.
	maximumDirectoryDepth uint
	// maximumTimeDifference bounds the acceptable replica clock skew, in
	// seconds.
	maximumTimeDifference uint
	// withConflictCopies indicates whether or not conflict copies are
	// created during propagation.
	withConflictCopies bool
	// syncSymbolicLinks indicates whether or not in-root symbolic links are
	// synchronized.
	syncSymbolicLinks bool
	// logger is the context's logger.
	logger *logging.Logger
	// status is the status of the most recent operation.
	status Status
	// localStatistics are the detection statistics for the local replica.
	localStatistics update.Statistics
	// remoteStatistics are the detection statistics for the remote replica.
	remoteStatistics update.Statistics
}

// New creates a context for synchronizing the specified replica roots. The
// remote root must be absolute in its backend's path syntax.
func New(localRoot, remoteRoot string, options *Options) (*Context, error) {
	// Validate roots.
	if localRoot == "" || remoteRoot == "" {
		return nil, errors.New("replica roots must be non-empty")
	}

	// Fill in default options.
	if options == nil {
		options = &Options{}
	}
	localBackend := options.LocalBackend
	if localBackend == nil {
		localBackend = local.New()
	}
	remoteBackend := options.RemoteBackend
	if remoteBackend == nil {
		remoteBackend = local.New()
	}
	if !remoteBackend.IsAbsolute(remoteRoot) {
		return nil, errors.New("remote replica root must be absolute")
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.RootLogger
	}

	// Generate a run identifier.
	identifier, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("unable to generate run identifier: %w", err)
	}

	// Create the context.
	result := &Context{
		identifier: identifier.String(),
		local:      update.NewReplica(update.SideLocal, localRoot, localBackend),
		remote:     update.NewReplica(update.SideRemote, remoteRoot, remoteBackend),
		database:   options.Database,
		excludes:   options.Excludes,
		maximumDirectoryDepth: configuration.DefaultMaximumDirectoryDepth,
		maximumTimeDifference: configuration.DefaultMaximumTimeDifference,
		syncSymbolicLinks:     options.SyncSymbolicLinks,
		logger:                logger,
	}

	// Apply configured tunables.
	if options.Configuration != nil {
		result.SetMaximumDirectoryDepth(options.Configuration.MaximumDirectoryDepth)
		result.SetMaximumTimeDifference(options.Configuration.MaximumTimeDifference)
		result.SetConflictCopies(options.Configuration.WithConflictCopies)
	}

	// Success.
	return result, nil
}

// Identifier returns the context's run identifier.
func (c *Context) Identifier() string {
	return c.identifier
}

// Local returns the local replica. Its tree is valid after a successful
// Update and is consumed read-only by downstream stages.
func (c *Context) Local() *update.Replica {
	return c.local
}

// Remote returns the remote replica. Its tree is valid after a successful
// Update and is consumed read-only by downstream stages.
func (c *Context) Remote() *update.Replica {
	return c.remote
}

// Status returns the status of the most recent operation.
func (c *Context) Status() Status {
	return c.status
}

// LocalStatistics returns the local replica's detection statistics for the
// most recent update pass.
func (c *Context) LocalStatistics() update.Statistics {
	return c.localStatistics
}

// RemoteStatistics returns the remote replica's detection statistics for the
// most recent update pass.
func (c *Context) RemoteStatistics() update.Statistics {
	return c.remoteStatistics
}

// SetMaximumDirectoryDepth adjusts the bound on traversal recursion depth.
func (c *Context) SetMaximumDirectoryDepth(depth uint) {
	c.maximumDirectoryDepth = depth
}

// SetMaximumTimeDifference adjusts the bound on acceptable replica clock
// skew, in seconds.
func (c *Context) SetMaximumTimeDifference(seconds uint) {
	c.maximumTimeDifference = seconds
}

// SetConflictCopies adjusts whether or not conflict copies are created
// during propagation.
func (c *Context) SetConflictCopies(enabled bool) {
	c.withConflictCopies = enabled
}

// ConflictCopies indicates whether or not conflict copies are created during
// propagation.
func (c *Context) ConflictCopies() bool {
	return c.withConflictCopies
}

// Update runs the update-detection phase: it verifies that the replica
// clocks are close enough to permit synchronization and then walks both
// replicas, populating their trees with classified entries.
func (c *Context) Update() error {
	c.logger.Debugf("starting update run %s", c.identifier)
	c.status = StatusOK

	// Measure the clock skew between the replicas and refuse to synchronize
	// if it exceeds the configured maximum.
	difference, err := timediff.Measure(c.local.Root, c.local.Backend, c.remote.Backend, c.logger.Sublogger("time"))
	if err != nil {
		c.status = StatusTimeSkewError
		return fmt.Errorf("unable to measure replica time difference: %w", err)
	}
	if difference > time.Duration(c.maximumTimeDifference)*time.Second {
		c.status = StatusTimeSkewError
		return fmt.Errorf("time difference between replicas (%v) exceeds the configured maximum (%ds)",
			difference, c.maximumTimeDifference)
	}

	// Walk each replica in turn.
	for _, replica := range []*update.Replica{c.local, c.remote} {
		replica.Reset()
		updater := update.New(replica, c.database, c.excludes, c.logger.Sublogger("updater"), &update.Options{
			SyncSymbolicLinks: c.syncSymbolicLinks,
		})
		if err := updater.Run(c.maximumDirectoryDepth); err != nil {
			c.status = statusForError(err)
			return fmt.Errorf("unable to update %s replica: %w", replica.Side, err)
		}
		if replica.Side == update.SideLocal {
			c.localStatistics = updater.Statistics()
		} else {
			c.remoteStatistics = updater.Statistics()
		}
	}

	// Success.
	return nil
}
