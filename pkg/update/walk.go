// Package update implements the update-detection core: a recursive tree
// walker over the virtual I/O layer and the change-detection function that
// classifies each entry against the prior-sync state database. Its output is
// a per-replica in-memory tree of classified entries consumed by downstream
// reconciliation stages.
package update

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dav1dK/csync/pkg/logging"
	"github.com/Dav1dK/csync/pkg/vio"
)

// Flag communicates the walker's per-entry classification to the visitor.
type Flag uint8

const (
	// FlagFile indicates a regular file.
	FlagFile Flag = iota
	// FlagDirectory indicates a directory. The walker recurses into the
	// directory after the visitor returns, subject to the depth budget.
	FlagDirectory
	// FlagSymbolicLink indicates a symbolic link whose target resolves inside
	// the replica root.
	FlagSymbolicLink
	// FlagSpecial indicates a block device, character device, socket, or
	// fifo.
	FlagSpecial
	// FlagUnstatable indicates an entry that could not be fully statted.
	FlagUnstatable
	// FlagSkippedSymbolicLink indicates a symbolic link that is not
	// synchronized because its target is absolute or resolves outside the
	// replica root.
	FlagSkippedSymbolicLink
)

// String provides a human-readable representation of a walk flag.
func (f Flag) String() string {
	switch f {
	case FlagFile:
		return "file"
	case FlagDirectory:
		return "directory"
	case FlagSymbolicLink:
		return "symbolic link"
	case FlagSpecial:
		return "special"
	case FlagUnstatable:
		return "unstatable"
	case FlagSkippedSymbolicLink:
		return "skipped symbolic link"
	default:
		return "unknown"
	}
}

// VisitFunc is invoked by the walker for each non-excluded directory entry.
// The stat argument is nil when the flag is FlagUnstatable and the entry
// could not be statted at all. A non-nil error aborts the walk.
type VisitFunc func(path string, stat *vio.FileStat, flag Flag) error

// Options control optional updater behavior.
type Options struct {
	// SyncSymbolicLinks indicates whether or not in-root symbolic links are
	// dispatched to the detector.
	SyncSymbolicLinks bool
}

// Statistics summarizes the entries detected during an update pass.
type Statistics struct {
	// Directories is the number of directories detected.
	Directories uint64
	// Files is the number of regular files detected.
	Files uint64
	// SymbolicLinks is the number of symbolic links detected.
	SymbolicLinks uint64
	// Specials is the number of special files detected.
	Specials uint64
	// TotalFileSize is the total size of all regular files detected.
	TotalFileSize uint64
}

// Updater walks a single replica and records per-entry decisions into the
// replica's tree. It is not safe for concurrent usage.
type Updater struct {
	// replica is the replica being walked.
	replica *Replica
	// database is the prior-sync state database, which may be nil on a first
	// sync.
	database Database
	// excluder identifies excluded paths, and may be nil.
	excluder Excluder
	// logger is the updater's logger.
	logger *logging.Logger
	// syncSymbolicLinks indicates whether or not in-root symbolic links are
	// dispatched to the detector.
	syncSymbolicLinks bool
	// statistics accumulates detection counts for the current pass.
	statistics Statistics
}

// New creates an updater for the specified replica. The database and excluder
// may be nil, in which case first-sync semantics apply and no paths are
// excluded, respectively.
func New(replica *Replica, database Database, excluder Excluder, logger *logging.Logger, options *Options) *Updater {
	if options == nil {
		options = &Options{}
	}
	return &Updater{
		replica:           replica,
		database:          database,
		excluder:          excluder,
		logger:            logger,
		syncSymbolicLinks: options.SyncSymbolicLinks,
	}
}

// Run walks the replica root with the standard visitor and the specified
// depth budget, which callers are expected to bound by the configured maximum
// directory depth.
func (u *Updater) Run(depth uint) error {
	return u.Walk(u.replica.Root, u.Visit, depth)
}

// Statistics returns the detection counts accumulated by Run.
func (u *Updater) Statistics() Statistics {
	return u.statistics
}

// Walk recursively enumerates the directory at the specified URI, invoking
// the visitor for each non-excluded entry and recursing into subdirectories
// while the depth budget allows. Permission denial when opening a directory
// is silently skipped so that trees with unreadable subdirectories can still
// be synchronized.
func (u *Updater) Walk(uri string, visit VisitFunc, depth uint) error {
	// Validate parameters.
	if uri == "" {
		return &Error{Kind: ErrorKindInvalidParameter, Cause: errors.New("empty uri")}
	} else if visit == nil {
		return &Error{Kind: ErrorKindInvalidParameter, Cause: errors.New("nil visitor")}
	}

	// Open the directory. Directories the user can't read are skipped rather
	// than failing the whole walk.
	handle, err := u.replica.Backend.Opendir(uri)
	if err != nil {
		if os.IsPermission(err) {
			u.logger.Debugf("skipping unreadable directory %s", uri)
			return nil
		}
		u.logger.Errorf("opendir failed for %s: %v", uri, err)
		return &Error{Kind: ErrorKindOpendir, Path: uri, Cause: err}
	}
	defer handle.Close()

	// Enumerate entries.
	for {
		// Grab the next entry.
		dirent, err := handle.Readdir()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return &Error{Kind: ErrorKindReaddir, Path: uri, Cause: err}
		}
		name := dirent.Name
		if name == "" {
			return &Error{Kind: ErrorKindReaddir, Path: uri}
		}

		// Skip "." and "..".
		if name == "." || name == ".." {
			continue
		}

		// Compose the absolute entry path and its replica-relative form.
		path := filepath.Join(uri, name)
		if len(path) <= len(u.replica.Root) {
			return &Error{Kind: ErrorKindInvalidPath, Path: path}
		}
		relative := path[len(u.replica.Root)+1:]

		// Apply the exclude filter.
		if u.excluder != nil && u.excluder.Excluded(relative) {
			u.logger.Tracef("%s excluded", relative)
			continue
		}

		// Stat the entry and derive its flag. Stat failure is demoted to an
		// unstatable entry so that the rest of the directory can still be
		// processed.
		var flag Flag
		stat, err := u.replica.Backend.Stat(path)
		if err != nil {
			stat = nil
			flag = FlagUnstatable
		} else {
			flag, err = u.flagForStat(uri, stat)
			if err != nil {
				return err
			}
		}

		// Invoke the visitor.
		u.logger.Tracef("walk: %s", path)
		if err := visit(path, stat, flag); err != nil {
			var classified *Error
			if !errors.As(err, &classified) {
				err = &Error{Kind: ErrorKindVisitor, Path: path, Cause: err}
			}
			return err
		}

		// Recurse into directories while the depth budget allows.
		if flag == FlagDirectory && depth > 0 {
			if err := u.Walk(path, visit, depth-1); err != nil {
				return err
			}
		}
	}

	// Success.
	return nil
}

// flagForStat derives the walk flag for a statted entry. The uri argument is
// the entry's parent directory, against which relative symbolic link targets
// are resolved.
func (u *Updater) flagForStat(uri string, stat *vio.FileStat) (Flag, error) {
	switch stat.Type {
	case vio.FileTypeSymbolicLink:
		// A symbolic link whose target the backend couldn't report can't be
		// classified.
		if stat.Fields&vio.StatFieldSymbolicLinkTarget == 0 {
			return FlagUnstatable, nil
		}

		// Absolute targets are never synchronized.
		if u.replica.Backend.IsAbsolute(stat.SymbolicLinkTarget) {
			return FlagSkippedSymbolicLink, nil
		}

		// Resolve the relative target against the entry's directory and check
		// whether it stays inside the replica root.
		inRoot, err := u.isInRoot(filepath.Join(uri, stat.SymbolicLinkTarget))
		if err != nil {
			return 0, &Error{Kind: ErrorKindUnknown, Path: uri, Cause: err}
		}
		if inRoot {
			return FlagSymbolicLink, nil
		}
		return FlagSkippedSymbolicLink, nil
	case vio.FileTypeDirectory:
		return FlagDirectory, nil
	case vio.FileTypeBlockDevice, vio.FileTypeCharacterDevice, vio.FileTypeSocket, vio.FileTypeFIFO:
		return FlagSpecial, nil
	default:
		return FlagFile, nil
	}
}

// isInRoot indicates whether or not the canonical form of the specified URI
// is equal to or lexically rooted at the active replica's canonical root.
// It guards symbolic links from escaping the sync root.
func (u *Updater) isInRoot(uri string) (bool, error) {
	// Canonicalize the root. Remote roots are absolute by construction, but a
	// local root may have been specified relative to the working directory.
	root := u.replica.Root
	if u.replica.Side == SideLocal && !u.replica.Backend.IsAbsolute(root) {
		absolute, err := filepath.Abs(root)
		if err != nil {
			return false, err
		}
		root = absolute
	}
	root = filepath.Clean(root)

	// Canonicalize the candidate the same way and compare.
	candidate := uri
	if u.replica.Side == SideLocal && !u.replica.Backend.IsAbsolute(candidate) {
		absolute, err := filepath.Abs(candidate)
		if err != nil {
			return false, err
		}
		candidate = absolute
	}
	candidate = filepath.Clean(candidate)
	return candidate == root || strings.HasPrefix(candidate, root+string(filepath.Separator)), nil
}

// Visit is the standard walk visitor. It dispatches regular and special files
// to the detector, symbolic links only when symbolic link synchronization is
// enabled, and directories always. Unstatable and skipped entries are
// dropped.
func (u *Updater) Visit(path string, stat *vio.FileStat, flag Flag) error {
	switch flag {
	case FlagFile:
		u.logger.Tracef("file: %s", path)
		return u.detect(path, stat, EntryKindFile)
	case FlagSpecial:
		u.logger.Tracef("special: %s", path)
		return u.detect(path, stat, EntryKindSpecial)
	case FlagSymbolicLink:
		if u.syncSymbolicLinks {
			u.logger.Tracef("symlink: %s", path)
			return u.detect(path, stat, EntryKindSymbolicLink)
		}
		return nil
	case FlagDirectory:
		u.logger.Tracef("directory: %s", path)
		return u.detect(path, stat, EntryKindDirectory)
	default:
		return nil
	}
}
