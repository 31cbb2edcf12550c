package update

import (
	"errors"

	"github.com/Dav1dK/csync/pkg/pathhash"
	"github.com/Dav1dK/csync/pkg/vio"
)

// Database is the detector-facing view of the prior-sync state database.
// Lookups are read-only during a walk; writes are produced by downstream
// stages.
type Database interface {
	// Exists indicates whether or not this sync has been run before. When it
	// returns false, first-sync semantics apply and every entry is new.
	Exists() bool
	// ByHash returns the prior-sync record with the specified path hash, or
	// nil if there is none.
	ByHash(phash uint64) *Entry
	// ByInode returns the prior-sync record with the specified inode, or nil
	// if there is none.
	ByInode(inode uint64) *Entry
}

// Excluder is the walker-facing view of the exclusion filter. Paths are
// replica-relative without a leading separator.
type Excluder interface {
	// Excluded indicates whether or not the specified path is excluded from
	// synchronization.
	Excluded(path string) bool
}

// detect classifies a single entry against the prior-sync state and inserts
// the populated record into the active replica's tree.
func (u *Updater) detect(path string, stat *vio.FileStat, kind EntryKind) error {
	// Validate parameters. The path must be strictly below the replica root
	// so that relativization leaves a non-empty path.
	if path == "" || stat == nil {
		return &Error{Kind: ErrorKindInvalidParameter, Path: path, Cause: errors.New("missing path or stat")}
	}
	if len(path) <= len(u.replica.Root) {
		return &Error{Kind: ErrorKindInvalidParameter, Path: path}
	}

	// Strip the replica root plus one separator and hash the result.
	relative := path[len(u.replica.Root)+1:]
	phash := pathhash.Hash(relative)
	u.logger.Tracef("file: %s - hash %d", relative, phash)

	// Classify.
	instruction := InstructionNone
	if kind == EntryKindFile && stat.LinkCount > 1 {
		// Hardlinks are unsupported under this data model.
		instruction = InstructionIgnore
	} else if u.database == nil || !u.database.Exists() {
		// First-ever scan.
		instruction = InstructionNew
	} else if prior := u.database.ByHash(phash); prior != nil && prior.PathHash == phash {
		if stat.ModificationTime.After(prior.ModificationTime) {
			instruction = InstructionEval
		} else {
			instruction = InstructionNone
		}
	} else if u.replica.Side == SideLocal {
		// The path is unknown, so check whether the file was renamed. Only
		// the local replica exposes stable inodes.
		if prior := u.database.ByInode(stat.Inode); prior != nil && prior.Inode == stat.Inode {
			instruction = InstructionRename
		} else {
			instruction = InstructionNew
		}
	} else {
		instruction = InstructionNew
	}

	// Populate the record and insert it into the replica tree.
	entry := &Entry{
		Path:             relative,
		PathHash:         phash,
		Inode:            stat.Inode,
		Mode:             stat.Mode,
		Size:             stat.Size,
		ModificationTime: stat.ModificationTime,
		UID:              stat.UID,
		GID:              stat.GID,
		LinkCount:        stat.LinkCount,
		Kind:             kind,
		Instruction:      instruction,
	}
	if err := u.replica.Tree.Insert(entry); err != nil {
		return &Error{Kind: ErrorKindTree, Path: relative, Cause: err}
	}
	u.logger.Debugf("file: %s, instruction: %s", relative, instruction)

	// Update statistics.
	switch kind {
	case EntryKindFile:
		u.statistics.Files++
		u.statistics.TotalFileSize += stat.Size
	case EntryKindDirectory:
		u.statistics.Directories++
	case EntryKindSymbolicLink:
		u.statistics.SymbolicLinks++
	case EntryKindSpecial:
		u.statistics.Specials++
	}

	// Success.
	return nil
}
