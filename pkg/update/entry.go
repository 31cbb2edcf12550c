package update

import (
	"fmt"
	"time"
)

// EntryKind identifies the synchronizable nature of a detected entry.
type EntryKind uint8

const (
	// EntryKindFile indicates a regular file.
	EntryKindFile EntryKind = iota
	// EntryKindDirectory indicates a directory.
	EntryKindDirectory
	// EntryKindSymbolicLink indicates a symbolic link.
	EntryKindSymbolicLink
	// EntryKindSpecial indicates a block device, character device, socket, or
	// fifo.
	EntryKindSpecial
)

// String provides a human-readable representation of an entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryKindFile:
		return "file"
	case EntryKindDirectory:
		return "directory"
	case EntryKindSymbolicLink:
		return "symbolic link"
	case EntryKindSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (k EntryKind) MarshalText() ([]byte, error) {
	var result string
	switch k {
	case EntryKindFile:
		result = "file"
	case EntryKindDirectory:
		result = "directory"
	case EntryKindSymbolicLink:
		result = "symlink"
	case EntryKindSpecial:
		result = "special"
	default:
		return nil, fmt.Errorf("invalid entry kind: %d", k)
	}
	return []byte(result), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (k *EntryKind) UnmarshalText(textBytes []byte) error {
	// Convert the bytes to a string.
	text := string(textBytes)

	// Convert to an entry kind.
	switch text {
	case "file":
		*k = EntryKindFile
	case "directory":
		*k = EntryKindDirectory
	case "symlink":
		*k = EntryKindSymbolicLink
	case "special":
		*k = EntryKindSpecial
	default:
		return fmt.Errorf("unknown entry kind specification: %s", text)
	}

	// Success.
	return nil
}

// Instruction is the detector's classification of an entry relative to the
// prior-sync state. The detector itself only produces None, Eval, Rename,
// New, and Ignore; the remaining values are reserved for downstream
// reconciliation stages, which rely on this set being closed.
type Instruction uint8

const (
	// InstructionNone indicates that the entry is unchanged.
	InstructionNone Instruction = iota
	// InstructionEval indicates a potential content change that downstream
	// stages must evaluate.
	InstructionEval
	// InstructionRename indicates that the entry was likely renamed on the
	// local replica.
	InstructionRename
	// InstructionNew indicates an entry with no prior-sync state.
	InstructionNew
	// InstructionIgnore indicates an entry excluded from synchronization.
	InstructionIgnore
	// InstructionRemove indicates an entry scheduled for removal.
	InstructionRemove
	// InstructionConflict indicates an entry with conflicting changes.
	InstructionConflict
	// InstructionError indicates an entry in an erroneous state.
	InstructionError
)

// String provides a human-readable representation of an instruction.
func (i Instruction) String() string {
	switch i {
	case InstructionNone:
		return "NONE"
	case InstructionEval:
		return "EVAL"
	case InstructionRename:
		return "RENAME"
	case InstructionNew:
		return "NEW"
	case InstructionIgnore:
		return "IGNORE"
	case InstructionRemove:
		return "REMOVE"
	case InstructionConflict:
		return "CONFLICT"
	case InstructionError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry is the detector's record for a single filesystem entry. Entries are
// owned by the replica tree into which they were inserted and are consumed
// read-only by downstream stages.
type Entry struct {
	// Path is the replica-relative path of the entry, without a leading
	// separator.
	Path string
	// PathHash is the 64-bit hash of Path. It is always equal to
	// pathhash.Hash(Path).
	PathHash uint64
	// Inode is the entry's inode number, when the backend exposes stable
	// inodes.
	Inode uint64
	// Mode is the entry's raw mode.
	Mode uint32
	// Size is the entry's size in bytes.
	Size uint64
	// ModificationTime is the entry's modification time.
	ModificationTime time.Time
	// UID is the entry's owning user ID.
	UID uint32
	// GID is the entry's owning group ID.
	GID uint32
	// LinkCount is the entry's hardlink count.
	LinkCount uint32
	// Kind is the entry's synchronizable nature.
	Kind EntryKind
	// Instruction is the detector's classification of the entry.
	Instruction Instruction
}
