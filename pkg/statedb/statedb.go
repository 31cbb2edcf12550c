// Package statedb provides the prior-sync state database consumed by the
// update detector. The database is an in-memory index over sync records,
// keyed by path hash and by inode, that can be loaded from and saved to a
// YAML snapshot on disk.
package statedb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dav1dK/csync/pkg/logging"
	"github.com/Dav1dK/csync/pkg/pathhash"
	"github.com/Dav1dK/csync/pkg/update"
)

// snapshotFileName is the base name of the on-disk snapshot.
const snapshotFileName = "csync_statedb.yaml"

// Path returns the default location of the state database snapshot inside
// the user's configuration directory.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user configuration directory: %w", err)
	}
	return filepath.Join(base, "csync", snapshotFileName), nil
}

// record is the on-disk YAML form of a sync record. The path hash is not
// persisted; it is recomputed on load so that the database and the detector
// always agree on the hashing primitive.
type record struct {
	// Path is the replica-relative path.
	Path string `yaml:"path"`
	// Inode is the recorded inode number.
	Inode uint64 `yaml:"inode"`
	// Mode is the recorded raw mode.
	Mode uint32 `yaml:"mode"`
	// Size is the recorded size in bytes.
	Size uint64 `yaml:"size"`
	// ModificationTime is the recorded modification time.
	ModificationTime time.Time `yaml:"modtime"`
	// UID is the recorded owning user ID.
	UID uint32 `yaml:"uid"`
	// GID is the recorded owning group ID.
	GID uint32 `yaml:"gid"`
	// LinkCount is the recorded hardlink count.
	LinkCount uint32 `yaml:"nlink"`
	// Kind is the recorded entry kind.
	Kind string `yaml:"type"`
}

// snapshot is the on-disk YAML form of the database.
type snapshot struct {
	// Entries are the recorded sync records.
	Entries []*record `yaml:"entries"`
}

// Database is the concrete state database. It implements update.Database. It
// is read-only during a walk and not safe for concurrent mutation.
type Database struct {
	// logger is the database's logger.
	logger *logging.Logger
	// populated indicates whether or not this database holds state from a
	// prior sync, i.e. whether the sync has been run before.
	populated bool
	// entries holds the records in their recorded order.
	entries []*update.Entry
	// byHash indexes records by path hash.
	byHash map[uint64]*update.Entry
	// byInode indexes records by inode.
	byInode map[uint64]*update.Entry
}

// empty creates an unpopulated database.
func empty(logger *logging.Logger) *Database {
	return &Database{
		logger:  logger,
		byHash:  make(map[uint64]*update.Entry),
		byInode: make(map[uint64]*update.Entry),
	}
}

// Open loads the database snapshot at the specified path. A missing snapshot
// yields an unpopulated database, which is how a first sync is recognized.
func Open(path string, logger *logging.Logger) (*Database, error) {
	// Start from an unpopulated database.
	result := empty(logger)

	// Grab the snapshot contents, treating absence as a first sync.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("no state database at %s, assuming first sync", path)
			return result, nil
		}
		return nil, fmt.Errorf("unable to load state database: %w", err)
	}

	// Decode.
	var contents snapshot
	if err := yaml.Unmarshal(data, &contents); err != nil {
		return nil, fmt.Errorf("unable to decode state database: %w", err)
	}

	// Index the records. A snapshot that exists but holds no records still
	// marks the sync as having run before.
	for _, r := range contents.Entries {
		var kind update.EntryKind
		if err := kind.UnmarshalText([]byte(r.Kind)); err != nil {
			return nil, fmt.Errorf("unable to decode state database record for %s: %w", r.Path, err)
		}
		result.index(&update.Entry{
			Path:             r.Path,
			PathHash:         pathhash.Hash(r.Path),
			Inode:            r.Inode,
			Mode:             r.Mode,
			Size:             r.Size,
			ModificationTime: r.ModificationTime,
			UID:              r.UID,
			GID:              r.GID,
			LinkCount:        r.LinkCount,
			Kind:             kind,
		})
	}
	result.populated = true
	logger.Debugf("loaded state database with %d records from %s", len(result.entries), path)

	// Success.
	return result, nil
}

// index adds a record to the database's indices.
func (d *Database) index(entry *update.Entry) {
	d.entries = append(d.entries, entry)
	d.byHash[entry.PathHash] = entry
	d.byInode[entry.Inode] = entry
}

// Exists implements update.Database.Exists.
func (d *Database) Exists() bool {
	return d != nil && d.populated
}

// ByHash implements update.Database.ByHash.
func (d *Database) ByHash(phash uint64) *update.Entry {
	return d.byHash[phash]
}

// ByInode implements update.Database.ByInode.
func (d *Database) ByInode(inode uint64) *update.Entry {
	return d.byInode[inode]
}

// Commit replaces the database contents with the entries of a completed
// walk, marking the database as populated. Instructions are reset on the
// recorded copies, and ignored entries are not recorded since they are
// excluded from synchronization.
func (d *Database) Commit(tree *update.Tree) {
	d.entries = nil
	d.byHash = make(map[uint64]*update.Entry)
	d.byInode = make(map[uint64]*update.Entry)
	tree.Walk(func(entry *update.Entry) bool {
		if entry.Instruction == update.InstructionIgnore {
			return true
		}
		recorded := *entry
		recorded.Instruction = update.InstructionNone
		d.index(&recorded)
		return true
	})
	d.populated = true
}

// Save writes the database to a snapshot at the specified path. The write is
// atomic, using an intermediate temporary file swapped into place with a
// rename.
func (d *Database) Save(path string) error {
	// Convert records to their on-disk form.
	contents := snapshot{Entries: make([]*record, 0, len(d.entries))}
	for _, entry := range d.entries {
		kind, err := entry.Kind.MarshalText()
		if err != nil {
			return fmt.Errorf("unable to encode state database record for %s: %w", entry.Path, err)
		}
		contents.Entries = append(contents.Entries, &record{
			Path:             entry.Path,
			Inode:            entry.Inode,
			Mode:             entry.Mode,
			Size:             entry.Size,
			ModificationTime: entry.ModificationTime,
			UID:              entry.UID,
			GID:              entry.GID,
			LinkCount:        entry.LinkCount,
			Kind:             string(kind),
		})
	}

	// Encode.
	data, err := yaml.Marshal(&contents)
	if err != nil {
		return fmt.Errorf("unable to encode state database: %w", err)
	}

	// Write the snapshot atomically with owner-only permissions.
	if err := writeFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("unable to write state database: %w", err)
	}
	d.logger.Debugf("saved state database with %d records to %s", len(d.entries), path)

	// Success.
	return nil
}
