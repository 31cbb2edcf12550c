// Package viotest provides an in-memory vio.Backend implementation for
// exercising walker, detector, and probe logic without touching the real
// filesystem. It supports controllable modification times, inode numbers, and
// failure injection.
package viotest

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Dav1dK/csync/pkg/vio"
)

// regularFields is the field set recorded for regular in-memory entries.
const regularFields = vio.StatFieldType | vio.StatFieldMode | vio.StatFieldSize |
	vio.StatFieldModificationTime | vio.StatFieldOwnership |
	vio.StatFieldInode | vio.StatFieldLinkCount

// Backend is an in-memory vio.Backend. It is not safe for concurrent usage.
type Backend struct {
	// CreateTime is the modification time assigned to files created through
	// Creat. It stands in for the backend's filesystem clock in
	// time-difference tests.
	CreateTime time.Time
	// files maps URIs to their stat records.
	files map[string]*vio.FileStat
	// children maps directory URIs to their sorted child names.
	children map[string][]string
	// denied is the set of directory URIs for which Opendir reports a
	// permission error.
	denied map[string]bool
	// statFailures maps URIs to injected Stat errors.
	statFailures map[string]error
	// creatFailures maps URIs to injected Creat errors.
	creatFailures map[string]error
	// nextInode is the next inode number assigned to files created through
	// Creat. It starts high to stay clear of test-chosen inode numbers.
	nextInode uint64
}

// New creates an in-memory backend with a single directory at the specified
// root URI.
func New(root string) *Backend {
	backend := &Backend{
		files:         make(map[string]*vio.FileStat),
		children:      make(map[string][]string),
		denied:        make(map[string]bool),
		statFailures:  make(map[string]error),
		creatFailures: make(map[string]error),
		nextInode:     1 << 32,
	}
	backend.AddDirectory(root)
	return backend
}

// register adds a stat record for a URI and links it into its parent
// directory's child list, if the parent is known.
func (b *Backend) register(uri string, stat *vio.FileStat) *vio.FileStat {
	stat.Name = filepath.Base(uri)
	b.files[uri] = stat
	parent := filepath.Dir(uri)
	if _, ok := b.children[parent]; ok && parent != uri {
		b.children[parent] = append(b.children[parent], stat.Name)
		sort.Strings(b.children[parent])
	}
	return stat
}

// AddDirectory adds a directory at the specified URI.
func (b *Backend) AddDirectory(uri string) *vio.FileStat {
	b.children[uri] = nil
	return b.register(uri, &vio.FileStat{
		Type:      vio.FileTypeDirectory,
		Mode:      0o40755,
		LinkCount: 1,
		Fields:    regularFields,
	})
}

// AddFile adds a regular file at the specified URI with the specified
// modification time and inode number. The returned record may be mutated to
// adjust size, link count, or other fields.
func (b *Backend) AddFile(uri string, modificationTime time.Time, inode uint64) *vio.FileStat {
	return b.register(uri, &vio.FileStat{
		Type:             vio.FileTypeRegular,
		Mode:             0o100644,
		ModificationTime: modificationTime,
		Inode:            inode,
		LinkCount:        1,
		Fields:           regularFields,
	})
}

// AddSymlink adds a symbolic link at the specified URI with the specified
// target. The target field bit may be cleared on the returned record to
// simulate a backend that cannot report link targets.
func (b *Backend) AddSymlink(uri, target string) *vio.FileStat {
	return b.register(uri, &vio.FileStat{
		Type:               vio.FileTypeSymbolicLink,
		Mode:               0o120777,
		LinkCount:          1,
		Fields:             regularFields | vio.StatFieldSymbolicLinkTarget,
		SymbolicLinkTarget: target,
	})
}

// AddSpecial adds a special file of the specified type at the specified URI.
func (b *Backend) AddSpecial(uri string, fileType vio.FileType) *vio.FileStat {
	return b.register(uri, &vio.FileStat{
		Type:      fileType,
		LinkCount: 1,
		Fields:    regularFields,
	})
}

// Lookup returns the stat record for a URI, or nil if absent.
func (b *Backend) Lookup(uri string) *vio.FileStat {
	return b.files[uri]
}

// Deny makes Opendir report a permission error for the specified directory
// URI.
func (b *Backend) Deny(uri string) {
	b.denied[uri] = true
}

// FailStat makes Stat fail with the specified error for the specified URI.
func (b *Backend) FailStat(uri string, err error) {
	b.statFailures[uri] = err
}

// FailCreat makes Creat fail with the specified error for the specified URI.
func (b *Backend) FailCreat(uri string, err error) {
	b.creatFailures[uri] = err
}

// directoryHandle implements vio.DirectoryHandle over a snapshot of a
// directory's child names.
type directoryHandle struct {
	// names are the remaining child names.
	names []string
}

// Readdir implements vio.DirectoryHandle.Readdir.
func (h *directoryHandle) Readdir() (*vio.FileStat, error) {
	if len(h.names) == 0 {
		return nil, io.EOF
	}
	name := h.names[0]
	h.names = h.names[1:]
	return &vio.FileStat{Name: name}, nil
}

// Close implements vio.DirectoryHandle.Close.
func (h *directoryHandle) Close() error {
	return nil
}

// Opendir implements vio.Backend.Opendir.
func (b *Backend) Opendir(uri string) (vio.DirectoryHandle, error) {
	if b.denied[uri] {
		return nil, &os.PathError{Op: "opendir", Path: uri, Err: fs.ErrPermission}
	}
	stat, ok := b.files[uri]
	if !ok {
		return nil, &os.PathError{Op: "opendir", Path: uri, Err: fs.ErrNotExist}
	} else if stat.Type != vio.FileTypeDirectory {
		return nil, &os.PathError{Op: "opendir", Path: uri, Err: fs.ErrInvalid}
	}
	names := make([]string, len(b.children[uri]))
	copy(names, b.children[uri])
	return &directoryHandle{names: names}, nil
}

// Stat implements vio.Backend.Stat.
func (b *Backend) Stat(uri string) (*vio.FileStat, error) {
	if err := b.statFailures[uri]; err != nil {
		return nil, err
	}
	stat, ok := b.files[uri]
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: uri, Err: fs.ErrNotExist}
	}
	return stat, nil
}

// fileHandle implements vio.FileHandle.
type fileHandle struct{}

// Close implements vio.FileHandle.Close.
func (h *fileHandle) Close() error {
	return nil
}

// Creat implements vio.Backend.Creat. The created file receives the backend's
// CreateTime as its modification time.
func (b *Backend) Creat(uri string, mode uint32) (vio.FileHandle, error) {
	if err := b.creatFailures[uri]; err != nil {
		return nil, err
	}
	parent := filepath.Dir(uri)
	if stat, ok := b.files[parent]; !ok || stat.Type != vio.FileTypeDirectory {
		return nil, &os.PathError{Op: "creat", Path: uri, Err: fs.ErrNotExist}
	}
	if existing, ok := b.files[uri]; !ok {
		stat := b.AddFile(uri, b.CreateTime, b.nextInode)
		stat.Mode = 0o100000 | mode
		b.nextInode++
	} else {
		existing.Size = 0
		existing.ModificationTime = b.CreateTime
	}
	return &fileHandle{}, nil
}

// Unlink implements vio.Backend.Unlink.
func (b *Backend) Unlink(uri string) error {
	if _, ok := b.files[uri]; !ok {
		return &os.PathError{Op: "unlink", Path: uri, Err: fs.ErrNotExist}
	}
	delete(b.files, uri)
	parent := filepath.Dir(uri)
	name := filepath.Base(uri)
	siblings := b.children[parent]
	for i, sibling := range siblings {
		if sibling == name {
			b.children[parent] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	return nil
}

// IsAbsolute implements vio.Backend.IsAbsolute.
func (b *Backend) IsAbsolute(uri string) bool {
	return filepath.IsAbs(uri)
}
