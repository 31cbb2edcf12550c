//go:build !windows

// Package local provides the vio.Backend implementation for the local POSIX
// filesystem.
package local

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/Dav1dK/csync/pkg/vio"
)

// Backend implements vio.Backend over the local filesystem.
type Backend struct{}

// New creates a local filesystem backend.
func New() *Backend {
	return &Backend{}
}

// directoryHandle implements vio.DirectoryHandle over an open directory.
type directoryHandle struct {
	// file is the underlying directory.
	file *os.File
}

// Readdir implements vio.DirectoryHandle.Readdir. Entries are returned in the
// order the operating system delivers them.
func (h *directoryHandle) Readdir() (*vio.FileStat, error) {
	names, err := h.file.Readdirnames(1)
	if err != nil {
		return nil, err
	}
	return &vio.FileStat{Name: names[0]}, nil
}

// Close implements vio.DirectoryHandle.Close.
func (h *directoryHandle) Close() error {
	return h.file.Close()
}

// Opendir implements vio.Backend.Opendir.
func (b *Backend) Opendir(uri string) (vio.DirectoryHandle, error) {
	file, err := os.Open(uri)
	if err != nil {
		return nil, err
	}
	return &directoryHandle{file: file}, nil
}

// Stat implements vio.Backend.Stat. Symbolic links are not followed; for
// symbolic link entries the link target is resolved and recorded in the
// result.
func (b *Backend) Stat(uri string) (*vio.FileStat, error) {
	// Query the entry. We use lstat semantics so that symbolic links are
	// reported as such rather than as their targets.
	var metadata unix.Stat_t
	if err := unix.Lstat(uri, &metadata); err != nil {
		return nil, &os.PathError{Op: "lstat", Path: uri, Err: err}
	}

	// Convert to the portable stat representation.
	result := &vio.FileStat{
		Name:             filepath.Base(uri),
		Type:             fileTypeForMode(uint32(metadata.Mode)),
		Mode:             uint32(metadata.Mode),
		Size:             uint64(metadata.Size),
		ModificationTime: statModificationTime(&metadata),
		UID:              metadata.Uid,
		GID:              metadata.Gid,
		Inode:            uint64(metadata.Ino),
		LinkCount:        uint32(metadata.Nlink),
		Fields: vio.StatFieldType | vio.StatFieldMode | vio.StatFieldSize |
			vio.StatFieldModificationTime | vio.StatFieldOwnership |
			vio.StatFieldInode | vio.StatFieldLinkCount,
	}

	// Record the link target for symbolic links. A failure to read the target
	// simply leaves the corresponding field bit unset, which the walker treats
	// as an unstatable entry.
	if result.Type == vio.FileTypeSymbolicLink {
		if target, err := os.Readlink(uri); err == nil {
			result.SymbolicLinkTarget = target
			result.Fields |= vio.StatFieldSymbolicLinkTarget
		}
	}

	// Success.
	return result, nil
}

// fileTypeForMode converts a raw stat mode to a file type.
func fileTypeForMode(mode uint32) vio.FileType {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return vio.FileTypeRegular
	case unix.S_IFDIR:
		return vio.FileTypeDirectory
	case unix.S_IFLNK:
		return vio.FileTypeSymbolicLink
	case unix.S_IFBLK:
		return vio.FileTypeBlockDevice
	case unix.S_IFCHR:
		return vio.FileTypeCharacterDevice
	case unix.S_IFSOCK:
		return vio.FileTypeSocket
	case unix.S_IFIFO:
		return vio.FileTypeFIFO
	default:
		return vio.FileTypeUnknown
	}
}

// Creat implements vio.Backend.Creat.
func (b *Backend) Creat(uri string, mode uint32) (vio.FileHandle, error) {
	file, err := os.OpenFile(uri, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(mode))
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Unlink implements vio.Backend.Unlink.
func (b *Backend) Unlink(uri string) error {
	return os.Remove(uri)
}

// IsAbsolute implements vio.Backend.IsAbsolute.
func (b *Backend) IsAbsolute(uri string) bool {
	return filepath.IsAbs(uri)
}
