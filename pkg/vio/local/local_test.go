//go:build !windows

package local

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dav1dK/csync/pkg/vio"
)

// TestStatRegularFile verifies the stat fields reported for a regular file.
func TestStatRegularFile(t *testing.T) {
	// Create a file with known content and modification time.
	directory := t.TempDir()
	path := filepath.Join(directory, "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0600); err != nil {
		t.Fatal("unable to create test file:", err)
	}
	modificationTime := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, modificationTime, modificationTime); err != nil {
		t.Fatal("unable to set test file times:", err)
	}

	// Stat it.
	backend := New()
	stat, err := backend.Stat(path)
	if err != nil {
		t.Fatal("stat failed:", err)
	}

	// Verify fields.
	if stat.Type != vio.FileTypeRegular {
		t.Errorf("unexpected type: %v", stat.Type)
	}
	if stat.Name != "file.txt" {
		t.Errorf("unexpected name: %s", stat.Name)
	}
	if stat.Size != 7 {
		t.Errorf("unexpected size: %d", stat.Size)
	}
	if !stat.ModificationTime.Equal(modificationTime) {
		t.Errorf("unexpected modification time: %v != %v", stat.ModificationTime, modificationTime)
	}
	if stat.Inode == 0 {
		t.Error("inode not populated")
	}
	if stat.LinkCount != 1 {
		t.Errorf("unexpected link count: %d", stat.LinkCount)
	}
	expected := vio.StatFieldType | vio.StatFieldMode | vio.StatFieldSize |
		vio.StatFieldModificationTime | vio.StatFieldOwnership |
		vio.StatFieldInode | vio.StatFieldLinkCount
	if stat.Fields != expected {
		t.Errorf("unexpected field set: %b", stat.Fields)
	}
}

// TestStatSymbolicLink verifies that symbolic links are reported with their
// targets and not followed.
func TestStatSymbolicLink(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "link")
	if err := os.Symlink("target/elsewhere", path); err != nil {
		t.Fatal("unable to create test symlink:", err)
	}

	backend := New()
	stat, err := backend.Stat(path)
	if err != nil {
		t.Fatal("stat failed:", err)
	}
	if stat.Type != vio.FileTypeSymbolicLink {
		t.Errorf("unexpected type: %v", stat.Type)
	}
	if stat.Fields&vio.StatFieldSymbolicLinkTarget == 0 {
		t.Error("symbolic link target field not populated")
	}
	if stat.SymbolicLinkTarget != "target/elsewhere" {
		t.Errorf("unexpected target: %s", stat.SymbolicLinkTarget)
	}
}

// TestStatHardlinkCount verifies that hardlinked files report a link count
// greater than one.
func TestStatHardlinkCount(t *testing.T) {
	directory := t.TempDir()
	first := filepath.Join(directory, "first")
	second := filepath.Join(directory, "second")
	if err := os.WriteFile(first, nil, 0600); err != nil {
		t.Fatal("unable to create test file:", err)
	}
	if err := os.Link(first, second); err != nil {
		t.Fatal("unable to create hardlink:", err)
	}

	backend := New()
	stat, err := backend.Stat(first)
	if err != nil {
		t.Fatal("stat failed:", err)
	}
	if stat.LinkCount != 2 {
		t.Errorf("unexpected link count: %d", stat.LinkCount)
	}
}

// TestDirectoryIteration verifies Opendir/Readdir/Close behavior.
func TestDirectoryIteration(t *testing.T) {
	// Create a directory with known contents.
	directory := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		if err := os.WriteFile(filepath.Join(directory, name), nil, 0600); err != nil {
			t.Fatal("unable to create test file:", err)
		}
	}

	// Iterate.
	backend := New()
	handle, err := backend.Opendir(directory)
	if err != nil {
		t.Fatal("opendir failed:", err)
	}
	defer handle.Close()
	seen := make(map[string]bool)
	for {
		entry, err := handle.Readdir()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			t.Fatal("readdir failed:", err)
		}
		seen[entry.Name] = true
	}
	if len(seen) != 3 || !seen["a"] || !seen["b"] || !seen["c"] {
		t.Errorf("unexpected directory contents: %v", seen)
	}
}

// TestCreatAndUnlink verifies probe-style file creation and removal.
func TestCreatAndUnlink(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "probe.ctmp")

	backend := New()
	handle, err := backend.Creat(path, 0644)
	if err != nil {
		t.Fatal("creat failed:", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatal("close failed:", err)
	}
	if stat, err := backend.Stat(path); err != nil {
		t.Fatal("stat after creat failed:", err)
	} else if stat.Size != 0 {
		t.Errorf("created file not empty: %d bytes", stat.Size)
	}
	if err := backend.Unlink(path); err != nil {
		t.Fatal("unlink failed:", err)
	}
	if _, err := backend.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unexpected error after unlink: %v", err)
	}
}

// TestIsAbsolute verifies the absolute path predicate.
func TestIsAbsolute(t *testing.T) {
	backend := New()
	if !backend.IsAbsolute("/absolute/path") {
		t.Error("absolute path not detected")
	}
	if backend.IsAbsolute("relative/path") {
		t.Error("relative path misdetected as absolute")
	}
}
