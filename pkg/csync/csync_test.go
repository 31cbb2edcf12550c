package csync

import (
	"testing"
	"time"

	"github.com/Dav1dK/csync/pkg/configuration"
	"github.com/Dav1dK/csync/pkg/update"
	"github.com/Dav1dK/csync/pkg/vio/viotest"
)

// testBaseTime is the reference modification time used by fixtures.
var testBaseTime = time.Unix(1700000000, 0)

// testBackends creates matching local and remote in-memory backends, each
// holding the tree {a.txt, d/b.txt} under its root. The remote backend also
// carries the local root directory so that the time-difference probe can
// create its temporary there.
func testBackends() (*viotest.Backend, *viotest.Backend) {
	local := viotest.New("/left")
	local.AddFile("/left/a.txt", testBaseTime, 101)
	local.AddDirectory("/left/d")
	local.AddFile("/left/d/b.txt", testBaseTime, 102)

	remote := viotest.New("/right")
	remote.AddFile("/right/a.txt", testBaseTime, 201)
	remote.AddDirectory("/right/d")
	remote.AddFile("/right/d/b.txt", testBaseTime, 202)
	remote.AddDirectory("/left")

	return local, remote
}

// TestNewValidation verifies context creation validation.
func TestNewValidation(t *testing.T) {
	local, remote := testBackends()
	if _, err := New("", "/right", &Options{LocalBackend: local, RemoteBackend: remote}); err == nil {
		t.Error("empty local root not rejected")
	}
	if _, err := New("/left", "", &Options{LocalBackend: local, RemoteBackend: remote}); err == nil {
		t.Error("empty remote root not rejected")
	}
	if _, err := New("/left", "relative/root", &Options{LocalBackend: local, RemoteBackend: remote}); err == nil {
		t.Error("relative remote root not rejected")
	}
}

// TestIdentifier verifies that contexts receive distinct run identifiers.
func TestIdentifier(t *testing.T) {
	local, remote := testBackends()
	options := &Options{LocalBackend: local, RemoteBackend: remote}
	first, err := New("/left", "/right", options)
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	second, err := New("/left", "/right", options)
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	if first.Identifier() == "" || first.Identifier() == second.Identifier() {
		t.Error("run identifiers not distinct")
	}
}

// TestUpdateFirstSync verifies a full update pass over both replicas with no
// prior state.
func TestUpdateFirstSync(t *testing.T) {
	local, remote := testBackends()
	context, err := New("/left", "/right", &Options{LocalBackend: local, RemoteBackend: remote})
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	if err := context.Update(); err != nil {
		t.Fatal("update failed:", err)
	}
	if context.Status() != StatusOK {
		t.Errorf("unexpected status: %s", context.Status())
	}

	// Verify both trees.
	for _, replica := range []*update.Replica{context.Local(), context.Remote()} {
		if replica.Tree.Len() != 3 {
			t.Errorf("unexpected %s tree size: %d", replica.Side, replica.Tree.Len())
		}
		replica.Tree.Walk(func(entry *update.Entry) bool {
			if entry.Instruction != update.InstructionNew {
				t.Errorf("unexpected %s instruction for %s: %s", replica.Side, entry.Path, entry.Instruction)
			}
			return true
		})
	}

	// Verify statistics.
	if statistics := context.LocalStatistics(); statistics.Files != 2 || statistics.Directories != 1 {
		t.Errorf("unexpected local statistics: %+v", statistics)
	}
}

// TestUpdateRefusesSkew verifies that synchronization is refused when the
// replica clocks are too far apart.
func TestUpdateRefusesSkew(t *testing.T) {
	local, remote := testBackends()
	local.CreateTime = time.Unix(1000, 0)
	remote.CreateTime = time.Unix(1020, 0)
	context, err := New("/left", "/right", &Options{LocalBackend: local, RemoteBackend: remote})
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	context.SetMaximumTimeDifference(10)

	if err := context.Update(); err == nil {
		t.Fatal("excessive skew not refused")
	}
	if context.Status() != StatusTimeSkewError {
		t.Errorf("unexpected status: %s", context.Status())
	}
}

// TestUpdateZeroSkewTolerance verifies that a zero maximum forbids any
// non-zero skew.
func TestUpdateZeroSkewTolerance(t *testing.T) {
	local, remote := testBackends()
	local.CreateTime = time.Unix(1000, 0)
	remote.CreateTime = time.Unix(1001, 0)
	context, err := New("/left", "/right", &Options{LocalBackend: local, RemoteBackend: remote})
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	context.SetMaximumTimeDifference(0)

	if err := context.Update(); err == nil {
		t.Error("non-zero skew not refused with zero tolerance")
	}
}

// TestConfigurationApplied verifies that configured tunables reach the
// context.
func TestConfigurationApplied(t *testing.T) {
	local, remote := testBackends()
	context, err := New("/left", "/right", &Options{
		LocalBackend:  local,
		RemoteBackend: remote,
		Configuration: &configuration.Configuration{
			MaximumDirectoryDepth: 1,
			MaximumTimeDifference: 3,
			WithConflictCopies:    true,
		},
	})
	if err != nil {
		t.Fatal("unable to create context:", err)
	}
	if !context.ConflictCopies() {
		t.Error("conflict copies not applied")
	}

	// A depth of one still covers the two-level fixture, so deepen the local
	// tree to verify the depth bound.
	local.AddDirectory("/left/d/deep")
	local.AddFile("/left/d/deep/c.txt", testBaseTime, 103)
	if err := context.Update(); err != nil {
		t.Fatal("update failed:", err)
	}
	if _, ok := context.Local().Tree.Get("d/deep"); !ok {
		t.Error("entry at depth bound missing")
	}
	if _, ok := context.Local().Tree.Get("d/deep/c.txt"); ok {
		t.Error("entry beyond depth bound recorded")
	}
}
