package update

import (
	"path/filepath"

	"github.com/Dav1dK/csync/pkg/vio"
)

// Side identifies which of the two replicas is being operated on. Rename
// detection depends on it, because only the local replica is required to
// expose stable inodes.
type Side uint8

const (
	// SideLocal identifies the local replica.
	SideLocal Side = iota
	// SideRemote identifies the remote replica.
	SideRemote
)

// String provides a human-readable representation of a replica side.
func (s Side) String() string {
	switch s {
	case SideLocal:
		return "local"
	case SideRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Replica pairs a replica root with the backend that services it and the
// in-memory tree that collects detector output for the current walk.
type Replica struct {
	// Side identifies the replica.
	Side Side
	// Root is the replica's root URI. It is stored in cleaned form.
	Root string
	// Backend services I/O requests for the replica.
	Backend vio.Backend
	// Tree collects detector output for the current walk.
	Tree *Tree
}

// NewReplica creates a replica with an empty tree.
func NewReplica(side Side, root string, backend vio.Backend) *Replica {
	return &Replica{
		Side:    side,
		Root:    filepath.Clean(root),
		Backend: backend,
		Tree:    NewTree(),
	}
}

// Reset discards the replica's tree, replacing it with an empty one. It is
// invoked at the start of each walk.
func (r *Replica) Reset() {
	r.Tree = NewTree()
}
