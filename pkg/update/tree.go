package update

import (
	"errors"
	"fmt"

	"github.com/armon/go-radix"
)

// Tree is the ordered in-memory container for detector output, keyed by
// replica-relative path. Iteration is in lexicographic path order with stable
// ordering across walks, which the downstream reconciler relies on to realign
// the two replica trees. It is a typed facade over a radix tree.
type Tree struct {
	// entries is the underlying radix tree, mapping paths to *Entry values.
	entries *radix.Tree
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{entries: radix.New()}
}

// Insert adds an entry to the tree, keyed by its path. Inserting a nil entry
// or a second entry with an existing path is an error, and the tree is left
// unmodified in both cases.
func (t *Tree) Insert(entry *Entry) error {
	if entry == nil {
		return errors.New("nil entry")
	}
	if _, ok := t.entries.Get(entry.Path); ok {
		return fmt.Errorf("duplicate path: %s", entry.Path)
	}
	t.entries.Insert(entry.Path, entry)
	return nil
}

// Get looks up an entry by its replica-relative path.
func (t *Tree) Get(path string) (*Entry, bool) {
	if value, ok := t.entries.Get(path); ok {
		return value.(*Entry), true
	}
	return nil, false
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int {
	return t.entries.Len()
}

// Walk invokes the specified callback for each entry in lexicographic path
// order. If the callback returns false, iteration terminates early.
func (t *Tree) Walk(visit func(*Entry) bool) {
	t.entries.Walk(func(_ string, value interface{}) bool {
		return !visit(value.(*Entry))
	})
}
