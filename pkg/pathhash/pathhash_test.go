package pathhash

import (
	"testing"
)

const (
	// fnvOffsetBasis is the 64-bit FNV offset basis.
	fnvOffsetBasis = 14695981039346656037
	// fnvPrime is the 64-bit FNV prime.
	fnvPrime = 1099511628211
)

// referenceHash is an independent implementation of the FNV-1a polynomial used
// to validate Hash.
func referenceHash(path string) uint64 {
	var digest uint64 = fnvOffsetBasis
	for i := 0; i < len(path); i++ {
		digest ^= uint64(path[i])
		digest *= fnvPrime
	}
	return digest
}

// TestHashEmpty verifies that the hash of an empty path is the FNV offset
// basis.
func TestHashEmpty(t *testing.T) {
	if h := Hash(""); h != fnvOffsetBasis {
		t.Errorf("empty path hash does not match offset basis: %d != %d", h, uint64(fnvOffsetBasis))
	}
}

// TestHash verifies determinism and agreement with an independent
// implementation of the polynomial.
func TestHash(t *testing.T) {
	// Set up test paths.
	paths := []string{
		"a.txt",
		"d/b.txt",
		"d",
		"some/deeply/nested/path/with spaces/and-ünïcôde.bin",
		"a.txt ",
	}

	// Process test paths.
	for _, path := range paths {
		if h := Hash(path); h != referenceHash(path) {
			t.Errorf("hash mismatch for %q: %d != %d", path, h, referenceHash(path))
		}
		if Hash(path) != Hash(path) {
			t.Errorf("hash not deterministic for %q", path)
		}
	}

	// Verify that distinct paths yield distinct hashes for this set.
	seen := make(map[uint64]string, len(paths))
	for _, path := range paths {
		h := Hash(path)
		if other, ok := seen[h]; ok {
			t.Errorf("hash collision between %q and %q", path, other)
		}
		seen[h] = path
	}
}
