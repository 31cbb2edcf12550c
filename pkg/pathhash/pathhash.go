// Package pathhash provides the 64-bit path hashing primitive used to key
// entries in the state database and replica trees. The detector and the state
// database must agree on this primitive, so both consume it from here.
package pathhash

import (
	"hash/fnv"
	"io"
)

// Hash computes the 64-bit FNV-1a digest of a replica-relative path. The hash
// is computed over the raw path bytes with no normalization, so equal byte
// sequences always yield equal hashes. It is not cryptographically secure and
// must not be used for integrity purposes.
func Hash(path string) uint64 {
	hasher := fnv.New64a()
	io.WriteString(hasher, path)
	return hasher.Sum64()
}
