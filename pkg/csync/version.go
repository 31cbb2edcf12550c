package csync

import (
	"fmt"
)

const (
	// VersionMajor represents the current major version of csync.
	VersionMajor = 0
	// VersionMinor represents the current minor version of csync.
	VersionMinor = 1
	// VersionPatch represents the current patch version of csync.
	VersionPatch = 0
)

// Version provides a stringified version of the current csync version.
var Version string

func init() {
	// Compute the stringified version.
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}
