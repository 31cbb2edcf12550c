//go:build darwin || netbsd

package local

import (
	"time"

	"golang.org/x/sys/unix"
)

// statModificationTime converts raw stat metadata to the entry's
// modification time. POSIX platforms disagree on the name of the timespec
// field, so the conversion lives in a per-platform file.
func statModificationTime(metadata *unix.Stat_t) time.Time {
	return time.Unix(metadata.Mtimespec.Unix())
}
