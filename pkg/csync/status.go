package csync

import (
	"errors"

	"github.com/Dav1dK/csync/pkg/update"
)

// Status describes the outcome of the most recent operation on a context.
// The zero value is StatusOK.
type Status uint8

const (
	// StatusOK indicates success.
	StatusOK Status = iota
	// StatusError indicates an otherwise unclassified failure.
	StatusError
	// StatusParamError indicates a nil input or a path shorter than the
	// replica root.
	StatusParamError
	// StatusTreeError indicates a replica tree insertion failure.
	StatusTreeError
	// StatusOpendirError indicates a directory open failure other than
	// permission denial.
	StatusOpendirError
	// StatusReaddirError indicates a directory entry with a missing name.
	StatusReaddirError
	// StatusUpdateError indicates a visitor failure without a more specific
	// classification.
	StatusUpdateError
	// StatusUnsuccessful indicates a generic invariant breach.
	StatusUnsuccessful
	// StatusTimeSkewError indicates that the replica clocks are too far apart
	// to permit synchronization, or that skew could not be measured.
	StatusTimeSkewError
)

// String provides a human-readable representation of a status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusParamError:
		return "parameter error"
	case StatusTreeError:
		return "tree error"
	case StatusOpendirError:
		return "opendir error"
	case StatusReaddirError:
		return "readdir error"
	case StatusUpdateError:
		return "update error"
	case StatusUnsuccessful:
		return "unsuccessful"
	case StatusTimeSkewError:
		return "time skew error"
	default:
		return "error"
	}
}

// statusForError maps an update failure onto a context status.
func statusForError(err error) Status {
	if err == nil {
		return StatusOK
	}
	var classified *update.Error
	if !errors.As(err, &classified) {
		return StatusError
	}
	switch classified.Kind {
	case update.ErrorKindInvalidParameter:
		return StatusParamError
	case update.ErrorKindTree:
		return StatusTreeError
	case update.ErrorKindOpendir:
		return StatusOpendirError
	case update.ErrorKindReaddir:
		return StatusReaddirError
	case update.ErrorKindVisitor:
		return StatusUpdateError
	case update.ErrorKindInvalidPath:
		return StatusUnsuccessful
	default:
		return StatusError
	}
}
