package bulk

import (
	"errors"
	"fmt"
)

// Validation rejections. None of them reach the network.
var (
	ErrNothingToResolve  = errors.New("nothing to resolve: no unresolved watched orders selected")
	ErrNoValidOrderIDs   = errors.New("selected watched orders carry no valid order ids")
	ErrAmbiguousEvent    = errors.New("selected orders span several maintenance events; select a single event")
	ErrEventUndetermined = errors.New("cannot determine maintenance event")
	ErrNothingToResume   = errors.New("nothing to resume: no paused watched orders selected")
	ErrBulkInFlight      = errors.New("another bulk action is in progress")
)

// MutationError is a bulk call that was sent and failed.
type MutationError struct {
	Action string
	Count  int
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("bulk %s of %d orders failed: %v", e.Action, e.Count, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a validation rejection rather than a
// failed call.
func IsRejection(err error) bool {
	for _, target := range []error{ErrNothingToResolve, ErrNoValidOrderIDs, ErrAmbiguousEvent, ErrEventUndetermined, ErrNothingToResume, ErrBulkInFlight} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
