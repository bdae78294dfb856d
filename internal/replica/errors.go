package replica

import (
	"errors"
	"fmt"
)

// ErrDivergedHistory reports that the destination's commit chain is not
// a prefix of the source's. Synchronization refuses to guess a merge;
// the operator has to resolve the split.
var ErrDivergedHistory = errors.New("commit histories have diverged")

// SourceError wraps a failure from the source storage.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source storage: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// DestinationError wraps a failure from the destination storage.
type DestinationError struct {
	Err error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("destination storage: %v", e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }
