package model

import (
	"errors"
	"fmt"
)

// Error kinds for a run. All of them are terminal.
var (
	// ErrNotFound is returned when the upstream does not know the pool id.
	ErrNotFound = errors.New("not found")

	// ErrDataUnavailable is returned when the upstream answered but the record
	// is missing, empty or malformed.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrDataInconsistency is returned when fetched data leads to a non-positive
	// liquidity at the current tick.
	ErrDataInconsistency = errors.New("data inconsistency")

	// ErrUpstreamUnreachable is returned on transport failures.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
)

// StageError labels an error with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage returns nil for a nil error.
func WrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
