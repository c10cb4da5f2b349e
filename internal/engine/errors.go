package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/turnstile/internal/game"
)

// StepsExceededError is returned when one invocation processes more event
// batches than its quota allows.
//
// It unwraps to a *game.Error with CodeQuotaExceeded, so callers that only
// care about the category can use game.IsCode.
type StepsExceededError struct {
	Command game.CommandType // The top-level command being executed
	Steps   int              // Number of steps taken
	Limit   int              // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("command %s exceeded max steps quota: %d steps > %d limit",
		e.Command, e.Steps, e.Limit)
}

// Unwrap exposes the taxonomy error.
func (e *StepsExceededError) Unwrap() error {
	return &game.Error{
		Code:    game.CodeQuotaExceeded,
		Message: "max steps exceeded",
		Command: e.Command,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", e.Steps),
			"max_steps": fmt.Sprintf("%d", e.Limit),
		},
	}
}

// DepthExceededError is returned when internal commands nest deeper than
// the configured limit.
type DepthExceededError struct {
	Command game.CommandType // The internal command that would exceed the limit
	Depth   int
	Limit   int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("internal command %s exceeded max depth: %d > %d",
		e.Command, e.Depth, e.Limit)
}

// Unwrap exposes the taxonomy error.
func (e *DepthExceededError) Unwrap() error {
	return &game.Error{
		Code:    game.CodeQuotaExceeded,
		Message: "max dispatch depth exceeded",
		Command: e.Command,
		Details: map[string]string{
			"depth":     fmt.Sprintf("%d", e.Depth),
			"max_depth": fmt.Sprintf("%d", e.Limit),
		},
	}
}

// IsQuotaError returns true for both step and depth quota errors.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var se *StepsExceededError
	var de *DepthExceededError
	return errors.As(err, &se) || errors.As(err, &de)
}

// internalError converts an unexpected failure into the taxonomy.
func internalError(cmd game.CommandType, err error) error {
	var ge *game.Error
	if errors.As(err, &ge) || IsQuotaError(err) {
		return err
	}
	return &game.Error{
		Code:    game.CodeInternal,
		Message: err.Error(),
		Command: cmd,
	}
}
