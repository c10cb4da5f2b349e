package game

import (
	"errors"
	"fmt"
)

// Code categorizes errors returned by the pipeline and the client engine.
type Code string

const (
	// CodeValidationRejected: the rule-set refused the command.
	CodeValidationRejected Code = "VALIDATION_REJECTED"

	// CodeSystemBlocked: a system refused the command (interaction pending,
	// response window restriction, game over).
	CodeSystemBlocked Code = "SYSTEM_BLOCKED"

	// CodeInteractionMismatch: a response targets an interaction that is not
	// current (Reason "not_found") or the wrong player answered ("forbidden").
	CodeInteractionMismatch Code = "INTERACTION_MISMATCH"

	// CodeReplayDivergence: a pending command no longer validates after a
	// rollback, or two replays of the same log disagree.
	CodeReplayDivergence Code = "REPLAY_DIVERGENCE"

	// CodeRngDesync: the client predicted a command that consumed randomness
	// without a trustworthy seed.
	CodeRngDesync Code = "RNG_DESYNC"

	// CodeQuotaExceeded: re-entrant processing exceeded its depth or step budget.
	CodeQuotaExceeded Code = "QUOTA_EXCEEDED"

	// CodeInternal: rule-set or system code failed unexpectedly.
	CodeInternal Code = "INTERNAL"
)

// Reasons used with CodeInteractionMismatch.
const (
	ReasonNotFound  = "not_found"
	ReasonForbidden = "forbidden"
)

// Error is the typed error returned for every rejected or failed command.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Reason is a machine-readable sub-code, optional.
	Reason string

	// Message is a human-readable description suitable for inline display.
	Message string

	// Command is the type of the command that failed, when known.
	Command CommandType

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Command != "" && e.Reason != "":
		return fmt.Sprintf("%s/%s: %s (command=%s)", e.Code, e.Reason, e.Message, e.Command)
	case e.Command != "":
		return fmt.Sprintf("%s: %s (command=%s)", e.Code, e.Message, e.Command)
	case e.Reason != "":
		return fmt.Sprintf("%s/%s: %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Rejected is shorthand for a ValidationRejected error.
func Rejected(format string, args ...any) *Error {
	return Errorf(CodeValidationRejected, format, args...)
}

// Blocked is shorthand for a SystemBlocked error.
func Blocked(format string, args ...any) *Error {
	return Errorf(CodeSystemBlocked, format, args...)
}

// Mismatch builds an InteractionMismatch error with the given reason.
func Mismatch(reason, format string, args ...any) *Error {
	e := Errorf(CodeInteractionMismatch, format, args...)
	e.Reason = reason
	return e
}

// WithCommand returns a copy of e attributed to the given command type.
func (e *Error) WithCommand(t CommandType) *Error {
	cp := *e
	cp.Command = t
	return &cp
}

// CodeOf extracts the code of a wrapped *Error. Errors that are not *Error
// report CodeInternal; nil reports "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return CodeInternal
}

// IsCode returns true if err wraps an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// ReasonOf returns the Reason of a wrapped *Error, or "".
func ReasonOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Reason
	}
	return ""
}
