package services

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable is returned by the AI provider client once its retry
// budget is exhausted. Callers are expected to fall back rather than surface it.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

// ErrNotFound marks lookups that resolved to no row
var ErrNotFound = errors.New("not found")

// ValidationError reports invalid caller input, surfaced directly without retry
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// InvalidStateTransition reports a rejected session operation, such as
// answering an already-answered question or generating past the question limit
type InvalidStateTransition struct {
	Operation string
	Reason    string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition in %s: %s", e.Operation, e.Reason)
}

// PersistenceError wraps a failed database operation. Fatal for the request;
// no automatic retry at this layer.
type PersistenceError struct {
	Operation string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// GenerationParseError marks malformed AI question output. Caught inside the
// generator; never propagates to callers.
type GenerationParseError struct {
	Reason string
}

func (e *GenerationParseError) Error() string {
	return fmt.Sprintf("failed to parse generated question: %s", e.Reason)
}

// EvaluationParseError marks malformed AI scoring output. Caught inside the
// evaluator; never propagates to callers.
type EvaluationParseError struct {
	Reason string
}

func (e *EvaluationParseError) Error() string {
	return fmt.Sprintf("failed to parse evaluation: %s", e.Reason)
}
