package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is matching across layers.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInfeasible        = errors.New("goal infeasible")
	ErrSimulationTimeout = errors.New("simulation timed out")
	ErrNotFound          = errors.New("not found")
)

// ValidationError reports a malformed or out-of-range input.
// Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InfeasibleGoalError reports a goal that cannot be funded under its constraints,
// e.g. a shortfall with no months left to contribute.
type InfeasibleGoalError struct {
	Shortfall float64
	Reason    string
}

func (e *InfeasibleGoalError) Error() string {
	return fmt.Sprintf("goal infeasible: %s (shortfall %.2f)", e.Reason, e.Shortfall)
}

// Is matches ErrInfeasible.
func (e *InfeasibleGoalError) Is(target error) bool {
	return target == ErrInfeasible
}

// SimulationTimeoutError reports a simulation that exceeded its time budget.
type SimulationTimeoutError struct {
	RequestedPaths int
	Budget         time.Duration
}

func (e *SimulationTimeoutError) Error() string {
	return fmt.Sprintf("simulation of %d paths exceeded budget %s", e.RequestedPaths, e.Budget)
}

// Is matches ErrSimulationTimeout.
func (e *SimulationTimeoutError) Is(target error) bool {
	return target == ErrSimulationTimeout
}

// NotFoundError reports a missing goal or simulation.
type NotFoundError struct {
	Kind string // "goal" | "simulation"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsRetryable reports whether err may succeed on a degraded retry.
// Only simulation timeouts qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSimulationTimeout)
}
