// Package storage defines the persistence contracts for goals, allocations,
// simulation results and history snapshots, and the errors every backend
// maps its driver failures onto.
package storage

import "errors"

var (
	// ErrNotFound: the record, or the goal that would own it, does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey: the key exists. Simulation results and snapshots are
	// append-only, so a repeated insert is never an update.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput: arguments or a row rejected by a schema constraint.
	ErrInvalidInput = errors.New("invalid input")
)
