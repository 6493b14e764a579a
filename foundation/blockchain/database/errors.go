package database

import "errors"

// Set of errors the database package can return. Callers are expected to
// check for them with errors.Is since they are always wrapped with context.
var (
	// ErrChainLinkage is returned when a block can't follow its parent or
	// its hash doesn't satisfy its own difficulty.
	ErrChainLinkage = errors.New("chain linkage")

	// ErrSealCancelled is returned when the proof of work search is stopped
	// before a solution is found.
	ErrSealCancelled = errors.New("seal cancelled")

	// ErrInvalidDifficulty is returned when a block is asked to be sealed
	// with a difficulty that has no solution.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
