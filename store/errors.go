package store

import "errors"

var (
	// ErrUnknownExample is returned when an example id is not in the store.
	//
	// This is a store-layer sentinel used internally; the sqlgo package may
	// translate it into its public error contract.
	ErrUnknownExample = errors.New("unknown example id")

	// ErrDuplicateExample is returned when an example id is already indexed.
	ErrDuplicateExample = errors.New("duplicate example id")

	// ErrEmptyCorpus is returned when a corpus blob yields no valid example.
	ErrEmptyCorpus = errors.New("corpus contains no valid examples")
)
