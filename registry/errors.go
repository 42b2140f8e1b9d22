package registry

import "errors"

var (
	// ErrUnknownModel is returned when a model id is not registered.
	//
	// This is a registry-layer sentinel used internally; the sqlgo package
	// may translate it into its public error contract.
	ErrUnknownModel = errors.New("unknown model id")

	// ErrNoEligibleModel is returned when no registered backend is
	// configured for the requested dialect outside the exclusion set.
	ErrNoEligibleModel = errors.New("no eligible model")

	// ErrUnknownSample is returned when a sample id is not in the ring,
	// either because it never existed or because the ring trimmed it.
	ErrUnknownSample = errors.New("unknown sample id")
)
