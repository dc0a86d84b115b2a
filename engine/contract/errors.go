package contract

import "errors"

var (
	// ErrValidation covers customer-correctable input problems. It is
	// always recovered into a corrective prompt and never propagated
	// past the state machine.
	ErrValidation = errors.New("validation failed")

	// ErrTransient covers retryable collaborator failures: store write
	// conflicts past the retry bound, transport send failures, order
	// persistence being unavailable.
	ErrTransient = errors.New("transient failure")

	// ErrConfiguration is fatal and must fail fast before the engine
	// accepts traffic.
	ErrConfiguration = errors.New("configuration invalid")

	// ErrProductNotFound is returned by catalog lookups for unknown
	// products.
	ErrProductNotFound = errors.New("product not found")
)
