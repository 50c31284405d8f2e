// Package types defines the data model of the UPS engine: identifiers,
// checkpoints, proof bundles, and the session's queue and policy records.
package types

import "errors"

// Error kinds. Every fallible operation in this module wraps one of these
// with fmt.Errorf("%w: detail", Kind) so callers can errors.Is against the
// kind while still getting a human-readable detail in Error().
var (
	ErrCftVerificationFailed = errors.New("cft verification failed")
	ErrUpsSessionError       = errors.New("ups session error")
	ErrProofGenerationFailed = errors.New("proof generation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSdkeyPolicyViolation  = errors.New("sdkey policy violation")
	ErrNetworkError          = errors.New("network error")
	ErrSerializationError    = errors.New("serialization error")
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrInternalError         = errors.New("internal error")
)
