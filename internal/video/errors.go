package video

import "errors"

// Error taxonomy for the pipeline. Fatal classes abort a run before
// any fetch is scheduled; per-item classes are converted to a logged
// skip at the orchestrator or sink boundary.
var (
	// ErrProxyPoolExhausted means no candidate identity survived
	// validation. Fatal when proxying is required.
	ErrProxyPoolExhausted = errors.New("proxy pool exhausted")

	// ErrSessionUnavailable means no authenticated session could be
	// obtained. Always fatal.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrTransportFailure is a network/protocol failure from the
	// session client for one item. Recovered per item.
	ErrTransportFailure = errors.New("transport failure")

	// ErrMissingRequiredField means a raw item lacks the fields
	// required for normalization. Recovered per item.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrStorage is an I/O failure while persisting one record.
	// Recovered per record.
	ErrStorage = errors.New("storage failure")
)
