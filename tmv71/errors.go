package tmv71

import "errors"

// The backend distinguishes four kinds of failure. They never overlap:
// an operation that fails reports exactly one of them, possibly wrapped
// with context. Callers discriminate with errors.Is.
var (
	// ErrInvalidArgument reports a caller-supplied value that does not map
	// to anything the radio knows. No command is sent in this case.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout reports that the radio did not answer within the
	// transport's deadline, after all retries.
	ErrTimeout = errors.New("timeout")

	// ErrRejected reports that the radio answered, but with its rejection
	// sentinel, or with a reply that failed prefix, field-count, or domain
	// validation.
	ErrRejected = errors.New("rejected by radio")

	// ErrProtocol reports a well-formed reply carrying a field value
	// outside its enumerated domain.
	ErrProtocol = errors.New("protocol error")
)
