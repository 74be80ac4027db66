package chat

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the ingestion engine.
type ErrorKind int

const (
	// KindUnknown is reported for errors that did not originate in this package.
	KindUnknown ErrorKind = iota
	// KindNotFound: no live stream at the watch target.
	KindNotFound
	// KindAlreadyEnded: the target is a finished broadcast (replay).
	KindAlreadyEnded
	// KindSchemaMismatch: a required field is missing from the page; the upstream format changed.
	KindSchemaMismatch
	// KindTransportFailure: the transport could not deliver a page or response.
	KindTransportFailure
	// KindMalformedResponse: a chat response does not have the expected top-level shape.
	KindMalformedResponse
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyEnded:
		return "already_ended"
	case KindSchemaMismatch:
		return "schema_mismatch"
	case KindTransportFailure:
		return "transport_failure"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is a classified engine error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind, so callers
// can write errors.Is(err, chat.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyEnded      = &Error{Kind: KindAlreadyEnded}
	ErrSchemaMismatch    = &Error{Kind: KindSchemaMismatch}
	ErrTransportFailure  = &Error{Kind: KindTransportFailure}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
)

// Usage errors of the polling driver.
var (
	// ErrNotStarted is reported when Tick runs without an active session.
	ErrNotStarted = errors.New("live chat client is not started; call Start first")
	// ErrStreamEnded is returned by Tick once upstream stops issuing continuations.
	ErrStreamEnded = errors.New("live chat stream ended: no continuation returned")
)

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
