// Package agerr defines Agrama's error taxonomy: a small set of error kinds
// shared by every component. The MCP layer reports a primitive's *Error as
// an isError tool result rather than as a JSON-RPC error code.
package agerr

import "fmt"

// Kind classifies an error for both engine-internal handling and wire
// serialization, using one shared error type across failure modes rather
// than a distinct Go error type per kind.
type Kind string

const (
	// KindValidation covers malformed or missing primitive parameters.
	// Caught before a primitive's execute is ever invoked.
	KindValidation Kind = "validation"
	// KindNotFound covers an absent key where absence is itself an error
	// (history of an unknown key) as opposed to a normal negative result
	// (retrieve of an unknown key, which is not an error).
	KindNotFound Kind = "not_found"
	// KindResourceExhaustion covers pool and connection caps.
	KindResourceExhaustion Kind = "resource_exhaustion"
	// KindInconsistency covers dimension mismatches and corrupt records:
	// fatal to the call, not to the process.
	KindInconsistency Kind = "inconsistency"
	// KindTransport covers malformed JSON-RPC envelopes.
	KindTransport Kind = "transport"
)

// Error is the single discriminated result type every component returns on
// failure. Components never invent ad hoc error shapes. The MCP layer does
// not map Kind to a JSON-RPC code: a failed tools/call comes back as a
// result with isError set and the text "<tool> failed: [Code] Message".
type Error struct {
	Kind    Kind
	Code    string // short machine-readable code, e.g. "EmptyKey"
	Message string
	Data    any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// New builds an Error with no extra data.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Withf builds an Error with a formatted message.
func Withf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Common sentinel-like constructors for the error codes every primitive
// can return.

func MissingField(field string) *Error {
	return Withf(KindValidation, "MissingField", "missing required field %q", field)
}

func EmptyString(field string) *Error {
	return Withf(KindValidation, "EmptyString", "%s must not be empty", field)
}

func InvalidType(field, want string) *Error {
	return Withf(KindValidation, "InvalidType", "field %q must be %s", field, want)
}

func InvalidSearchType(got string) *Error {
	return Withf(KindValidation, "InvalidSearchType", "unrecognized search type %q", got)
}

func UnsupportedOperation(op string) *Error {
	return Withf(KindValidation, "UnsupportedOperation", "unsupported transform operation %q", op)
}

func InvalidWeights() *Error {
	return New(KindValidation, "InvalidWeights", "at least one of alpha, beta, gamma must be non-zero")
}

func EmptyKey() *Error {
	return New(KindValidation, "EmptyKey", "key must not be empty")
}

func NotFound(key string) *Error {
	return Withf(KindNotFound, "NotFound", "key %q not found", key)
}

func PoolExhausted(pool string) *Error {
	return Withf(KindResourceExhaustion, "PoolExhausted", "pool %q exhausted", pool)
}

func TooManyConnections() *Error {
	return New(KindResourceExhaustion, "TooManyConnections", "too many concurrent agent connections")
}

func DimensionMismatch(want, got int) *Error {
	return Withf(KindInconsistency, "DimensionMismatch", "expected dimension %d, got %d", want, got)
}

func CorruptRecord(detail string) *Error {
	return Withf(KindInconsistency, "CorruptRecord", "corrupt record: %s", detail)
}

func ParseError(detail string) *Error {
	return Withf(KindTransport, "ParseError", "parse error: %s", detail)
}

func InvalidRequest(detail string) *Error {
	return Withf(KindTransport, "InvalidRequest", "invalid request: %s", detail)
}

// As extracts an *Error from any error, returning nil if err is not one (or
// is nil).
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}
