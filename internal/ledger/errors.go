package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the command surface. None is retryable: callers must
// correct input (InvalidInput), give up (NotFound, Unauthorized), or accept
// that the operation already happened (AlreadyClosed).
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("stream not found")
	ErrUnauthorized  = errors.New("caller is not a stream party")
	ErrAlreadyClosed = errors.New("stream already closed")
)

// Stable kind strings carried across IPC and HTTP so clients can surface the
// specific failure rather than a generic one.
const (
	KindInvalidInput  = "invalid_input"
	KindNotFound      = "not_found"
	KindUnauthorized  = "unauthorized"
	KindAlreadyClosed = "already_closed"
	KindInternal      = "internal"
)

// Kind maps an error to its transport classification.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrAlreadyClosed):
		return KindAlreadyClosed
	default:
		return KindInternal
	}
}

// EncodeError flattens an error into "kind: message" form for transports that
// only carry strings (net/rpc).
func EncodeError(err error) string {
	if err == nil {
		return ""
	}
	return Kind(err) + ": " + err.Error()
}

// DecodeError reverses EncodeError, rehydrating the sentinel so errors.Is
// works on the client side of a transport boundary.
func DecodeError(message string) error {
	kind, rest, found := strings.Cut(message, ": ")
	if !found {
		return errors.New(message)
	}
	var sentinel error
	switch kind {
	case KindInvalidInput:
		sentinel = ErrInvalidInput
	case KindNotFound:
		sentinel = ErrNotFound
	case KindUnauthorized:
		sentinel = ErrUnauthorized
	case KindAlreadyClosed:
		sentinel = ErrAlreadyClosed
	default:
		return errors.New(message)
	}
	if rest == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, strings.TrimPrefix(rest, sentinel.Error()+": "))
}
