package transport

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindTransport covers network errors and non-2xx responses.
	KindTransport Kind = iota
	// KindDecode means the response arrived but its body was unusable.
	KindDecode
	// KindTimeout means the request's deadline expired first.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

var (
	ErrTransport = errors.New("transport failure")
	ErrDecode    = errors.New("decode failure")
	ErrTimeout   = errors.New("timeout")
)

// Error is returned by every Client method.
type Error struct {
	Kind   Kind
	Op     string // endpoint path
	Status int    // HTTP status when the server answered
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: http %d: %v", e.Kind, e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: http %d", e.Kind, e.Op, e.Status)
	default:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// NewDecodeError wraps err as a decode failure for op. The frame package uses
// it for image bytes that do not decode.
func NewDecodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

// KindOf returns the kind of err, or KindTransport when err is not an *Error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

func classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}
