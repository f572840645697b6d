package bgen

import (
	"errors"
	"fmt"
)

// Kind classifies why a bgen operation failed, letting callers distinguish
// error cases with errors.Is instead of parsing messages.
type Kind uint8

// Error kinds. Every fatal condition in this package resolves to exactly one
// of these.
const (
	_ Kind = iota
	KindInvalidHeader
	KindInvalidBlock
	KindUnsupportedVariant
	KindUnsupportedCompression
	KindMissingIndex
	KindUnknownVariant
	KindTruncatedFile
	KindUnsupportedMode
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeader:
		return "invalid header"
	case KindInvalidBlock:
		return "invalid block"
	case KindUnsupportedVariant:
		return "unsupported variant"
	case KindUnsupportedCompression:
		return "unsupported compression"
	case KindMissingIndex:
		return "missing index"
	case KindUnknownVariant:
		return "unknown variant"
	case KindTruncatedFile:
		return "truncated file"
	case KindUnsupportedMode:
		return "unsupported mode"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every fallible operation in
// this package. It carries a Kind for programmatic dispatch and, when it
// wraps an underlying cause, keeps that cause reachable via Unwrap.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bgen: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("bgen: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, bgen.ErrUnknownVariant) regardless of the message or
// wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func newErrf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of err, if err is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinel kind-only errors, useful with errors.Is against errors returned
// by this package when callers only care about the kind, not the message.
var (
	ErrInvalidHeader          = &Error{Kind: KindInvalidHeader, Msg: "sentinel"}
	ErrInvalidBlock           = &Error{Kind: KindInvalidBlock, Msg: "sentinel"}
	ErrUnsupportedVariant     = &Error{Kind: KindUnsupportedVariant, Msg: "sentinel"}
	ErrUnsupportedCompression = &Error{Kind: KindUnsupportedCompression, Msg: "sentinel"}
	ErrMissingIndex           = &Error{Kind: KindMissingIndex, Msg: "sentinel"}
	ErrUnknownVariant         = &Error{Kind: KindUnknownVariant, Msg: "sentinel"}
	ErrTruncatedFile          = &Error{Kind: KindTruncatedFile, Msg: "sentinel"}
	ErrUnsupportedMode        = &Error{Kind: KindUnsupportedMode, Msg: "sentinel"}
	ErrNotImplemented         = &Error{Kind: KindNotImplemented, Msg: "sentinel"}
)
