// Package apperr classifies failures crossing a service boundary.
//
// Domain packages return sentinel errors; use cases wrap them into an *Error
// with a Kind so transports can map them to status codes and remote clients
// can rebuild them on the other side of the wire.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientStock   Kind = "INSUFFICIENT_STOCK"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindInternal            Kind = "INTERNAL"
)

// SideEffects tells the caller what state a failed workflow left behind.
type SideEffects string

const (
	SideEffectsNone         SideEffects = "none"
	SideEffectsCompensated  SideEffects = "compensated"
	SideEffectsInconsistent SideEffects = "inconsistent"
)

type Error struct {
	Kind        Kind
	Message     string
	SideEffects SideEffects
	Fields      map[string]string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps a kind onto its transport status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func NotFound(msg string, err error) *Error { return Wrap(KindNotFound, msg, err) }

func Upstream(msg string, err error) *Error { return Wrap(KindUpstreamUnavailable, msg, err) }

func Internal(msg string, err error) *Error { return Wrap(KindInternal, msg, err) }

// WithSideEffects returns a copy of e annotated with the workflow outcome.
func (e *Error) WithSideEffects(s SideEffects) *Error {
	c := *e
	c.SideEffects = s
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
