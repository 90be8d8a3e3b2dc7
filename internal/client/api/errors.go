package api

import (
	"errors"
	"fmt"
)

// ErrNotImplemented is matched by calls to endpoints that have no backing
// implementation yet.
var ErrNotImplemented = errors.New("not implemented")

// Kind classifies an Error.
type Kind int

const (
	// KindTransport means the request never produced a usable response.
	KindTransport Kind = iota + 1
	// KindRejected means the backend answered, but not with success.
	KindRejected
	// KindUnimplemented marks placeholder endpoints.
	KindUnimplemented
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindUnimplemented:
		return "unimplemented"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure type of this package and of the containers built
// on it. Message is meant for the user.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// Message builds the user-facing text for a failed call. It prefers the
// server's "message" field, then the transport error, then fallback with
// the status code appended.
func Message(resp *Response, err error, fallback string) string {
	if resp != nil {
		if msg := resp.JSON().Get("message").String(); msg != "" {
			return msg
		}
	}
	if err != nil {
		if msg := err.Error(); msg != "" {
			return msg
		}
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return fmt.Sprintf("%s (status code: %d)", fallback, status)
}

// Reject turns a failed call into an *Error. A non-nil err makes it a
// transport failure; otherwise the response is a rejection.
func Reject(resp *Response, err error, fallback string) *Error {
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Kind != KindTransport {
			return apiErr
		}
		status := 0
		if apiErr != nil {
			status = apiErr.StatusCode
		}
		return &Error{
			Kind:       KindTransport,
			StatusCode: status,
			Message:    Message(nil, err, fallback),
			Err:        err,
		}
	}
	e := &Error{Kind: KindRejected, Message: Message(resp, nil, fallback)}
	if resp != nil {
		e.StatusCode = resp.StatusCode
	}
	return e
}

func unimplemented(op string) error {
	return &Error{
		Kind:    KindUnimplemented,
		Message: op + ": not implemented",
		Err:     ErrNotImplemented,
	}
}
