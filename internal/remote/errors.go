package remote

import (
	"errors"
	"fmt"
)

// Kinds of remote failure. Match them with errors.Is on any error the
// client returns.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrTransport      = errors.New("transport failure")
)

// Error describes a failed call to the expense API.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Op names the call, e.g. "DELETE /v1/expenses/7".
	Op string
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	// Message is the server's explanation, verbatim, when it sent one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage is the text safe to show on a page.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case ErrAuthentication:
		return "Invalid username or password"
	case ErrAuthorization:
		return "Your session has expired, please sign in again"
	case ErrNotFound:
		return "The expense no longer exists"
	case ErrValidation:
		return "The server rejected the request"
	default:
		return "The expense service is unavailable, please try again"
	}
}

func newError(kind error, op string, status int, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Message: message, Err: err}
}

// IsAuthorization reports whether err means the session is no longer valid.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrAuthorization)
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.UserMessage()
	}
	return "Something went wrong, please try again"
}

var errEmptyData = errors.New("response data is empty")
