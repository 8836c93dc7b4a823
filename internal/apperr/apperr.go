// Package apperr defines the closed set of failure kinds surfaced by the
// credential store, the authenticated client and the media uploader.
// Callers branch on the kind to pick a recovery action (configure,
// log in again, retry the request) instead of parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error
type Kind int

const (
	// KindUnknown is never produced by this module; it is what KindOf
	// returns for foreign errors.
	KindUnknown Kind = iota
	NotConfigured
	MissingCredentials
	AuthExchange
	RefreshFailed
	UnknownAccount
	Lease
	UploadFailed
	Transport
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	NotConfigured:      "not configured",
	MissingCredentials: "missing credentials",
	AuthExchange:       "authorization exchange failed",
	RefreshFailed:      "token refresh failed",
	UnknownAccount:     "unknown account",
	Lease:              "upload lease failed",
	UploadFailed:       "upload failed",
	Transport:          "transport error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured error value shared by all components
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "refresh" or "lease".
	Op string
	// Status is the HTTP status when a response was received.
	Status int
	// Code is a provider error code such as "invalid_grant".
	Code string
	// Body holds the raw response body for debugging. It is not parsed further.
	Body string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets
// callers compare against the package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrNotConfigured      = &Error{Kind: NotConfigured}
	ErrMissingCredentials = &Error{Kind: MissingCredentials}
	ErrAuthExchange       = &Error{Kind: AuthExchange}
	ErrRefreshFailed      = &Error{Kind: RefreshFailed}
	ErrUnknownAccount     = &Error{Kind: UnknownAccount}
	ErrLease              = &Error{Kind: Lease}
	ErrUploadFailed       = &Error{Kind: UploadFailed}
	ErrTransport          = &Error{Kind: Transport}
)

// New creates an error of the given kind
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates an error of the given kind with a formatted cause
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsCredential reports whether err means the user has to log in again
// or finish configuration, as opposed to a failed request.
func IsCredential(err error) bool {
	switch KindOf(err) {
	case NotConfigured, MissingCredentials, RefreshFailed, AuthExchange:
		return true
	}
	return false
}
