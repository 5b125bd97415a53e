package auth

import (
	"errors"
	"fmt"
)

// Kind classifies every failure returned by Service.
type Kind int

const (
	// KindValidation means the input was missing or malformed.
	KindValidation Kind = iota + 1
	// KindConflict means the email or phone is already registered.
	KindConflict
	// KindNotFound means no identity matched.
	KindNotFound
	// KindInvalidCredentials means the password did not verify.
	KindInvalidCredentials
	// KindInvalidToken means the session token failed verification.
	KindInvalidToken
	// KindInternal covers storage, hashing and signing failures.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidToken:
		return "invalid_token"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Client facing messages.
const (
	MsgMissingFields = "Please fill all the fields"
	MsgInvalidInput  = "Invalid request data"
	MsgEmailExists   = "Email already exists. Please use a different email."
	MsgPhoneExists   = "Phone number already exists. Please use a different phone number."
	MsgUserExists    = "User already exists"
	MsgInvalidLogin  = "Invalid email or password"
	MsgUserNotFound  = "User not found"
	MsgInvalidToken  = "Invalid or expired token"
	MsgInternal      = "Something went wrong"
)

// Error is the only error type returned by Service.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists the offending request fields for validation and conflict errors.
	Fields []string
	// Missing is set when validation failed because required fields were absent.
	Missing bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("auth %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// KindOf returns the Kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if authErr, ok := AsError(err); ok {
		return authErr.Kind
	}
	return KindInternal
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}
