package engine

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable error category.
type Kind string

const (
	KindAuthentication Kind = "authentication" // missing or invalid principal/credentials
	KindAuthorization  Kind = "authorization"  // non-admin invoking an admin-only operation
	KindValidation     Kind = "validation"     // malformed input
	KindConflict       Kind = "conflict"       // duplicate wager, event not in required status
	KindNotFound       Kind = "not_found"      // unknown event
	KindStorage        Kind = "storage"        // table read/write failure
)

// Error carries a kind plus a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func storageErr(err error) *Error {
	return &Error{Kind: KindStorage, Message: "table access failed", Err: err}
}

// KindOf extracts the kind from an engine error, or empty for foreign
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
