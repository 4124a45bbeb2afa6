package model

import "errors"

// Kind classifies a domain failure. The set is closed: every business-rule
// violation surfaced by the services is one of these.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindAlreadyExists
	KindValidation
)

// String returns the kind name used in the error envelope.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "EntityNotFound"
	case KindForbidden:
		return "ForbiddenAction"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindValidation:
		return "DomainValidation"
	default:
		return "Unknown"
	}
}

// Error is a domain failure with a human readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a domain error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation creates a DomainValidation error with a custom message.
func Validation(message string) *Error {
	return NewError(KindValidation, message)
}

// KindOf returns the domain kind of err, or false when err is not a domain error.
func KindOf(err error) (Kind, bool) {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
