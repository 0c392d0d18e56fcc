package challenge

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the engine can return across its public
// boundary. Callers branch on the kind, never on message text.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindAlreadyJoined    Kind = "ALREADY_JOINED"
	KindAlreadyCompleted Kind = "ALREADY_COMPLETED"
	KindGated            Kind = "GATED"
	KindFull             Kind = "FULL"
	KindStoreConflict    Kind = "STORE_CONFLICT"
	KindUnexpected       Kind = "UNEXPECTED"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an engine error. Anything that is not an
// *Error is reported as KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
