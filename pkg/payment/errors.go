package payment

import (
	"errors"
	"fmt"
)

// Kind classifies payment errors so the HTTP layer can pick a status code.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindAuth          Kind = "AUTH"
	KindGateway       Kind = "GATEWAY"
	KindCallbackParse Kind = "CALLBACK_PARSE"
	KindUnknown       Kind = "UNKNOWN"
)

// Sentinels usable with errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuth          = &Error{Kind: KindAuth}
	ErrGateway       = &Error{Kind: KindGateway}
	ErrCallbackParse = &Error{Kind: KindCallbackParse}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
