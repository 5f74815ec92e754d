package scriptit

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a ScriptError by the stage that produced it.
type ErrorKind string

const (
	ErrCast          ErrorKind = "cast"
	ErrCompile       ErrorKind = "compile"
	ErrRuntime       ErrorKind = "runtime"
	ErrSerialization ErrorKind = "serialization"
)

// ScriptError is the single error type returned by every Environment.
// From and To are only set for ErrCast and always hold static type
// descriptors, never user data.
type ScriptError struct {
	Kind    ErrorKind
	Message string
	From    string
	To      string
	Cause   error
}

func (e *ScriptError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == ErrCast {
		return fmt.Sprintf("cast error: casting from `%s` to `%s` failed", e.From, e.To)
	}
	return string(e.Kind) + " error: " + e.Message
}

func (e *ScriptError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewCastError(from, to string) *ScriptError {
	return &ScriptError{Kind: ErrCast, From: from, To: to}
}

func NewCompileError(msg string) *ScriptError {
	return &ScriptError{Kind: ErrCompile, Message: msg}
}

func NewRuntimeError(msg string) *ScriptError {
	return &ScriptError{Kind: ErrRuntime, Message: msg}
}

func NewSerializationError(cause error) *ScriptError {
	return &ScriptError{Kind: ErrSerialization, Message: cause.Error(), Cause: cause}
}

// IsKind reports whether err is a ScriptError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
