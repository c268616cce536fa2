// Package sqlerr defines the single error type the lowering core returns.
// It is modeled on engine/lexer.ParseError from the teacher repo: a plain
// struct with a message, surfaced through the standard error interface and
// carrying a Kind that errors.Is compares (see ParseError.Is).
package sqlerr

import "fmt"

// Kind classifies why lowering failed (spec §7).
type Kind string

const (
	UnsupportedSelectExpression Kind = "UnsupportedSelectExpression"
	UnsupportedProjection       Kind = "UnsupportedProjection"
	UnsupportedDistinct         Kind = "UnsupportedDistinct"
	UnsupportedJoin             Kind = "UnsupportedJoin"
	UnsupportedLike             Kind = "UnsupportedLike"
	UnsupportedFunctionArity    Kind = "UnsupportedFunctionArity"
	UnknownFunction             Kind = "UnknownFunction"
	ValueOutOfRange             Kind = "ValueOutOfRange"
	BadDate                     Kind = "BadDate"
	BadRegex                    Kind = "BadRegex"
	UnsupportedSQL              Kind = "UnsupportedSQL"
)

// ParseError carries a human-readable message plus the Kind that produced
// it. Lowering is fail-fast (spec §5): the first ParseError short-circuits
// the whole translation.
type ParseError struct {
	Kind    Kind
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// New builds a ParseError with a literal message (used where spec §7 gives
// an exact, verbatim string).
func New(kind Kind, message string) *ParseError {
	return &ParseError{Kind: kind, Message: message}
}

// Newf builds a ParseError with a formatted message.
func Newf(kind Kind, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is makes errors.Is(err, target) report a match when target is a
// *ParseError with the same Kind, whatever either message says; this also
// holds when err was wrapped via fmt.Errorf("%w", ...). A bare Kind is not
// an error value and cannot be passed as target.
func (e *ParseError) Is(target error) bool {
	other, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
