// Package errors defines the single compiler error type used across every
// pass of the pipeline, along with the source-position formatting that
// appears on standard output when compilation fails.
package errors

import (
	"fmt"

	"github.com/oops-lang/oopsc/internal/lexer"
)

// Kind tags the originating pass of a CompilerError. It is never printed as
// a message prefix; it exists so callers (and tests) can distinguish error
// categories programmatically.
type Kind int

const (
	Lexical Kind = iota
	Syntactic
	Context
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntactic"
	case Context:
		return "context"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// CompilerError is the one error kind the compiler produces. It always
// carries a single source position.
type CompilerError struct {
	Kind    Kind
	Message string
	Pos     lexer.Position
}

// New creates a CompilerError.
func New(kind Kind, pos lexer.Position, format string, args ...any) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Error renders the single required diagnostic line:
// "Error at line L, col C: <message>".
func (e *CompilerError) Error() string {
	return fmt.Sprintf("Error at line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}
