package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// ErrNotSelect is returned when the input is not a single SELECT statement.
var ErrNotSelect = errors.New("only a single SELECT statement is supported")

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnexpectedInExpr   = "unexpected token in expression: %s"
	ErrTrailingInput      = "unexpected %s after end of statement"
)
