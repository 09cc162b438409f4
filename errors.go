package mms

import "errors"

var (
	// ErrSerialization is returned when an expression contains a construct
	// the canonical grammar cannot render (unknown functions, derivative
	// placeholders, symbol names that are not identifiers).
	ErrSerialization = errors.New("mms: expression cannot be serialized")

	// ErrParse is returned for text that does not follow the grammar.
	ErrParse = errors.New("mms: parse error")

	// ErrEval is returned when numeric sampling meets an unbound symbol or
	// an unknown function.
	ErrEval = errors.New("mms: cannot evaluate expression")
)
