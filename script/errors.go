package script

import "errors"

// Error types for the script package.
var (
	// ErrEmptyScript is returned when a script contains no operations.
	ErrEmptyScript = errors.New("script contains no operations")

	// ErrTooManyOps is returned when a script exceeds MaxOps operations.
	ErrTooManyOps = errors.New("script exceeds operation limit")

	// ErrUnbalanced is returned when delimiters or quotes do not close.
	ErrUnbalanced = errors.New("unbalanced delimiters")

	// ErrBadArgument is returned when a token matches no literal shape.
	ErrBadArgument = errors.New("unclassifiable argument")
)
