package types

import "errors"

// Payload validation errors
var (
	ErrMissingField = errors.New("missing required field")
)
