package interfaces

import "errors"

// Store errors shared across implementations and callers
var (
	ErrPaperNotFound = errors.New("question paper not found")
)
