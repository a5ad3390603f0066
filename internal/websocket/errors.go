package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write queue full")
	ErrInvalidPayload   = errors.New("payload not marshalable")
)
