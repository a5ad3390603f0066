package hub

import "errors"

// Dispatch outcomes that end an event's processing early. None of them is
// fatal to the connection: bad input is dropped, the connection stays up.
var (
	ErrUnknownEvent      = errors.New("unknown event name")
	ErrMalformedPayload  = errors.New("malformed event payload")
	ErrUnknownConnection = errors.New("event references unknown connection")
	ErrWrongRole         = errors.New("event not valid for connection role")
	ErrRateLimited       = errors.New("chat rate limit exceeded")
)
