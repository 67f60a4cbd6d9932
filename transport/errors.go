package transport

import "errors"

// ErrAckTimeout is returned by FramedRead when no byte arrives within the
// configured acknowledgement timeout.
var ErrAckTimeout = errors.New("transport: no response within ack timeout")
