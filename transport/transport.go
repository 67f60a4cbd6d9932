// Package transport defines the byte-transport contract an Instance drives
// (open/close/read/write/flush), the dual-timeout framing read built on
// top of it, and the concrete transports: RTU serial, a TCP client, and an
// adopted (already-connected) socket.
package transport

import "time"

// Transport is the vtable every concrete transport implements. It is the
// single abstraction the master and slave engines drive; they never know
// whether bytes are moving over a serial port or a TCP socket.
type Transport interface {
	// Open establishes the underlying connection. It must be idempotent:
	// calling Open on an already-open transport is a no-op returning nil.
	// A transport with nothing to do to "open" (an adopted socket) also
	// returns nil, not an error — there is no such thing as an unopenable
	// transport in this design.
	Open() error
	// Close tears the connection down. It must be safe to call on a
	// transport that was never opened.
	Close() error
	// Read performs one read attempt into buf, returning the number of
	// bytes read. It must not block indefinitely; FramedRead is what
	// imposes the dual-timeout policy on top of this primitive, so Read
	// itself should return promptly with 0, nil on "nothing available
	// yet" rather than blocking until buf is full.
	Read(buf []byte) (int, error)
	// Write writes buf in full or returns an error.
	Write(buf []byte) (int, error)
	// Flush is called before issuing a new master request so a stale
	// response from a previous, abandoned exchange can't be mistaken for
	// the next one's reply. TCPClient discards unread input; Serial and
	// Adopted implement it as a no-op that returns nil.
	Flush() error
}

// Timeouts bundles the two timers FramedRead enforces.
type Timeouts struct {
	// AckTimeout bounds how long to wait for the first byte of a
	// response before giving up entirely.
	AckTimeout time.Duration
	// ByteTimeout bounds the gap between consecutive bytes once a
	// response has started arriving; a gap this long means the frame is
	// complete (or the far end died mid-frame).
	ByteTimeout time.Duration
}

// DefaultTimeouts matches the thresholds the reference firmware ships
// with: 300ms to wait for the first byte, 32ms of inter-byte silence.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		AckTimeout:  300 * time.Millisecond,
		ByteTimeout: 32 * time.Millisecond,
	}
}
