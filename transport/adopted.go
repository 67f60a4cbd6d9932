package transport

import (
	"io"
	"net"
	"time"
)

// Adopted wraps a connection the caller already established — typically a
// net.Conn accepted by a slave-side TCP listener, or an RTU-over-TCP
// tunnel — so the master/slave engine can drive it through the same
// Transport contract as a dialed or serial connection.
//
// Open is a deliberate no-op returning nil: there is nothing left to open,
// and reporting an error here (as the reference firmware's null-vtable
// check used to) would make every adopted connection unusable.
type Adopted struct {
	Conn io.ReadWriteCloser
}

// NewAdopted wraps an already-connected stream.
func NewAdopted(conn io.ReadWriteCloser) *Adopted {
	return &Adopted{Conn: conn}
}

func (a *Adopted) Open() error { return nil }

func (a *Adopted) Close() error {
	if a.Conn == nil {
		return nil
	}
	return a.Conn.Close()
}

func (a *Adopted) Read(buf []byte) (int, error) {
	if nc, ok := a.Conn.(net.Conn); ok {
		_ = nc.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := nc.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return n, nil
			}
			return n, err
		}
		return n, nil
	}
	return a.Conn.Read(buf)
}

func (a *Adopted) Write(buf []byte) (int, error) {
	return a.Conn.Write(buf)
}

// Flush is a no-op: an adopted connection's buffering is the caller's to
// manage, since the caller is the one that accepted it.
func (a *Adopted) Flush() error {
	return nil
}
