package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// TCPClient is a master-side TCP transport: it dials the slave's address
// lazily on Open and redials on the next Open after a Close.
type TCPClient struct {
	Address string
	Dialer  net.Dialer

	mu   sync.Mutex
	conn net.Conn
}

// NewTCPClient returns an unopened TCP transport dialing address.
func NewTCPClient(address string) *TCPClient {
	return &TCPClient{Address: address}
}

func (c *TCPClient) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, err := c.Dialer.Dial("tcp", c.Address)
	if err != nil {
		return fmt.Errorf("transport: could not dial %s: %w", c.Address, err)
	}
	c.conn = conn
	return nil
}

func (c *TCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *TCPClient) Read(buf []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("transport: %s not open", c.Address)
	}
	// A short deadline turns this blocking socket read into the
	// nothing-yet-available-returns-promptly primitive FramedRead expects,
	// without requiring a separate non-blocking I/O mode per platform.
	_ = conn.SetReadDeadline(time.Now().Add(pollInterval))
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func (c *TCPClient) Write(buf []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("transport: %s not open", c.Address)
	}
	return conn.Write(buf)
}

// Flush drains any bytes already buffered on the socket without blocking,
// discarding a stale response left over from an abandoned exchange.
func (c *TCPClient) Flush() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	discard := make([]byte, 256)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, err := conn.Read(discard)
		if n == 0 || err != nil {
			return nil
		}
	}
}
