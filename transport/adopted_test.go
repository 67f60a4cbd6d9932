package transport

import (
	"io"
	"testing"
)

type pipeConn struct {
	r io.Reader
	w io.Writer
}

func (p pipeConn) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeConn) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeConn) Close() error                { return nil }

func TestAdoptedOpenIsAlwaysSuccess(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	a := NewAdopted(pipeConn{r: r, w: w})

	if err := a.Open(); err != nil {
		t.Fatalf("Adopted.Open() = %v, want nil", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("second Adopted.Open() = %v, want nil", err)
	}
}

func TestAdoptedWriteRead(t *testing.T) {
	r, w := io.Pipe()
	a := NewAdopted(pipeConn{r: r, w: w})

	go func() {
		_, _ = a.Write([]byte{0x01, 0x02, 0x03})
	}()

	buf := make([]byte, 3)
	n, err := a.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 3 {
		t.Fatalf("Read = %d bytes, want 3", n)
	}
}
