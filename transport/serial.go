package transport

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/grid-x/serial"
)

// RS485Config carries the half-duplex direction-control timing grid-x/serial
// exposes for RS485 transceivers driven by RTS.
type RS485Config struct {
	Enabled            bool
	DelayRtsBeforeSend time.Duration
	DelayRtsAfterSend  time.Duration
	RtsHighDuringSend  bool
	RtsHighAfterSend   bool
	RxDuringTx         bool
}

// SerialConfig describes an RTU transport's serial port.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	// Timeout bounds a single Read call. grid-x/serial blocks indefinitely
	// when this is zero, which would defeat FramedRead's polling loop;
	// callers that leave it unset get pollInterval.
	Timeout time.Duration
	RS485   RS485Config
}

// Serial is the RTU transport: a serial port opened lazily on the first
// Open call and kept open across requests.
type Serial struct {
	cfg SerialConfig

	mu   sync.Mutex
	port io.ReadWriteCloser
}

// NewSerial returns an unopened RTU transport for cfg.
func NewSerial(cfg SerialConfig) *Serial {
	return &Serial{cfg: cfg}
}

func (s *Serial) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open()
}

func (s *Serial) open() error {
	if s.port != nil {
		return nil
	}
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = pollInterval
	}
	port, err := serial.Open(&serial.Config{
		Address:  s.cfg.Device,
		BaudRate: s.cfg.BaudRate,
		DataBits: s.cfg.DataBits,
		StopBits: s.cfg.StopBits,
		Parity:   s.cfg.Parity,
		Timeout:  timeout,
		RS485: serial.RS485Config{
			Enabled:            s.cfg.RS485.Enabled,
			DelayRtsBeforeSend: s.cfg.RS485.DelayRtsBeforeSend,
			DelayRtsAfterSend:  s.cfg.RS485.DelayRtsAfterSend,
			RtsHighDuringSend:  s.cfg.RS485.RtsHighDuringSend,
			RtsHighAfterSend:   s.cfg.RS485.RtsHighAfterSend,
			RxDuringTx:         s.cfg.RS485.RxDuringTx,
		},
	})
	if err != nil {
		return fmt.Errorf("transport: could not open %s: %w", s.cfg.Device, err)
	}
	s.port = port
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Serial) Read(buf []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, fmt.Errorf("transport: serial port %s not open", s.cfg.Device)
	}
	n, err := port.Read(buf)
	if err != nil {
		slog.Debug("serial read error", "device", s.cfg.Device, "err", err)
	}
	return n, err
}

func (s *Serial) Write(buf []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, fmt.Errorf("transport: serial port %s not open", s.cfg.Device)
	}
	return port.Write(buf)
}

// Flush on a serial port has nothing reliable to discard through
// io.ReadWriteCloser alone; callers relying on flush-before-request
// semantics should drain with a short, non-blocking Read loop instead. It
// is a no-op here and always returns nil.
func (s *Serial) Flush() error {
	return nil
}
