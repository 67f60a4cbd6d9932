package modbus

import (
	"log/slog"

	"github.com/vektra-io/modbuscore/transport"
)

// Instance binds one transport to one Modbus role (master or slave) and
// prototype (RTU or TCP). It owns the working buffers every transaction
// reuses and is not safe for concurrent use: callers serialize access to
// an Instance the same way the reference firmware assumes a single task
// drives it.
type Instance struct {
	Transport transport.Transport
	Prototype Prototype
	Role      Role

	// SlaveAddr is this instance's own RTU slave address or TCP unit
	// identifier when acting as a slave. Master calls take the target
	// address as an argument and do not read this field.
	SlaveAddr byte

	Timeouts transport.Timeouts
	Clock    transport.Clock

	// Callbacks services slave-role requests. Unused by a master Instance.
	Callbacks CallbackTable

	Logger *slog.Logger

	txnID uint16
	buf   [260]byte
}

// NewInstance constructs an Instance ready to Open its transport, with
// Timeouts set to transport.DefaultTimeouts() and Clock to
// transport.WallClock. Values assigned to those fields afterwards are used
// as they are.
func NewInstance(t transport.Transport, proto Prototype, role Role, slaveAddr byte) *Instance {
	return &Instance{
		Transport: t,
		Prototype: proto,
		Role:      role,
		SlaveAddr: slaveAddr,
		Timeouts:  transport.DefaultTimeouts(),
		Clock:     transport.WallClock,
	}
}

// log writes a debug-level entry if a logger is configured; it is always
// safe to call on a zero-value Logger field.
func (in *Instance) log(msg string, args ...interface{}) {
	if in.Logger == nil {
		return
	}
	in.Logger.Debug(msg, args...)
}

func (in *Instance) nextTxnID() uint16 {
	in.txnID++
	return in.txnID
}

// Close closes the underlying transport.
func (in *Instance) Close() error {
	if in.Transport == nil {
		return nil
	}
	return in.Transport.Close()
}
