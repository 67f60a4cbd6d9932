package modbus

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the framing/parsing failure taxonomy.
// Callers that need to distinguish failure kinds without string matching
// should use errors.Is against these.
var (
	// ErrShortFrame is returned when a frame is too short to contain a
	// valid address/header, PDU, and checksum.
	ErrShortFrame = errors.New("modbus: frame too short")
	// ErrLongFrame is returned when a frame exceeds the maximum size this
	// stack will build or accept.
	ErrLongFrame = errors.New("modbus: frame too long")
	// ErrCRCMismatch is returned when an RTU frame's trailing CRC-16 does
	// not match the computed checksum of the preceding bytes.
	ErrCRCMismatch = errors.New("modbus: CRC mismatch")
	// ErrBadPDU is returned when a PDU's function code or internal length
	// fields are inconsistent with the bytes present.
	ErrBadPDU = errors.New("modbus: malformed PDU")
	// ErrUnitMismatch is returned when an RTU response's slave address
	// does not match the request that was sent.
	ErrUnitMismatch = errors.New("modbus: unit identifier mismatch")
	// ErrTransactionMismatch is returned when a TCP response's transaction
	// identifier does not match the outstanding request.
	ErrTransactionMismatch = errors.New("modbus: transaction identifier mismatch")
	// ErrFunctionMismatch is returned when a response's function code
	// (modulo the exception flag) does not echo the request's.
	ErrFunctionMismatch = errors.New("modbus: function code mismatch")
	// ErrTimeout names a response timeout. No function in this module
	// returns it: the master engine reports a timeout as a Result of kind
	// ResultTimeout, and transport.FramedRead returns transport.ErrAckTimeout.
	ErrTimeout = errors.New("modbus: response timeout")
	// ErrInvalidArgument is returned when a caller-supplied quantity falls
	// outside the range the function code allows.
	ErrInvalidArgument = errors.New("modbus: invalid argument")
	// ErrNotConfigured is returned when an operation is attempted against
	// an Instance with no transport or with an unknown Prototype.
	ErrNotConfigured = errors.New("modbus: not configured")
)

// wrapf mirrors the fmt.Errorf("modbus: ...: %w", err) convention used
// throughout this package, collecting it in one helper so the prefix never
// drifts between call sites.
func wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("modbus: "+format+": %w", append(args, err)...)
}
