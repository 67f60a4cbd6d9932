package frame

import (
	"github.com/vektra-io/modbuscore"
)

// mbapHeaderSize is the length of the MBAP header preceding the PDU:
// transaction id (2), protocol id (2), length (2), unit id (1).
const mbapHeaderSize = 7

// maxTCPSize bounds a TCP application data unit: header plus the largest
// PDU this stack will build or accept.
const maxTCPSize = mbapHeaderSize + modbus.MaxPDUSize

// TCPFrame is a Modbus TCP application data unit: the MBAP header wrapping
// a PDU. ProtocolID is always 0 for Modbus; it is carried here so Encode
// round-trips whatever a caller set, rather than silently overwriting it.
type TCPFrame struct {
	TransactionID uint16
	ProtocolID    uint16
	UnitID        byte
	PDU           modbus.ProtocolDataUnit
}

// EncodeTCP serializes a TCP frame into buf, which must be at least
// 7+1+len(pdu.Data) bytes, and returns the number of bytes written.
func EncodeTCP(buf []byte, f TCPFrame) (int, error) {
	n := mbapHeaderSize + 1 + len(f.PDU.Data)
	if n > maxTCPSize {
		return 0, modbus.ErrLongFrame
	}
	if len(buf) < n {
		return 0, modbus.ErrShortFrame
	}

	putUint16(buf[0:2], f.TransactionID)
	putUint16(buf[2:4], f.ProtocolID)
	// Length covers everything after the length field itself: unit id +
	// function code + data.
	putUint16(buf[4:6], uint16(1+1+len(f.PDU.Data)))
	buf[6] = f.UnitID
	buf[7] = f.PDU.FunctionCode
	copy(buf[8:], f.PDU.Data)
	return n, nil
}

// DecodeTCP parses a TCP frame out of raw. The returned frame's
// PDU.Data aliases raw; callers that need to retain it past raw's next
// reuse must copy it.
func DecodeTCP(raw []byte) (TCPFrame, error) {
	if len(raw) < mbapHeaderSize+1 {
		return TCPFrame{}, modbus.ErrShortFrame
	}

	if getUint16(raw[2:4]) != 0 {
		return TCPFrame{}, modbus.ErrBadPDU
	}

	length := getUint16(raw[4:6])
	if int(length) != len(raw)-6 {
		return TCPFrame{}, modbus.ErrBadPDU
	}

	return TCPFrame{
		TransactionID: getUint16(raw[0:2]),
		ProtocolID:    getUint16(raw[2:4]),
		UnitID:        raw[6],
		PDU: modbus.ProtocolDataUnit{
			FunctionCode: raw[7],
			Data:         raw[8:],
		},
	}, nil
}

// VerifyTCPEcho reports whether a TCP response frame answers the given
// request: the transaction identifier must match, and the response
// function code (modulo the exception flag) must echo the request's.
func VerifyTCPEcho(req, resp TCPFrame) error {
	if req.TransactionID != resp.TransactionID {
		return modbus.ErrTransactionMismatch
	}
	if requestFC(req.PDU.FunctionCode) != requestFC(resp.PDU.FunctionCode) {
		return modbus.ErrFunctionMismatch
	}
	return nil
}

func putUint16(buf []byte, v uint16) {
	buf[0] = byte(v >> 8)
	buf[1] = byte(v)
}

func getUint16(buf []byte) uint16 {
	return uint16(buf[0])<<8 | uint16(buf[1])
}
