// Package frame implements the two wire framings this stack supports:
// Modbus RTU (address + PDU + CRC-16) and Modbus TCP (MBAP header + PDU).
package frame

import (
	"github.com/vektra-io/modbuscore"
	"github.com/vektra-io/modbuscore/crc"
)

// minRTUSize is the smallest possible RTU frame: address, a one-byte
// function code, and the 2-byte CRC.
const minRTUSize = 4

// maxRTUSize is the largest RTU frame this stack will build or accept: 256
// bytes total, the RS-485 serial frame ceiling the protocol was designed
// around.
const maxRTUSize = 256

// RTUFrame is an RTU application data unit: a slave address wrapping a PDU,
// trailed by a CRC-16 that covers the address and PDU bytes.
type RTUFrame struct {
	Address byte
	PDU     modbus.ProtocolDataUnit
}

// EncodeRTU serializes an RTU frame into buf, which must be at least
// 1+1+len(pdu.Data)+2 bytes, and returns the number of bytes written.
func EncodeRTU(buf []byte, f RTUFrame) (int, error) {
	n := 2 + len(f.PDU.Data) + 2
	if n > maxRTUSize {
		return 0, modbus.ErrLongFrame
	}
	if len(buf) < n {
		return 0, modbus.ErrShortFrame
	}
	buf[0] = f.Address
	buf[1] = f.PDU.FunctionCode
	copy(buf[2:], f.PDU.Data)

	sum := crc.Checksum(buf[:n-2])
	buf[n-2] = byte(sum)
	buf[n-1] = byte(sum >> 8)
	return n, nil
}

// DecodeRTU parses an RTU frame out of raw, validating its CRC. The
// returned frame's PDU.Data aliases raw; callers that need to retain it
// past raw's next reuse must copy it.
func DecodeRTU(raw []byte) (RTUFrame, error) {
	if len(raw) < minRTUSize {
		return RTUFrame{}, modbus.ErrShortFrame
	}
	if len(raw) > maxRTUSize {
		return RTUFrame{}, modbus.ErrLongFrame
	}

	payloadLen := len(raw) - 2
	want := crc.Checksum(raw[:payloadLen])
	got := uint16(raw[payloadLen]) | uint16(raw[payloadLen+1])<<8
	if want != got {
		return RTUFrame{}, modbus.ErrCRCMismatch
	}

	return RTUFrame{
		Address: raw[0],
		PDU: modbus.ProtocolDataUnit{
			FunctionCode: raw[1],
			Data:         raw[2:payloadLen],
		},
	}, nil
}

// VerifyRTUEcho reports whether an RTU response frame answers the given
// request: address must match (broadcast responses don't exist, so this
// is a plain equality check).
func VerifyRTUEcho(req, resp RTUFrame) error {
	if req.Address != resp.Address {
		return modbus.ErrUnitMismatch
	}
	if requestFC(req.PDU.FunctionCode) != requestFC(resp.PDU.FunctionCode) {
		return modbus.ErrFunctionMismatch
	}
	return nil
}

func requestFC(fc byte) byte {
	return fc &^ 0x80
}
