package modbus

// ReadWriteMultipleRequest is the decoded form of function 0x17: a single
// round trip that reads one register range and writes another, the write
// applied before the read per the Modbus Application Protocol.
// Wire shape: [fc, readAddr(2), readQty(2), writeAddr(2), writeQty(2), byteCount, data...].
type ReadWriteMultipleRequest struct {
	FunctionCode   byte
	ReadAddress    uint16
	ReadQuantity   uint16
	WriteAddress   uint16
	WriteQuantity  uint16
	WriteValues    []byte
}

// MakeReadWriteMultipleRequest builds the function-0x17 request PDU.
func MakeReadWriteMultipleRequest(req ReadWriteMultipleRequest) ProtocolDataUnit {
	buf := make([]byte, 10+len(req.WriteValues))
	buf[0] = req.FunctionCode
	putUint16(buf[1:3], req.ReadAddress)
	putUint16(buf[3:5], req.ReadQuantity)
	putUint16(buf[5:7], req.WriteAddress)
	putUint16(buf[7:9], req.WriteQuantity)
	buf[9] = byte(len(req.WriteValues))
	copy(buf[10:], req.WriteValues)
	return ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: buf[1:]}
}

// ParseReadWriteMultipleRequest parses a function-0x17 request PDU.
// Minimum length is 10 (the four 2-byte fields preceding the byte count,
// the byte-count byte, and at least one payload byte) — matching the
// original firmware's 11-byte PDU-including-function-code floor.
func ParseReadWriteMultipleRequest(p ProtocolDataUnit) (ReadWriteMultipleRequest, error) {
	if len(p.Data) < 10 {
		return ReadWriteMultipleRequest{}, wrapf(ErrShortFrame, "read/write-multiple request too short: %d bytes", len(p.Data))
	}
	byteCount := int(p.Data[8])
	if len(p.Data) != 9+byteCount {
		return ReadWriteMultipleRequest{}, wrapf(ErrBadPDU, "read/write-multiple request: byte count %d, have %d", byteCount, len(p.Data)-9)
	}
	return ReadWriteMultipleRequest{
		FunctionCode:  p.FunctionCode,
		ReadAddress:   getUint16(p.Data[0:2]),
		ReadQuantity:  getUint16(p.Data[2:4]),
		WriteAddress:  getUint16(p.Data[4:6]),
		WriteQuantity: getUint16(p.Data[6:8]),
		WriteValues:   p.Data[9:],
	}, nil
}

// the response to function 0x17 is shaped exactly like an ordinary read
// response ([fc, byteCount, data...]); ReadResponse/ParseReadResponse from
// pdu_read.go cover it, so no separate type is introduced here.
