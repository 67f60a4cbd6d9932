package modbus

// ReadRequest is the decoded form of a read-coils / read-discrete-inputs /
// read-holding-registers / read-input-registers request: [fc, addr(2), quantity(2)].
type ReadRequest struct {
	FunctionCode byte
	Address      uint16
	Quantity     uint16
}

// MakeReadRequest builds the 5-byte read request PDU.
func MakeReadRequest(req ReadRequest) ProtocolDataUnit {
	buf := make([]byte, 5)
	buf[0] = req.FunctionCode
	putUint16(buf[1:3], req.Address)
	putUint16(buf[3:5], req.Quantity)
	return ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: buf[1:]}
}

// ParseReadRequest parses a read request PDU. p.Data must be exactly 4
// bytes (address + quantity); anything else is ErrBadPDU.
func ParseReadRequest(p ProtocolDataUnit) (ReadRequest, error) {
	if len(p.Data) != 4 {
		return ReadRequest{}, wrapf(ErrBadPDU, "read request: want 4 data bytes, got %d", len(p.Data))
	}
	return ReadRequest{
		FunctionCode: p.FunctionCode,
		Address:      getUint16(p.Data[0:2]),
		Quantity:     getUint16(p.Data[2:4]),
	}, nil
}

// ReadResponse is the decoded form of a read response: [fc, byteCount, data...].
// Values borrows into the PDU's own Data slice.
type ReadResponse struct {
	FunctionCode byte
	Values       []byte
}

// MakeReadResponse builds a read response PDU, prefixing values with its
// own length byte as the wire format requires.
func MakeReadResponse(fc byte, values []byte) ProtocolDataUnit {
	buf := make([]byte, 1+len(values))
	buf[0] = byte(len(values))
	copy(buf[1:], values)
	return ProtocolDataUnit{FunctionCode: fc, Data: buf}
}

// ParseReadResponse parses a read response PDU, verifying the embedded byte
// count against the bytes actually present.
func ParseReadResponse(p ProtocolDataUnit) (ReadResponse, error) {
	if len(p.Data) < 1 {
		return ReadResponse{}, wrapf(ErrShortFrame, "read response missing byte count")
	}
	byteCount := int(p.Data[0])
	if len(p.Data) != 1+byteCount {
		return ReadResponse{}, wrapf(ErrBadPDU, "read response: byte count %d, have %d", byteCount, len(p.Data)-1)
	}
	return ReadResponse{FunctionCode: p.FunctionCode, Values: p.Data[1:]}, nil
}
