package modbus

// WriteSingleRequest is the decoded form of a write-single-coil /
// write-single-register request or its echoed response: [fc, addr(2), value(2)].
// For a single coil, value is 0xFF00 (ON) or 0x0000 (OFF).
type WriteSingleRequest struct {
	FunctionCode byte
	Address      uint16
	Value        uint16
}

// MakeWriteSingleRequest builds the 5-byte write-single PDU.
func MakeWriteSingleRequest(req WriteSingleRequest) ProtocolDataUnit {
	buf := make([]byte, 5)
	buf[0] = req.FunctionCode
	putUint16(buf[1:3], req.Address)
	putUint16(buf[3:5], req.Value)
	return ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: buf[1:]}
}

// ParseWriteSingleRequest parses a write-single request or response PDU
// (the wire shape is identical; the slave echoes the request verbatim on
// success).
func ParseWriteSingleRequest(p ProtocolDataUnit) (WriteSingleRequest, error) {
	if len(p.Data) != 4 {
		return WriteSingleRequest{}, wrapf(ErrBadPDU, "write-single: want 4 data bytes, got %d", len(p.Data))
	}
	return WriteSingleRequest{
		FunctionCode: p.FunctionCode,
		Address:      getUint16(p.Data[0:2]),
		Value:        getUint16(p.Data[2:4]),
	}, nil
}

// WriteMultipleRequest is the decoded form of a write-multiple-coils /
// write-multiple-registers request: [fc, addr(2), quantity(2), byteCount, data...].
type WriteMultipleRequest struct {
	FunctionCode byte
	Address      uint16
	Quantity     uint16
	Values       []byte
}

// MakeWriteMultipleRequest builds the write-multiple request PDU.
func MakeWriteMultipleRequest(req WriteMultipleRequest) ProtocolDataUnit {
	buf := make([]byte, 6+len(req.Values))
	buf[0] = req.FunctionCode
	putUint16(buf[1:3], req.Address)
	putUint16(buf[3:5], req.Quantity)
	buf[5] = byte(len(req.Values))
	copy(buf[6:], req.Values)
	return ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: buf[1:]}
}

// ParseWriteMultipleRequest parses a write-multiple request PDU, verifying
// the embedded byte count against the bytes present. Minimum length is 5
// (address, quantity, byte count with zero payload bytes).
func ParseWriteMultipleRequest(p ProtocolDataUnit) (WriteMultipleRequest, error) {
	if len(p.Data) < 5 {
		return WriteMultipleRequest{}, wrapf(ErrShortFrame, "write-multiple request too short: %d bytes", len(p.Data))
	}
	byteCount := int(p.Data[4])
	if len(p.Data) != 5+byteCount {
		return WriteMultipleRequest{}, wrapf(ErrBadPDU, "write-multiple request: byte count %d, have %d", byteCount, len(p.Data)-5)
	}
	return WriteMultipleRequest{
		FunctionCode: p.FunctionCode,
		Address:      getUint16(p.Data[0:2]),
		Quantity:     getUint16(p.Data[2:4]),
		Values:       p.Data[5:],
	}, nil
}

// WriteMultipleResponse is the decoded form of a write-multiple response:
// the server echoes address and quantity, not the payload: [fc, addr(2), quantity(2)].
type WriteMultipleResponse struct {
	FunctionCode byte
	Address      uint16
	Quantity     uint16
}

// MakeWriteMultipleResponse builds the 5-byte write-multiple response PDU.
func MakeWriteMultipleResponse(resp WriteMultipleResponse) ProtocolDataUnit {
	buf := make([]byte, 4)
	putUint16(buf[0:2], resp.Address)
	putUint16(buf[2:4], resp.Quantity)
	return ProtocolDataUnit{FunctionCode: resp.FunctionCode, Data: buf}
}

// ParseWriteMultipleResponse parses a write-multiple response PDU.
func ParseWriteMultipleResponse(p ProtocolDataUnit) (WriteMultipleResponse, error) {
	if len(p.Data) != 4 {
		return WriteMultipleResponse{}, wrapf(ErrBadPDU, "write-multiple response: want 4 data bytes, got %d", len(p.Data))
	}
	return WriteMultipleResponse{
		FunctionCode: p.FunctionCode,
		Address:      getUint16(p.Data[0:2]),
		Quantity:     getUint16(p.Data[2:4]),
	}, nil
}
