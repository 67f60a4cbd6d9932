package modbus

// MaskWriteRequest is the decoded form of a mask-write-register request or
// its echoed response: [fc, addr(2), and(2), or(2)]. The slave applies
// result = (current & andMask) | (orMask & ^andMask).
type MaskWriteRequest struct {
	FunctionCode byte
	Address      uint16
	AndMask      uint16
	OrMask       uint16
}

// MakeMaskWriteRequest builds the 7-byte mask-write PDU.
func MakeMaskWriteRequest(req MaskWriteRequest) ProtocolDataUnit {
	buf := make([]byte, 7)
	buf[0] = req.FunctionCode
	putUint16(buf[1:3], req.Address)
	putUint16(buf[3:5], req.AndMask)
	putUint16(buf[5:7], req.OrMask)
	return ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: buf[1:]}
}

// ParseMaskWriteRequest parses a mask-write request or echoed response PDU.
func ParseMaskWriteRequest(p ProtocolDataUnit) (MaskWriteRequest, error) {
	if len(p.Data) != 6 {
		return MaskWriteRequest{}, wrapf(ErrBadPDU, "mask-write: want 6 data bytes, got %d", len(p.Data))
	}
	return MaskWriteRequest{
		FunctionCode: p.FunctionCode,
		Address:      getUint16(p.Data[0:2]),
		AndMask:      getUint16(p.Data[2:4]),
		OrMask:       getUint16(p.Data[4:6]),
	}, nil
}

// ApplyMask computes the result of applying a mask-write operation to the
// current register value, per the Modbus Application Protocol formula.
func ApplyMask(current, andMask, orMask uint16) uint16 {
	return (current & andMask) | (orMask &^ andMask)
}
