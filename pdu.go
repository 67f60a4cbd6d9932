package modbus

// ProtocolDataUnit is the function-code-plus-payload unit shared by every
// Modbus frame, independent of whether it travels inside an RTU or a TCP
// frame. Data borrows from whatever buffer it was parsed out of; callers
// that need to retain it past the buffer's next reuse must copy it.
type ProtocolDataUnit struct {
	FunctionCode byte
	Data         []byte
}

// IsException reports whether this PDU carries an exception response (the
// high bit of the function code set).
func (p ProtocolDataUnit) IsException() bool {
	return p.FunctionCode&exceptionFlag != 0
}

// ExceptionCode returns the exception code carried by an exception PDU, or
// 0 if this is not an exception PDU. Callers should check IsException
// first; ExceptionCode on a non-exception or malformed PDU returns 0.
func (p ProtocolDataUnit) ExceptionCode() int {
	if !p.IsException() || len(p.Data) < 1 {
		return 0
	}
	return int(p.Data[0])
}

// requestFunctionCode strips the exception flag, recovering the function
// code a response (exception or not) is answering.
func requestFunctionCode(fc byte) byte {
	return fc &^ exceptionFlag
}

// MakeException builds the 2-byte exception PDU for function fc with the
// given exception code, per the Modbus Application Protocol exception
// response layout: [fc|0x80, code].
func MakeException(fc byte, code int) ProtocolDataUnit {
	return ProtocolDataUnit{
		FunctionCode: fc | exceptionFlag,
		Data:         []byte{byte(code)},
	}
}

// ParseException parses a 2-byte exception PDU. It returns ErrBadPDU if p
// is not marked as an exception, and ErrShortFrame if its code byte is
// missing.
func ParseException(p ProtocolDataUnit) (code int, err error) {
	if !p.IsException() {
		return 0, wrapf(ErrBadPDU, "not an exception PDU")
	}
	if len(p.Data) < 1 {
		return 0, wrapf(ErrShortFrame, "exception PDU missing code byte")
	}
	return int(p.Data[0]), nil
}
