package modbus

import (
	"errors"

	"github.com/vektra-io/modbuscore/frame"
	"github.com/vektra-io/modbuscore/transport"
)

// ReadBitsFunc services a read-coils or read-discrete-inputs request. It
// writes quantity packed bits (LSB-first) into dst and returns 0 on
// success, or one of the negative callback error codes below.
type ReadBitsFunc func(address, quantity uint16, dst []byte) int

// WriteBitsFunc services a write-single-coil (quantity 1) or
// write-multiple-coils request.
type WriteBitsFunc func(address, quantity uint16, values []byte) int

// ReadRegistersFunc services a read-holding-registers or
// read-input-registers request, writing quantity registers into dst.
type ReadRegistersFunc func(address, quantity uint16, dst []uint16) int

// WriteRegistersFunc services a write-single-register (quantity 1) or
// write-multiple-registers request.
type WriteRegistersFunc func(address, quantity uint16, values []uint16) int

// Callback return codes, matching the reference firmware's convention so a
// backing store ported from it needs no translation at this boundary.
const (
	CallbackOK             = 0
	CallbackAddressError   = -2
	CallbackIllegalValue   = -3
	CallbackDeviceFailure  = -4
)

// CallbackTable is the application-supplied dispatch table a slave
// Instance calls into. It is an explicit struct of function values rather
// than a package-level global so a process can host more than one slave
// Instance, each backed by its own register bank, without them trampling
// each other.
type CallbackTable struct {
	ReadDiscrete ReadBitsFunc
	ReadCoil     ReadBitsFunc
	WriteCoil    WriteBitsFunc
	ReadInput    ReadRegistersFunc
	ReadHolding  ReadRegistersFunc
	WriteHolding WriteRegistersFunc
}

// callbackErrorToException maps a callback's negative return code to the
// Modbus exception code the slave engine reports to the master.
func callbackErrorToException(code int) int {
	switch code {
	case CallbackAddressError:
		return ExceptionIllegalDataAddress
	case CallbackIllegalValue:
		return ExceptionIllegalDataValue
	default:
		return ExceptionDeviceFailure
	}
}

// Tick runs one iteration of the slave's receive-dispatch-respond state
// machine. It is meant to be called repeatedly by the host's scheduling
// loop (a bare loop, a cooperative task, a timer callback — the engine
// does not assume any particular runtime). A call that finds no request
// pending blocks for at most Timeouts.AckTimeout before returning nil, the
// same dual-timeout read the master's transaction engine uses to collect a
// response, so a frame whose bytes trickle in with gaps shorter than
// Timeouts.ByteTimeout is still assembled whole.
func (in *Instance) Tick() error {
	if in.Transport == nil {
		return ErrNotConfigured
	}

	total, err := transport.FramedRead(in.Transport, in.Clock, sleepFn, in.Timeouts, in.buf[:])
	if err != nil {
		if errors.Is(err, transport.ErrAckTimeout) {
			return nil // nothing pending
		}
		// A transport read error: close so the next call reopens it.
		_ = in.Transport.Close()
		return err
	}
	if total == 0 {
		return nil
	}

	switch in.Prototype {
	case ProtoRTU:
		return in.tickRTU(in.buf[:total])
	case ProtoTCP:
		return in.tickTCP(in.buf[:total])
	default:
		return ErrNotConfigured
	}
}

func (in *Instance) tickRTU(raw []byte) error {
	reqFrame, err := frame.DecodeRTU(raw)
	if err != nil {
		return nil // malformed or noise on the bus; nothing to answer
	}

	broadcast := reqFrame.Address == 0
	if !broadcast && reqFrame.Address != in.SlaveAddr {
		return nil // not addressed to us
	}

	respPDU, ok := in.dispatch(reqFrame.PDU)
	if broadcast {
		return nil // never answer a broadcast request
	}
	if !ok {
		return nil
	}

	n, err := frame.EncodeRTU(in.buf[:], frame.RTUFrame{Address: in.SlaveAddr, PDU: respPDU})
	if err != nil {
		return wrapf(err, "slave encode response")
	}
	_, err = in.Transport.Write(in.buf[:n])
	return err
}

func (in *Instance) tickTCP(raw []byte) error {
	reqFrame, err := frame.DecodeTCP(raw)
	if err != nil {
		return nil
	}
	if reqFrame.UnitID != in.SlaveAddr {
		return nil
	}

	respPDU, ok := in.dispatch(reqFrame.PDU)
	if !ok {
		return nil
	}

	n, err := frame.EncodeTCP(in.buf[:], frame.TCPFrame{
		TransactionID: reqFrame.TransactionID,
		UnitID:        in.SlaveAddr,
		PDU:           respPDU,
	})
	if err != nil {
		return wrapf(err, "slave encode response")
	}
	_, err = in.Transport.Write(in.buf[:n])
	return err
}

// dispatch routes a request PDU to the configured callback and returns the
// response PDU to send (either a normal response or an exception),
// together with whether a response should be sent at all.
func (in *Instance) dispatch(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	switch req.FunctionCode {
	case FuncCodeReadCoils:
		return in.dispatchReadBits(req, in.Callbacks.ReadCoil)
	case FuncCodeReadDiscreteInputs:
		return in.dispatchReadBits(req, in.Callbacks.ReadDiscrete)
	case FuncCodeReadHoldingRegisters:
		return in.dispatchReadRegisters(req, in.Callbacks.ReadHolding)
	case FuncCodeReadInputRegisters:
		return in.dispatchReadRegisters(req, in.Callbacks.ReadInput)
	case FuncCodeWriteSingleCoil:
		return in.dispatchWriteSingleCoil(req)
	case FuncCodeWriteSingleRegister:
		return in.dispatchWriteSingleRegister(req)
	case FuncCodeWriteMultipleCoils:
		return in.dispatchWriteMultipleCoils(req)
	case FuncCodeWriteMultipleRegisters:
		return in.dispatchWriteMultipleRegisters(req)
	case FuncCodeMaskWriteRegister:
		return in.dispatchMaskWrite(req)
	case FuncCodeReadWriteMultipleRegisters:
		return in.dispatchReadWriteMultiple(req)
	default:
		return MakeException(req.FunctionCode, ExceptionIllegalFunction), true
	}
}

func (in *Instance) dispatchReadBits(req ProtocolDataUnit, fn ReadBitsFunc) (ProtocolDataUnit, bool) {
	rr, err := ParseReadRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if !clampQuantity(rr.Quantity, uint16(1), uint16(MaxReadBits)) {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if fn == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	dst := make([]byte, byteCountForBits(int(rr.Quantity)))
	if code := fn(rr.Address, rr.Quantity, dst); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return MakeReadResponse(req.FunctionCode, dst), true
}

func (in *Instance) dispatchReadRegisters(req ProtocolDataUnit, fn ReadRegistersFunc) (ProtocolDataUnit, bool) {
	rr, err := ParseReadRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if !clampQuantity(rr.Quantity, uint16(1), uint16(MaxReadRegisters)) {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if fn == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	dst := make([]uint16, rr.Quantity)
	if code := fn(rr.Address, rr.Quantity, dst); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	packed := make([]byte, len(dst)*2)
	for i, v := range dst {
		putUint16(packed[i*2:i*2+2], v)
	}
	return MakeReadResponse(req.FunctionCode, packed), true
}

func (in *Instance) dispatchWriteSingleCoil(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	wr, err := ParseWriteSingleRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if wr.Value != 0x0000 && wr.Value != 0xFF00 {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.WriteCoil == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	value := []byte{0}
	if wr.Value == 0xFF00 {
		value[0] = 1
	}
	if code := in.Callbacks.WriteCoil(wr.Address, 1, value); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return req, true // success echoes the request verbatim
}

func (in *Instance) dispatchWriteSingleRegister(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	wr, err := ParseWriteSingleRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.WriteHolding == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	if code := in.Callbacks.WriteHolding(wr.Address, 1, []uint16{wr.Value}); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return req, true
}

func (in *Instance) dispatchWriteMultipleCoils(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	wr, err := ParseWriteMultipleRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if !clampQuantity(wr.Quantity, uint16(1), uint16(MaxWriteBits)) || len(wr.Values) != byteCountForBits(int(wr.Quantity)) {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.WriteCoil == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	if code := in.Callbacks.WriteCoil(wr.Address, wr.Quantity, wr.Values); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return MakeWriteMultipleResponse(WriteMultipleResponse{
		FunctionCode: req.FunctionCode,
		Address:      wr.Address,
		Quantity:     wr.Quantity,
	}), true
}

func (in *Instance) dispatchWriteMultipleRegisters(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	wr, err := ParseWriteMultipleRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if !clampQuantity(wr.Quantity, uint16(1), uint16(MaxWriteRegisters)) || len(wr.Values) != int(wr.Quantity)*2 {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.WriteHolding == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	values := make([]uint16, wr.Quantity)
	for i := range values {
		values[i] = getUint16(wr.Values[i*2 : i*2+2])
	}
	if code := in.Callbacks.WriteHolding(wr.Address, wr.Quantity, values); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return MakeWriteMultipleResponse(WriteMultipleResponse{
		FunctionCode: req.FunctionCode,
		Address:      wr.Address,
		Quantity:     wr.Quantity,
	}), true
}

// dispatchMaskWrite implements function 0x16 atop the plain
// ReadHolding/WriteHolding callbacks — the reference firmware's callback
// table has no dedicated mask-write slot, so the slave engine itself does
// the read-modify-write instead of asking the backing store to.
func (in *Instance) dispatchMaskWrite(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	mw, err := ParseMaskWriteRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.ReadHolding == nil || in.Callbacks.WriteHolding == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}
	var current [1]uint16
	if code := in.Callbacks.ReadHolding(mw.Address, 1, current[:]); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	result := ApplyMask(current[0], mw.AndMask, mw.OrMask)
	if code := in.Callbacks.WriteHolding(mw.Address, 1, []uint16{result}); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	return req, true
}

func (in *Instance) dispatchReadWriteMultiple(req ProtocolDataUnit) (ProtocolDataUnit, bool) {
	rw, err := ParseReadWriteMultipleRequest(req)
	if err != nil {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if !clampQuantity(rw.ReadQuantity, uint16(1), uint16(MaxReadRegisters)) ||
		!clampQuantity(rw.WriteQuantity, uint16(1), uint16(MaxReadWriteWriteRegisters)) ||
		len(rw.WriteValues) != int(rw.WriteQuantity)*2 {
		return MakeException(req.FunctionCode, ExceptionIllegalDataValue), true
	}
	if in.Callbacks.ReadHolding == nil || in.Callbacks.WriteHolding == nil {
		return MakeException(req.FunctionCode, ExceptionDeviceFailure), true
	}

	writeValues := make([]uint16, rw.WriteQuantity)
	for i := range writeValues {
		writeValues[i] = getUint16(rw.WriteValues[i*2 : i*2+2])
	}
	// The write is applied before the read, per the Modbus Application
	// Protocol's specification of function 0x17.
	if code := in.Callbacks.WriteHolding(rw.WriteAddress, rw.WriteQuantity, writeValues); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}

	dst := make([]uint16, rw.ReadQuantity)
	if code := in.Callbacks.ReadHolding(rw.ReadAddress, rw.ReadQuantity, dst); code != CallbackOK {
		return MakeException(req.FunctionCode, callbackErrorToException(code)), true
	}
	packed := make([]byte, len(dst)*2)
	for i, v := range dst {
		putUint16(packed[i*2:i*2+2], v)
	}
	return MakeReadResponse(req.FunctionCode, packed), true
}
