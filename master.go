package modbus

import (
	"errors"
	"time"

	"github.com/vektra-io/modbuscore/frame"
	"github.com/vektra-io/modbuscore/transport"
)

// exchange drives one master transaction: flush stale input, wrap and
// write the request, read the response with the dual-timeout framing
// read, and verify it echoes the request before handing the PDU back.
// addr 0 under RTU is the broadcast address: per the Modbus specification
// no slave replies to a broadcast write, so exchange writes and returns
// immediately without waiting for a response.
func (in *Instance) exchange(addr byte, req ProtocolDataUnit) (ProtocolDataUnit, Result, bool) {
	if in.Transport == nil {
		return ProtocolDataUnit{}, transportErrorResult(ErrNotConfigured), false
	}

	if err := in.Transport.Open(); err != nil {
		return ProtocolDataUnit{}, transportErrorResult(err), false
	}
	if err := in.Transport.Flush(); err != nil {
		return ProtocolDataUnit{}, transportErrorResult(err), false
	}

	wireLen, err := in.encodeRequest(addr, req)
	if err != nil {
		return ProtocolDataUnit{}, framingErrorResult(err), false
	}

	if _, err := in.Transport.Write(in.buf[:wireLen]); err != nil {
		_ = in.Transport.Close()
		return ProtocolDataUnit{}, transportErrorResult(err), false
	}

	if in.Prototype == ProtoRTU && addr == 0 {
		return ProtocolDataUnit{}, okResult(0), false
	}

	n, err := transport.FramedRead(in.Transport, in.Clock, sleepFn, in.Timeouts, in.buf[:])
	if err != nil {
		if errors.Is(err, transport.ErrAckTimeout) {
			return ProtocolDataUnit{}, timeoutResult(), false
		}
		_ = in.Transport.Close()
		return ProtocolDataUnit{}, transportErrorResult(err), false
	}

	respPDU, err := in.decodeAndVerify(addr, req, in.buf[:n])
	if err != nil {
		return ProtocolDataUnit{}, framingErrorResult(err), false
	}

	if respPDU.IsException() {
		code, err := ParseException(respPDU)
		if err != nil {
			return ProtocolDataUnit{}, framingErrorResult(err), false
		}
		return ProtocolDataUnit{}, exceptionResult(code), false
	}

	return respPDU, Result{}, true
}

func (in *Instance) encodeRequest(addr byte, req ProtocolDataUnit) (int, error) {
	switch in.Prototype {
	case ProtoRTU:
		return frame.EncodeRTU(in.buf[:], frame.RTUFrame{Address: addr, PDU: req})
	case ProtoTCP:
		txnID := in.nextTxnID()
		return frame.EncodeTCP(in.buf[:], frame.TCPFrame{
			TransactionID: txnID,
			UnitID:        addr,
			PDU:           req,
		})
	default:
		return 0, ErrNotConfigured
	}
}

func (in *Instance) decodeAndVerify(addr byte, req ProtocolDataUnit, raw []byte) (ProtocolDataUnit, error) {
	switch in.Prototype {
	case ProtoRTU:
		respFrame, err := frame.DecodeRTU(raw)
		if err != nil {
			return ProtocolDataUnit{}, err
		}
		reqFrame := frame.RTUFrame{Address: addr, PDU: req}
		if err := frame.VerifyRTUEcho(reqFrame, respFrame); err != nil {
			return ProtocolDataUnit{}, err
		}
		return respFrame.PDU, nil
	case ProtoTCP:
		respFrame, err := frame.DecodeTCP(raw)
		if err != nil {
			return ProtocolDataUnit{}, err
		}
		reqFrame := frame.TCPFrame{TransactionID: in.txnID, PDU: req}
		if err := frame.VerifyTCPEcho(reqFrame, respFrame); err != nil {
			return ProtocolDataUnit{}, err
		}
		return respFrame.PDU, nil
	default:
		return ProtocolDataUnit{}, ErrNotConfigured
	}
}

func sleepFn(d time.Duration) { time.Sleep(d) }

// ReadCoils reads quantity coils starting at address from the slave at addr.
func (in *Instance) ReadCoils(addr byte, address, quantity uint16) Result {
	return in.readBits(FuncCodeReadCoils, addr, address, quantity)
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address.
func (in *Instance) ReadDiscreteInputs(addr byte, address, quantity uint16) Result {
	return in.readBits(FuncCodeReadDiscreteInputs, addr, address, quantity)
}

func (in *Instance) readBits(fc byte, addr byte, address, quantity uint16) Result {
	if !clampQuantity(quantity, uint16(1), uint16(MaxReadBits)) {
		return transportErrorResult(ErrInvalidArgument)
	}
	req := MakeReadRequest(ReadRequest{FunctionCode: fc, Address: address, Quantity: quantity})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	rr, err := ParseReadResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	if len(rr.Values) != byteCountForBits(int(quantity)) {
		return framingErrorResult(wrapf(ErrBadPDU, "read bits: %d bytes for %d bits", len(rr.Values), quantity))
	}
	return okResult(int(quantity))
}

// ReadCoilsInto reads quantity coils into dst (LSB-first packed bits). The
// Result's Count is the number of bytes written to dst.
func (in *Instance) ReadCoilsInto(addr byte, address, quantity uint16, dst []byte) Result {
	return in.readBitsInto(FuncCodeReadCoils, addr, address, quantity, dst)
}

// ReadDiscreteInputsInto reads quantity discrete inputs into dst.
func (in *Instance) ReadDiscreteInputsInto(addr byte, address, quantity uint16, dst []byte) Result {
	return in.readBitsInto(FuncCodeReadDiscreteInputs, addr, address, quantity, dst)
}

func (in *Instance) readBitsInto(fc byte, addr byte, address, quantity uint16, dst []byte) Result {
	if !clampQuantity(quantity, uint16(1), uint16(MaxReadBits)) {
		return transportErrorResult(ErrInvalidArgument)
	}
	req := MakeReadRequest(ReadRequest{FunctionCode: fc, Address: address, Quantity: quantity})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	rr, err := ParseReadResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	n := copy(dst, rr.Values)
	return okResult(n)
}

// ReadHoldingRegisters reads quantity holding registers into dst (one
// uint16 per element) starting at address.
func (in *Instance) ReadHoldingRegisters(addr byte, address, quantity uint16, dst []uint16) Result {
	return in.readRegisters(FuncCodeReadHoldingRegisters, addr, address, quantity, dst)
}

// ReadInputRegisters reads quantity input registers into dst.
func (in *Instance) ReadInputRegisters(addr byte, address, quantity uint16, dst []uint16) Result {
	return in.readRegisters(FuncCodeReadInputRegisters, addr, address, quantity, dst)
}

func (in *Instance) readRegisters(fc byte, addr byte, address, quantity uint16, dst []uint16) Result {
	if !clampQuantity(quantity, uint16(1), uint16(MaxReadRegisters)) {
		return transportErrorResult(ErrInvalidArgument)
	}
	req := MakeReadRequest(ReadRequest{FunctionCode: fc, Address: address, Quantity: quantity})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	rr, err := ParseReadResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	n := registersNeeded(len(rr.Values))
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = getUint16(rr.Values[i*2 : i*2+2])
	}
	return okResult(n)
}

// WriteSingleCoil writes a single coil. value true encodes as 0xFF00,
// false as 0x0000, per the Modbus wire convention.
func (in *Instance) WriteSingleCoil(addr byte, address uint16, value bool) Result {
	v := uint16(0x0000)
	if value {
		v = 0xFF00
	}
	req := MakeWriteSingleRequest(WriteSingleRequest{FunctionCode: FuncCodeWriteSingleCoil, Address: address, Value: v})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	if _, err := ParseWriteSingleRequest(resp); err != nil {
		return framingErrorResult(err)
	}
	return okResult(1)
}

// WriteSingleRegister writes a single holding register.
func (in *Instance) WriteSingleRegister(addr byte, address, value uint16) Result {
	req := MakeWriteSingleRequest(WriteSingleRequest{FunctionCode: FuncCodeWriteSingleRegister, Address: address, Value: value})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	if _, err := ParseWriteSingleRequest(resp); err != nil {
		return framingErrorResult(err)
	}
	return okResult(1)
}

// WriteMultipleCoils writes quantity coils, packed LSB-first in values,
// starting at address.
func (in *Instance) WriteMultipleCoils(addr byte, address uint16, quantity uint16, values []byte) Result {
	if !clampQuantity(quantity, uint16(1), uint16(MaxWriteBits)) {
		return transportErrorResult(ErrInvalidArgument)
	}
	req := MakeWriteMultipleRequest(WriteMultipleRequest{
		FunctionCode: FuncCodeWriteMultipleCoils,
		Address:      address,
		Quantity:     quantity,
		Values:       values,
	})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	wr, err := ParseWriteMultipleResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	return okResult(int(wr.Quantity))
}

// WriteMultipleRegisters writes the given registers starting at address.
func (in *Instance) WriteMultipleRegisters(addr byte, address uint16, values []uint16) Result {
	quantity := len(values)
	if !clampQuantity(quantity, 1, MaxWriteRegisters) {
		return transportErrorResult(ErrInvalidArgument)
	}
	payload := make([]byte, quantity*2)
	for i, v := range values {
		putUint16(payload[i*2:i*2+2], v)
	}
	req := MakeWriteMultipleRequest(WriteMultipleRequest{
		FunctionCode: FuncCodeWriteMultipleRegisters,
		Address:      address,
		Quantity:     uint16(quantity),
		Values:       payload,
	})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	wr, err := ParseWriteMultipleResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	return okResult(int(wr.Quantity))
}

// MaskWriteRegister applies (current & andMask) | (orMask &^ andMask) to
// the register at address on the slave.
func (in *Instance) MaskWriteRegister(addr byte, address, andMask, orMask uint16) Result {
	req := MakeMaskWriteRequest(MaskWriteRequest{
		FunctionCode: FuncCodeMaskWriteRegister,
		Address:      address,
		AndMask:      andMask,
		OrMask:       orMask,
	})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	if _, err := ParseMaskWriteRequest(resp); err != nil {
		return framingErrorResult(err)
	}
	return okResult(1)
}

// ReadWriteMultipleRegisters performs function 0x17: writes writeValues at
// writeAddress, then reads readQuantity registers from readAddress, in a
// single round trip. The write is applied by the slave before the read.
func (in *Instance) ReadWriteMultipleRegisters(addr byte, readAddress, readQuantity, writeAddress uint16, writeValues []uint16, dst []uint16) Result {
	if !clampQuantity(readQuantity, uint16(1), uint16(MaxReadRegisters)) {
		return transportErrorResult(ErrInvalidArgument)
	}
	if !clampQuantity(len(writeValues), 1, MaxReadWriteWriteRegisters) {
		return transportErrorResult(ErrInvalidArgument)
	}
	payload := make([]byte, len(writeValues)*2)
	for i, v := range writeValues {
		putUint16(payload[i*2:i*2+2], v)
	}
	req := MakeReadWriteMultipleRequest(ReadWriteMultipleRequest{
		FunctionCode:  FuncCodeReadWriteMultipleRegisters,
		ReadAddress:   readAddress,
		ReadQuantity:  readQuantity,
		WriteAddress:  writeAddress,
		WriteQuantity: uint16(len(writeValues)),
		WriteValues:   payload,
	})
	resp, result, ok := in.exchange(addr, req)
	if !ok {
		return result
	}
	rr, err := ParseReadResponse(resp)
	if err != nil {
		return framingErrorResult(err)
	}
	n := registersNeeded(len(rr.Values))
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = getUint16(rr.Values[i*2 : i*2+2])
	}
	return okResult(n)
}
