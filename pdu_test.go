package modbus

import (
	"bytes"
	"testing"
)

func TestReadRequestRoundTrip(t *testing.T) {
	req := ReadRequest{FunctionCode: FuncCodeReadHoldingRegisters, Address: 0x6B, Quantity: 3}
	pdu := MakeReadRequest(req)

	got, err := ParseReadRequest(pdu)
	if err != nil {
		t.Fatalf("ParseReadRequest: %v", err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestReadResponseRoundTrip(t *testing.T) {
	values := []byte{0x00, 0x2A, 0x00, 0x2B}
	pdu := MakeReadResponse(FuncCodeReadHoldingRegisters, values)

	got, err := ParseReadResponse(pdu)
	if err != nil {
		t.Fatalf("ParseReadResponse: %v", err)
	}
	if !bytes.Equal(got.Values, values) {
		t.Fatalf("got %v, want %v", got.Values, values)
	}
}

func TestParseReadResponseBadByteCount(t *testing.T) {
	pdu := ProtocolDataUnit{FunctionCode: FuncCodeReadHoldingRegisters, Data: []byte{0x04, 0x00, 0x2A}}
	if _, err := ParseReadResponse(pdu); err == nil {
		t.Fatalf("expected error for mismatched byte count")
	}
}

func TestWriteSingleRoundTrip(t *testing.T) {
	req := WriteSingleRequest{FunctionCode: FuncCodeWriteSingleRegister, Address: 1, Value: 0x1234}
	pdu := MakeWriteSingleRequest(req)

	got, err := ParseWriteSingleRequest(pdu)
	if err != nil {
		t.Fatalf("ParseWriteSingleRequest: %v", err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestWriteMultipleRoundTrip(t *testing.T) {
	req := WriteMultipleRequest{
		FunctionCode: FuncCodeWriteMultipleRegisters,
		Address:      0,
		Quantity:     2,
		Values:       []byte{0x00, 0x0A, 0x01, 0x02},
	}
	pdu := MakeWriteMultipleRequest(req)

	got, err := ParseWriteMultipleRequest(pdu)
	if err != nil {
		t.Fatalf("ParseWriteMultipleRequest: %v", err)
	}
	if got.Address != req.Address || got.Quantity != req.Quantity || !bytes.Equal(got.Values, req.Values) {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestParseWriteMultipleRequestShort(t *testing.T) {
	pdu := ProtocolDataUnit{FunctionCode: FuncCodeWriteMultipleRegisters, Data: []byte{0x00, 0x00}}
	if _, err := ParseWriteMultipleRequest(pdu); err == nil {
		t.Fatalf("expected error for short write-multiple request")
	}
}

func TestMaskWriteRoundTripAndApply(t *testing.T) {
	req := MaskWriteRequest{FunctionCode: FuncCodeMaskWriteRegister, Address: 4, AndMask: 0x00F2, OrMask: 0x0025}
	pdu := MakeMaskWriteRequest(req)

	got, err := ParseMaskWriteRequest(pdu)
	if err != nil {
		t.Fatalf("ParseMaskWriteRequest: %v", err)
	}
	if got != req {
		t.Fatalf("got %+v, want %+v", got, req)
	}

	// Worked example from the Modbus Application Protocol specification.
	if result := ApplyMask(0x0012, 0x00F2, 0x0025); result != 0x0017 {
		t.Fatalf("ApplyMask = %#04x, want 0x0017", result)
	}
}

func TestReadWriteMultipleRoundTrip(t *testing.T) {
	req := ReadWriteMultipleRequest{
		FunctionCode:  FuncCodeReadWriteMultipleRegisters,
		ReadAddress:   3,
		ReadQuantity:  6,
		WriteAddress:  14,
		WriteQuantity: 3,
		WriteValues:   []byte{0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF},
	}
	pdu := MakeReadWriteMultipleRequest(req)

	got, err := ParseReadWriteMultipleRequest(pdu)
	if err != nil {
		t.Fatalf("ParseReadWriteMultipleRequest: %v", err)
	}
	if got.ReadAddress != req.ReadAddress || got.WriteQuantity != req.WriteQuantity || !bytes.Equal(got.WriteValues, req.WriteValues) {
		t.Fatalf("got %+v, want %+v", got, req)
	}
}

func TestExceptionRoundTrip(t *testing.T) {
	pdu := MakeException(FuncCodeReadHoldingRegisters, ExceptionIllegalDataAddress)
	if !pdu.IsException() {
		t.Fatalf("MakeException did not set the exception flag")
	}
	code, err := ParseException(pdu)
	if err != nil {
		t.Fatalf("ParseException: %v", err)
	}
	if code != ExceptionIllegalDataAddress {
		t.Fatalf("code = %d, want %d", code, ExceptionIllegalDataAddress)
	}
	if pdu.ExceptionCode() != ExceptionIllegalDataAddress {
		t.Fatalf("ExceptionCode() = %d, want %d", pdu.ExceptionCode(), ExceptionIllegalDataAddress)
	}
}

func TestParseExceptionRejectsNonException(t *testing.T) {
	pdu := ProtocolDataUnit{FunctionCode: FuncCodeReadHoldingRegisters, Data: []byte{0x02}}
	if _, err := ParseException(pdu); err == nil {
		t.Fatalf("expected error parsing a non-exception PDU as an exception")
	}
}
