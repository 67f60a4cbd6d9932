package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vektra-io/modbuscore"
)

func TestEncodeDecodeRTURoundTrip(t *testing.T) {
	f := RTUFrame{
		Address: 0x11,
		PDU: modbus.ProtocolDataUnit{
			FunctionCode: 0x03,
			Data:         []byte{0x00, 0x6B, 0x00, 0x03},
		},
	}

	buf := make([]byte, 16)
	n, err := EncodeRTU(buf, f)
	if err != nil {
		t.Fatalf("EncodeRTU: %v", err)
	}

	// Known-good frame for this exact request, per the Modbus RTU
	// reference examples: 11 03 00 6B 00 03 76 87.
	want := []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x76, 0x87}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("EncodeRTU = % X, want % X", buf[:n], want)
	}

	got, err := DecodeRTU(buf[:n])
	if err != nil {
		t.Fatalf("DecodeRTU: %v", err)
	}
	if got.Address != f.Address || got.PDU.FunctionCode != f.PDU.FunctionCode {
		t.Fatalf("DecodeRTU = %+v, want %+v", got, f)
	}
	if !bytes.Equal(got.PDU.Data, f.PDU.Data) {
		t.Fatalf("DecodeRTU data = % X, want % X", got.PDU.Data, f.PDU.Data)
	}
}

func TestDecodeRTUShortFrame(t *testing.T) {
	_, err := DecodeRTU([]byte{0x11, 0x03})
	if !errors.Is(err, modbus.ErrShortFrame) {
		t.Fatalf("want ErrShortFrame, got %v", err)
	}
}

func TestDecodeRTUBadCRC(t *testing.T) {
	_, err := DecodeRTU([]byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03, 0x00, 0x00})
	if !errors.Is(err, modbus.ErrCRCMismatch) {
		t.Fatalf("want ErrCRCMismatch, got %v", err)
	}
}

func TestVerifyRTUEcho(t *testing.T) {
	req := RTUFrame{Address: 0x11, PDU: modbus.ProtocolDataUnit{FunctionCode: 0x03}}
	resp := RTUFrame{Address: 0x11, PDU: modbus.ProtocolDataUnit{FunctionCode: 0x03}}
	if err := VerifyRTUEcho(req, resp); err != nil {
		t.Fatalf("VerifyRTUEcho: %v", err)
	}

	mismatched := RTUFrame{Address: 0x12, PDU: modbus.ProtocolDataUnit{FunctionCode: 0x03}}
	if err := VerifyRTUEcho(req, mismatched); !errors.Is(err, modbus.ErrUnitMismatch) {
		t.Fatalf("want ErrUnitMismatch, got %v", err)
	}
}

func TestEncodeRTUTooLong(t *testing.T) {
	f := RTUFrame{Address: 1, PDU: modbus.ProtocolDataUnit{FunctionCode: 0x10, Data: make([]byte, 255)}}
	buf := make([]byte, 300)
	_, err := EncodeRTU(buf, f)
	if !errors.Is(err, modbus.ErrLongFrame) {
		t.Fatalf("want ErrLongFrame, got %v", err)
	}
}
