package modbus

import (
	"testing"

	"github.com/vektra-io/modbuscore/frame"
	"github.com/vektra-io/modbuscore/transport"
)

// slaveLoopback feeds a single scripted request to Tick's reads, as many
// bytes per call as Tick's buffer holds, and records whatever Tick writes
// back.
type slaveLoopback struct {
	request  []byte
	pos      int
	response []byte
}

func (s *slaveLoopback) Open() error  { return nil }
func (s *slaveLoopback) Close() error { return nil }
func (s *slaveLoopback) Flush() error { return nil }

func (s *slaveLoopback) Read(buf []byte) (int, error) {
	if s.pos >= len(s.request) {
		return 0, nil
	}
	n := copy(buf, s.request[s.pos:])
	s.pos += n
	return n, nil
}

func (s *slaveLoopback) Write(buf []byte) (int, error) {
	s.response = append([]byte{}, buf...)
	return len(buf), nil
}

func newTestSlave(lt *slaveLoopback, proto Prototype, addr byte, cb CallbackTable) *Instance {
	in := NewInstance(lt, proto, RoleSlave, addr)
	in.Timeouts = transport.Timeouts{AckTimeout: 0, ByteTimeout: 0}
	in.Callbacks = cb
	return in
}

func TestSlaveTickReadHoldingRegisters(t *testing.T) {
	cb := CallbackTable{
		ReadHolding: func(address, quantity uint16, dst []uint16) int {
			for i := range dst {
				dst[i] = address + uint16(i)
			}
			return CallbackOK
		},
	}

	req := MakeReadRequest(ReadRequest{FunctionCode: FuncCodeReadHoldingRegisters, Address: 5, Quantity: 2})
	buf := make([]byte, 64)
	n, err := frame.EncodeRTU(buf, frame.RTUFrame{Address: 0x11, PDU: req})
	if err != nil {
		t.Fatalf("EncodeRTU: %v", err)
	}

	lt := &slaveLoopback{request: buf[:n]}
	in := newTestSlave(lt, ProtoRTU, 0x11, cb)

	if err := in.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(lt.response) == 0 {
		t.Fatalf("slave did not respond")
	}

	respFrame, err := frame.DecodeRTU(lt.response)
	if err != nil {
		t.Fatalf("DecodeRTU response: %v", err)
	}
	rr, err := ParseReadResponse(respFrame.PDU)
	if err != nil {
		t.Fatalf("ParseReadResponse: %v", err)
	}
	if len(rr.Values) != 4 || getUint16(rr.Values[0:2]) != 5 || getUint16(rr.Values[2:4]) != 6 {
		t.Fatalf("response values = % X", rr.Values)
	}
}

func TestSlaveIgnoresOtherAddresses(t *testing.T) {
	cb := CallbackTable{}
	req := MakeReadRequest(ReadRequest{FunctionCode: FuncCodeReadHoldingRegisters, Address: 0, Quantity: 1})
	buf := make([]byte, 64)
	n, _ := frame.EncodeRTU(buf, frame.RTUFrame{Address: 0x22, PDU: req})

	lt := &slaveLoopback{request: buf[:n]}
	in := newTestSlave(lt, ProtoRTU, 0x11, cb)

	if err := in.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(lt.response) != 0 {
		t.Fatalf("slave responded to a request addressed to another unit")
	}
}

func TestSlaveNeverAnswersBroadcast(t *testing.T) {
	var gotQuantity uint16
	cb := CallbackTable{
		WriteHolding: func(address, quantity uint16, values []uint16) int {
			gotQuantity = quantity
			return CallbackOK
		},
	}
	req := MakeWriteMultipleRequest(WriteMultipleRequest{
		FunctionCode: FuncCodeWriteMultipleRegisters,
		Address:      0,
		Quantity:     1,
		Values:       []byte{0x00, 0x01},
	})
	buf := make([]byte, 64)
	n, _ := frame.EncodeRTU(buf, frame.RTUFrame{Address: 0x00, PDU: req})

	lt := &slaveLoopback{request: buf[:n]}
	in := newTestSlave(lt, ProtoRTU, 0x11, cb)

	if err := in.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(lt.response) != 0 {
		t.Fatalf("slave responded to a broadcast request")
	}
	if gotQuantity != 1 {
		t.Fatalf("broadcast write was not dispatched to the callback")
	}
}

func TestSlaveTickIdleReturnsImmediately(t *testing.T) {
	lt := &slaveLoopback{}
	in := newTestSlave(lt, ProtoRTU, 0x11, CallbackTable{})
	if err := in.Tick(); err != nil {
		t.Fatalf("Tick on idle transport: %v", err)
	}
}

func TestSlaveRejectsReadWriteMultipleWriteQuantityAbove121(t *testing.T) {
	cb := CallbackTable{
		ReadHolding:  func(address, quantity uint16, dst []uint16) int { return CallbackOK },
		WriteHolding: func(address, quantity uint16, values []uint16) int { return CallbackOK },
	}

	writeValues := make([]byte, 122*2)
	req := MakeReadWriteMultipleRequest(ReadWriteMultipleRequest{
		FunctionCode:  FuncCodeReadWriteMultipleRegisters,
		ReadAddress:   0,
		ReadQuantity:  1,
		WriteAddress:  0,
		WriteQuantity: 122,
		WriteValues:   writeValues,
	})
	buf := make([]byte, 512)
	n, err := frame.EncodeRTU(buf, frame.RTUFrame{Address: 0x11, PDU: req})
	if err != nil {
		t.Fatalf("EncodeRTU: %v", err)
	}

	lt := &slaveLoopback{request: buf[:n]}
	in := newTestSlave(lt, ProtoRTU, 0x11, cb)

	if err := in.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	respFrame, err := frame.DecodeRTU(lt.response)
	if err != nil {
		t.Fatalf("DecodeRTU: %v", err)
	}
	if !respFrame.PDU.IsException() || respFrame.PDU.ExceptionCode() != ExceptionIllegalDataValue {
		t.Fatalf("response = %+v, want illegal-data-value exception for write quantity 122", respFrame.PDU)
	}
}

func TestSlaveExceptionOnMissingCallback(t *testing.T) {
	req := MakeReadRequest(ReadRequest{FunctionCode: FuncCodeReadHoldingRegisters, Address: 0, Quantity: 1})
	buf := make([]byte, 64)
	n, _ := frame.EncodeRTU(buf, frame.RTUFrame{Address: 0x11, PDU: req})

	lt := &slaveLoopback{request: buf[:n]}
	in := newTestSlave(lt, ProtoRTU, 0x11, CallbackTable{})

	if err := in.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	respFrame, err := frame.DecodeRTU(lt.response)
	if err != nil {
		t.Fatalf("DecodeRTU: %v", err)
	}
	if !respFrame.PDU.IsException() || respFrame.PDU.ExceptionCode() != ExceptionDeviceFailure {
		t.Fatalf("response = %+v, want device-failure exception", respFrame.PDU)
	}
}
