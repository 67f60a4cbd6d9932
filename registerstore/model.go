// Package registerstore is a reference register/coil backing store for a
// slave Instance: a flat in-memory table covering the full Modbus address
// space, adapted from a gateway's local-slave simulator into a
// general-purpose modbus.CallbackTable provider usable by either an RTU or
// a TCP slave.
package registerstore

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/vektra-io/modbuscore"
)

// maxAddress is the top of the 16-bit Modbus address space.
const maxAddress = 0xFFFF

// DataModel is a flat, mutex-guarded bank of coils, discrete inputs,
// holding registers, and input registers, sized to cover every address a
// Modbus request can name.
type DataModel struct {
	mu sync.RWMutex

	Coils            []byte
	DiscreteInputs   []byte
	HoldingRegisters []uint16
	InputRegisters   []uint16
}

// NewDataModel returns a zeroed table covering the full address space.
func NewDataModel() *DataModel {
	return &DataModel{
		Coils:            make([]byte, (maxAddress+1+7)/8),
		DiscreteInputs:   make([]byte, (maxAddress+1+7)/8),
		HoldingRegisters: make([]uint16, maxAddress+1),
		InputRegisters:   make([]uint16, maxAddress+1),
	}
}

func validateRange(address, quantity uint16) error {
	if quantity == 0 {
		return errors.New("registerstore: quantity must be > 0")
	}
	if int(address)+int(quantity) > maxAddress+1 {
		return errors.Errorf("registerstore: address range %d..%d out of bounds", address, int(address)+int(quantity)-1)
	}
	return nil
}

// ReadCoils reads quantity coils starting at address into dst (packed,
// LSB-first).
func (m *DataModel) ReadCoils(address, quantity uint16, dst []byte) error {
	return m.readBits(m.Coils, address, quantity, dst)
}

// ReadDiscreteInputs reads quantity discrete inputs into dst.
func (m *DataModel) ReadDiscreteInputs(address, quantity uint16, dst []byte) error {
	return m.readBits(m.DiscreteInputs, address, quantity, dst)
}

func (m *DataModel) readBits(table []byte, address, quantity uint16, dst []byte) error {
	if err := validateRange(address, quantity); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := uint16(0); i < quantity; i++ {
		modbus.SetBit(dst, int(i), getPackedBit(table, int(address)+int(i)))
	}
	return nil
}

// WriteCoils writes quantity coils (packed, LSB-first) starting at address.
func (m *DataModel) WriteCoils(address, quantity uint16, values []byte) error {
	if err := validateRange(address, quantity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := uint16(0); i < quantity; i++ {
		setPackedBit(m.Coils, int(address)+int(i), modbus.GetBit(values, int(i)))
	}
	return nil
}

// ReadHoldingRegisters reads quantity holding registers into dst.
func (m *DataModel) ReadHoldingRegisters(address, quantity uint16, dst []uint16) error {
	return m.readRegisters(m.HoldingRegisters, address, quantity, dst)
}

// ReadInputRegisters reads quantity input registers into dst.
func (m *DataModel) ReadInputRegisters(address, quantity uint16, dst []uint16) error {
	return m.readRegisters(m.InputRegisters, address, quantity, dst)
}

func (m *DataModel) readRegisters(table []uint16, address, quantity uint16, dst []uint16) error {
	if err := validateRange(address, quantity); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	copy(dst, table[address:int(address)+int(quantity)])
	return nil
}

// WriteHoldingRegisters writes the given values starting at address.
func (m *DataModel) WriteHoldingRegisters(address, quantity uint16, values []uint16) error {
	if err := validateRange(address, quantity); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.HoldingRegisters[address:int(address)+int(quantity)], values)
	return nil
}

func getPackedBit(table []byte, i int) bool {
	return table[i/8]&(1<<uint(i%8)) != 0
}

func setPackedBit(table []byte, i int, v bool) {
	mask := byte(1 << uint(i%8))
	if v {
		table[i/8] |= mask
	} else {
		table[i/8] &^= mask
	}
}
