package registerstore

import "github.com/vektra-io/modbuscore"

// CallbackTable adapts m's methods to the modbus.CallbackTable a slave
// Instance dispatches through. Every call that fails range validation is
// reported as modbus.CallbackAddressError, matching the exception a real
// Modbus slave raises for an out-of-range address/quantity rather than a
// device failure.
func (m *DataModel) CallbackTable() modbus.CallbackTable {
	return modbus.CallbackTable{
		ReadDiscrete: func(address, quantity uint16, dst []byte) int {
			if err := m.ReadDiscreteInputs(address, quantity, dst); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
		ReadCoil: func(address, quantity uint16, dst []byte) int {
			if err := m.ReadCoils(address, quantity, dst); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
		WriteCoil: func(address, quantity uint16, values []byte) int {
			if err := m.WriteCoils(address, quantity, values); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
		ReadInput: func(address, quantity uint16, dst []uint16) int {
			if err := m.ReadInputRegisters(address, quantity, dst); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
		ReadHolding: func(address, quantity uint16, dst []uint16) int {
			if err := m.ReadHoldingRegisters(address, quantity, dst); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
		WriteHolding: func(address, quantity uint16, values []uint16) int {
			if err := m.WriteHoldingRegisters(address, quantity, values); err != nil {
				return modbus.CallbackAddressError
			}
			return modbus.CallbackOK
		},
	}
}
