// Package modbus implements a portable Modbus protocol stack: PDU encoding
// for the standard function codes, and the master (client) and slave
// (server) transaction engines that drive them over an RTU or TCP
// transport. Concrete transports live in the transport package; RTU and
// TCP framing live in the frame package.
package modbus
