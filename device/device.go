// Package device defines the contract between the bus and memory mapped
// devices, and implements the small BK-0010/BK-0011M devices: keyboard,
// video, system timer, page manager, peripheral port and the SEL1 system
// register.
package device

import "github.com/davecheney/bk/state"

// Device is a memory mapped device. All addresses are absolute addresses in
// the I/O page (0160000-0177776); reads and writes arrive with the address
// used by the CPU, which may be odd for byte accesses.
type Device interface {
	// Addresses returns the even addresses the device responds to.
	Addresses() []uint16

	// Init is called on power on (isHardwareReset set) and by the RESET
	// instruction.
	Init(cpuTime int64, isHardwareReset bool)

	// Read returns the register at address. The second value is false when
	// the device does not respond to reads at address.
	Read(cpuTime int64, address uint16) (uint16, bool)

	// Write stores value at address and reports whether the write was
	// committed. In byte mode value holds the byte in its low bits. A write
	// that is not committed is still a completed bus cycle.
	Write(cpuTime int64, isByteMode bool, address uint16, value uint16) bool

	SaveState(s *state.Bundle)
	RestoreState(s *state.Bundle) error
}

// Timer is implemented by devices that must observe the time base even when
// the CPU does not access them. Timer is called after every instruction and
// every idle step of a halted or waiting CPU.
type Timer interface {
	Timer(cpuTime int64)
}

// Interrupts is the CPU side of the interrupt request lines.
type Interrupts interface {
	RequestIRQ1()
	RequestIRQ2()
	RequestVIRQ(line int, vector uint16)
	ClearVIRQ(line int)
}

// VIRQ lines.
const (
	VIRQKeyboard = 1
)

// merge combines a byte or word write into the current register value.
func merge(isByteMode bool, address uint16, value, current uint16) uint16 {
	switch {
	case !isByteMode:
		return value
	case address&1 == 0:
		return current&0177400 | value&0377
	default:
		return current&0377 | value<<8
	}
}
