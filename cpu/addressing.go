package cpu

// AddressingMode is one of the eight general addressing modes. An operand is
// accessed in up to four steps: PreAddressingAction computes the effective
// address, ReadAddressedValue and WriteAddressedValue access it, and
// PostAddressingAction applies autoincrement. Every step that touches memory
// reports a bus error by returning false.
type AddressingMode interface {
	Code() int
	PreAddressingAction(c *CPU, isByteMode bool, reg int) bool
	ReadAddressedValue(c *CPU, isByteMode bool, reg int) (uint16, bool)
	WriteAddressedValue(c *CPU, isByteMode bool, reg int, value uint16) bool
	PostAddressingAction(c *CPU, isByteMode bool, reg int)

	// Address returns the effective address, applying both the pre and
	// post actions. Register mode has no address.
	Address(c *CPU, reg int) (uint16, bool)
}

// Addressing mode codes.
const (
	ModeRegister = iota
	ModeRegisterDeferred
	ModeAutoincrement
	ModeAutoincrementDeferred
	ModeAutodecrement
	ModeAutodecrementDeferred
	ModeIndex
	ModeIndexDeferred
)

var addressingModes = [8]AddressingMode{
	registerMode{},
	registerDeferredMode{},
	autoincrementMode{},
	autoincrementDeferredMode{},
	autodecrementMode{},
	autodecrementDeferredMode{},
	indexMode{},
	indexDeferredMode{},
}

// Mode returns the addressing mode with code.
func Mode(code int) AddressingMode { return addressingModes[code&7] }

// step is the autoincrement and autodecrement amount. SP and PC always step
// by a word.
func step(isByteMode bool, reg int) uint16 {
	if isByteMode && reg < SP {
		return 1
	}
	return 2
}

type registerMode struct{}

func (registerMode) Code() int { return ModeRegister }

func (registerMode) PreAddressingAction(*CPU, bool, int) bool { return true }

func (registerMode) ReadAddressedValue(c *CPU, isByteMode bool, reg int) (uint16, bool) {
	return c.ReadRegister(isByteMode, reg), true
}

func (registerMode) WriteAddressedValue(c *CPU, isByteMode bool, reg int, value uint16) bool {
	c.WriteRegister(isByteMode, reg, value)
	return true
}

func (registerMode) PostAddressingAction(*CPU, bool, int) {}

func (registerMode) Address(*CPU, int) (uint16, bool) { return 0, false }

// memoryOperand accesses the effective address left in c.addr.
type memoryOperand struct{}

func (memoryOperand) ReadAddressedValue(c *CPU, isByteMode bool, _ int) (uint16, bool) {
	return c.ReadMemory(isByteMode, c.addr)
}

func (memoryOperand) WriteAddressedValue(c *CPU, isByteMode bool, _ int, value uint16) bool {
	return c.WriteMemory(isByteMode, c.addr, value)
}

func (memoryOperand) PostAddressingAction(*CPU, bool, int) {}

// (Rn)
type registerDeferredMode struct{ memoryOperand }

func (registerDeferredMode) Code() int { return ModeRegisterDeferred }

func (registerDeferredMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	c.addr = c.R[reg]
	return true
}

func (m registerDeferredMode) Address(c *CPU, reg int) (uint16, bool) {
	m.PreAddressingAction(c, false, reg)
	return c.addr, true
}

// (Rn)+, #n on PC
type autoincrementMode struct{ memoryOperand }

func (autoincrementMode) Code() int { return ModeAutoincrement }

func (autoincrementMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	c.addr = c.R[reg]
	return true
}

func (autoincrementMode) PostAddressingAction(c *CPU, isByteMode bool, reg int) {
	c.R[reg] += step(isByteMode, reg)
}

func (m autoincrementMode) Address(c *CPU, reg int) (uint16, bool) {
	m.PreAddressingAction(c, false, reg)
	m.PostAddressingAction(c, false, reg)
	return c.addr, true
}

// @(Rn)+, @#n on PC
type autoincrementDeferredMode struct{ memoryOperand }

func (autoincrementDeferredMode) Code() int { return ModeAutoincrementDeferred }

func (autoincrementDeferredMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	addr, ok := c.ReadMemory(false, c.R[reg])
	if !ok {
		return false
	}
	c.addr = addr
	return true
}

func (autoincrementDeferredMode) PostAddressingAction(c *CPU, _ bool, reg int) {
	c.R[reg] += 2
}

func (m autoincrementDeferredMode) Address(c *CPU, reg int) (uint16, bool) {
	if !m.PreAddressingAction(c, false, reg) {
		return 0, false
	}
	m.PostAddressingAction(c, false, reg)
	return c.addr, true
}

// -(Rn)
type autodecrementMode struct{ memoryOperand }

func (autodecrementMode) Code() int { return ModeAutodecrement }

func (autodecrementMode) PreAddressingAction(c *CPU, isByteMode bool, reg int) bool {
	c.R[reg] -= step(isByteMode, reg)
	c.addr = c.R[reg]
	return true
}

func (m autodecrementMode) Address(c *CPU, reg int) (uint16, bool) {
	m.PreAddressingAction(c, false, reg)
	return c.addr, true
}

// @-(Rn)
type autodecrementDeferredMode struct{ memoryOperand }

func (autodecrementDeferredMode) Code() int { return ModeAutodecrementDeferred }

func (autodecrementDeferredMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	c.R[reg] -= 2
	addr, ok := c.ReadMemory(false, c.R[reg])
	if !ok {
		return false
	}
	c.addr = addr
	return true
}

func (m autodecrementDeferredMode) Address(c *CPU, reg int) (uint16, bool) {
	if !m.PreAddressingAction(c, false, reg) {
		return 0, false
	}
	return c.addr, true
}

// X(Rn), relative on PC. The index word follows the instruction.
type indexMode struct{ memoryOperand }

func (indexMode) Code() int { return ModeIndex }

func (indexMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	x, ok := c.fetch16()
	if !ok {
		return false
	}
	c.addr = c.R[reg] + x
	return true
}

func (m indexMode) Address(c *CPU, reg int) (uint16, bool) {
	if !m.PreAddressingAction(c, false, reg) {
		return 0, false
	}
	return c.addr, true
}

// @X(Rn), relative deferred on PC
type indexDeferredMode struct{ memoryOperand }

func (indexDeferredMode) Code() int { return ModeIndexDeferred }

func (indexDeferredMode) PreAddressingAction(c *CPU, _ bool, reg int) bool {
	x, ok := c.fetch16()
	if !ok {
		return false
	}
	addr, ok := c.ReadMemory(false, c.R[reg]+x)
	if !ok {
		return false
	}
	c.addr = addr
	return true
}

func (m indexDeferredMode) Address(c *CPU, reg int) (uint16, bool) {
	if !m.PreAddressingAction(c, false, reg) {
		return 0, false
	}
	return c.addr, true
}

// operand helpers used by the opcodes.

// readOperand reads a source operand, completing its post action.
func (c *CPU) readOperand(isByteMode bool, mode, reg int) (uint16, bool) {
	m := addressingModes[mode]
	if !m.PreAddressingAction(c, isByteMode, reg) {
		return 0, false
	}
	v, ok := m.ReadAddressedValue(c, isByteMode, reg)
	if !ok {
		return 0, false
	}
	m.PostAddressingAction(c, isByteMode, reg)
	return v, true
}

// readDestination reads a read-modify-write destination. The post action is
// applied by writeDestination.
func (c *CPU) readDestination(isByteMode bool, mode, reg int) (uint16, bool) {
	m := addressingModes[mode]
	if !m.PreAddressingAction(c, isByteMode, reg) {
		return 0, false
	}
	return m.ReadAddressedValue(c, isByteMode, reg)
}

// writeDestination stores the result of a read-modify-write operand.
func (c *CPU) writeDestination(isByteMode bool, mode, reg int, value uint16) bool {
	m := addressingModes[mode]
	if !m.WriteAddressedValue(c, isByteMode, reg, value) {
		return false
	}
	m.PostAddressingAction(c, isByteMode, reg)
	return true
}

// writeOperand stores value in a write-only destination.
func (c *CPU) writeOperand(isByteMode bool, mode, reg int, value uint16) bool {
	m := addressingModes[mode]
	if !m.PreAddressingAction(c, isByteMode, reg) {
		return false
	}
	return c.writeDestination(isByteMode, mode, reg, value)
}
