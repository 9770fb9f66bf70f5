package cpu

import "github.com/davecheney/bk/logger"

// Trap and interrupt vectors.
const (
	VectorBusError = 0004
	VectorIRQ1     = 0004
	VectorReserved = 0010
	VectorBPT      = 0014
	VectorIOT      = 0020
	VectorEMT      = 0030
	VectorTRAP     = 0034
	VectorIRQ2     = 0100
)

// TrapListener is notified every time the CPU enters a trap or interrupt
// handler, before the first handler instruction executes.
type TrapListener interface {
	OnTrap(c *CPU, vector uint16)
}

// TrapListenerFunc adapts a function to a TrapListener.
type TrapListenerFunc func(c *CPU, vector uint16)

func (f TrapListenerFunc) OnTrap(c *CPU, vector uint16) { f(c, vector) }

// AddTrapListener registers l.
func (c *CPU) AddTrapListener(l TrapListener) {
	c.listeners = append(c.listeners, l)
}

// trap pushes PSW and PC and loads PC and PSW from vector. A fault during
// trap entry becomes a bus error trap; a fault during bus error trap entry
// halts the CPU.
func (c *CPU) trap(vector uint16) {
	if c.enter(vector) {
		c.notify(vector)
		return
	}
	c.busError = false
	if vector == VectorBusError {
		logger.Logf("cpu", "double bus error at %06o, halting", c.R[PC])
		c.state = Halted
		return
	}
	if c.enter(VectorBusError) {
		c.notify(VectorBusError)
		return
	}
	c.busError = false
	logger.Logf("cpu", "double bus error at %06o, halting", c.R[PC])
	c.state = Halted
}

func (c *CPU) enter(vector uint16) bool {
	psw, pc := c.psw, c.R[PC]
	if !c.Push(psw) || !c.Push(pc) {
		return false
	}
	newPC, ok := c.ReadMemory(false, vector)
	if !ok {
		return false
	}
	newPSW, ok := c.ReadMemory(false, vector+2)
	if !ok {
		return false
	}
	c.R[PC] = newPC
	c.psw = newPSW & pswMask
	return true
}

func (c *CPU) notify(vector uint16) {
	for _, l := range c.listeners {
		l.OnTrap(c, vector)
	}
}

// returnFromTrap pops PC then PSW.
func (c *CPU) returnFromTrap() bool {
	pc, ok := c.Pop()
	if !ok {
		return false
	}
	psw, ok := c.Pop()
	if !ok {
		return false
	}
	c.R[PC] = pc
	c.psw = psw & pswMask
	return true
}

// TrapNumber returns the low byte of the EMT or TRAP instruction that caused
// the current trap. It is only meaningful from a trap listener or inside the
// handler before the stack changes.
func (c *CPU) TrapNumber() (uint16, bool) {
	ret, ok := c.bus.Read(false, c.R[SP])
	if !ok {
		return 0, false
	}
	instr, ok := c.bus.Read(false, ret-2)
	if !ok {
		return 0, false
	}
	return instr & 0377, true
}

// IsTrapHandlerInROM reports whether the handler installed at vector lives in
// read only memory, that is, whether the operating system rather than a
// loaded program services it.
func (c *CPU) IsTrapHandlerInROM(vector uint16) bool {
	handler, ok := c.bus.Read(false, vector)
	if !ok {
		return false
	}
	return c.bus.IsReadOnly(handler)
}
