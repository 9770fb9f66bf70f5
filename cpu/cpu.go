// Package cpu implements the K1801VM1, the single chip PDP-11 compatible
// processor of the BK-0010 and BK-0011M.
//
// The CPU never panics on emulated faults. A read or write that nothing
// answers is a bus error: the access returns false, the instruction abandons
// whatever it was doing, and the CPU traps through vector 004 once the
// instruction has finished.
package cpu

import (
	"fmt"
	"io"
	"sync"

	"github.com/davecheney/bk/logger"
	"github.com/davecheney/bk/state"
)

// Register numbers.
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	SP
	PC
)

// PSW bits.
const (
	FLAGC = 1 << iota
	FLAGV
	FLAGZ
	FLAGN
	FLAGT

	// bit 7 masks IRQ2 and VIRQ.
	FLAGP = 0200

	pswMask = 0377
)

// pswReset is the PSW after power on: priority 7.
const pswReset = 0340

// StartAddressRegister is read on reset; its high byte is the start address.
const StartAddressRegister = 0177716

// State is the run state of the CPU.
type State int

const (
	Running State = iota
	Halted
	Waiting
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Waiting:
		return "waiting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Bus is the CPU's view of memory and devices.
type Bus interface {
	// Read returns the byte or word at address. A byte is returned in the low
	// bits. The second value is false on a bus error.
	Read(isByteMode bool, address uint16) (uint16, bool)

	// Write stores value at address and returns false on a bus error.
	Write(isByteMode bool, address uint16, value uint16) bool

	// IsReadOnly reports whether address is backed by ROM.
	IsReadOnly(address uint16) bool

	// Reset initialises every device, for power on or the RESET instruction.
	Reset(cpuTime int64, isHardwareReset bool)

	// Timer gives every timed device a chance to observe cpuTime.
	Timer(cpuTime int64)
}

// number of VIRQ lines.
const virqLines = 4

// CPU is a K1801VM1.
type CPU struct {
	bus Bus

	R   [8]uint16 // R0-R7
	psw uint16    // processor status word

	time  int64 // clock ticks since power on
	state State

	// set by a failed memory access during the current instruction
	busError bool
	// effective address computed by the last PreAddressingAction
	addr uint16
	// suppresses the trace trap after RTT
	traceSuppress bool

	// interrupt lines are raised from device code that may run on a UI
	// goroutine (keyboard), so they have their own lock.
	irqMu sync.Mutex
	irq1  bool
	irq2  bool
	virq  [virqLines]uint16 // pending vector per line, 0 when idle

	listeners []TrapListener

	trace io.Writer
}

// New returns a CPU attached to bus. Call Reset before executing.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Time returns the number of clock ticks since power on.
func (c *CPU) Time() int64 { return c.time }

// State returns the run state.
func (c *CPU) State() State { return c.state }

// PSW returns the processor status word.
func (c *CPU) PSW() uint16 { return c.psw }

// SetPSW sets the processor status word.
func (c *CPU) SetPSW(psw uint16) { c.psw = psw & pswMask }

// Reset is a power on reset: every device is initialised, PSW is set to 0340
// and execution starts at the address in the high byte of the start address
// register.
func (c *CPU) Reset() {
	c.bus.Reset(c.time, true)
	c.irqMu.Lock()
	c.irq1, c.irq2 = false, false
	c.virq = [virqLines]uint16{}
	c.irqMu.Unlock()
	c.state = Running
	c.busError = false
	c.traceSuppress = false
	c.psw = pswReset
	start, ok := c.bus.Read(false, StartAddressRegister)
	if !ok {
		logger.Logf("cpu", "no start address register at %06o", StartAddressRegister)
		start = 0
	}
	c.R[PC] = start & 0177400
	c.time += timeReset
}

// ReadRegister returns register reg. In byte mode only the low byte is
// returned.
func (c *CPU) ReadRegister(isByteMode bool, reg int) uint16 {
	if isByteMode {
		return c.R[reg] & 0377
	}
	return c.R[reg]
}

// WriteRegister stores value in register reg. In byte mode only the low byte
// of the register changes.
func (c *CPU) WriteRegister(isByteMode bool, reg int, value uint16) {
	if isByteMode {
		c.R[reg] = c.R[reg]&0177400 | value&0377
		return
	}
	c.R[reg] = value
}

// ReadMemory reads a byte or word. A failed read records a pending bus error.
func (c *CPU) ReadMemory(isByteMode bool, address uint16) (uint16, bool) {
	v, ok := c.bus.Read(isByteMode, address)
	if !ok {
		c.busError = true
		return 0, false
	}
	return v, true
}

// WriteMemory writes a byte or word. A failed write records a pending bus
// error.
func (c *CPU) WriteMemory(isByteMode bool, address uint16, value uint16) bool {
	if !c.bus.Write(isByteMode, address, value) {
		c.busError = true
		return false
	}
	return true
}

// Push decrements SP and stores v on the stack.
func (c *CPU) Push(v uint16) bool {
	c.R[SP] -= 2
	return c.WriteMemory(false, c.R[SP], v)
}

// Pop loads a word from the stack and increments SP.
func (c *CPU) Pop() (uint16, bool) {
	v, ok := c.ReadMemory(false, c.R[SP])
	if !ok {
		return 0, false
	}
	c.R[SP] += 2
	return v, true
}

func (c *CPU) fetch16() (uint16, bool) {
	v, ok := c.ReadMemory(false, c.R[PC])
	if !ok {
		return 0, false
	}
	c.R[PC] += 2
	return v, true
}

// ExecuteNextInstruction runs one step: a pending interrupt is taken, or the
// next instruction is executed, or, while halted or waiting, an idle period
// passes. Device timers run after every step.
func (c *CPU) ExecuteNextInstruction() {
	switch c.state {
	case Halted:
		if !c.irq1Pending() {
			c.idle()
			return
		}
		c.state = Running
	case Waiting:
		if !c.interruptPending() {
			c.idle()
			return
		}
		c.state = Running
	}

	if c.serviceInterrupt() {
		c.bus.Timer(c.time)
		return
	}
	c.step()
	c.bus.Timer(c.time)
}

func (c *CPU) idle() {
	c.time += timeIdle
	c.bus.Timer(c.time)
}

// SetTrace writes every executed instruction to w. A nil w disables tracing.
func (c *CPU) SetTrace(w io.Writer) { c.trace = w }

func (c *CPU) step() {
	c.busError = false
	if c.trace != nil {
		fmt.Fprintf(c.trace, "%06o %-32s %s\n", c.R[PC], c.Disassemble(), c)
	}
	instr, ok := c.fetch16()
	if !ok {
		c.time += timeFetch
		c.busErrorTrap()
		return
	}

	op := Lookup(instr)
	o := op.Decode(instr)
	op.Execute(c, &o)
	c.time += int64(op.ExecutionTime(&o))

	if c.busError {
		c.busErrorTrap()
		return
	}
	if c.traceSuppress {
		c.traceSuppress = false
		return
	}
	if c.psw&FLAGT != 0 && c.state == Running {
		c.trap(VectorBPT)
	}
}

func (c *CPU) busErrorTrap() {
	c.busError = false
	c.time += timeInterrupt
	c.trap(VectorBusError)
}

// RequestIRQ1 raises IRQ1, the STOP key. IRQ1 cannot be masked.
func (c *CPU) RequestIRQ1() {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	c.irq1 = true
}

// RequestIRQ2 raises IRQ2, the frame interrupt.
func (c *CPU) RequestIRQ2() {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	c.irq2 = true
}

// RequestVIRQ raises vectored interrupt line with vector.
func (c *CPU) RequestVIRQ(line int, vector uint16) {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	c.virq[line] = vector
}

// ClearVIRQ withdraws the request on line.
func (c *CPU) ClearVIRQ(line int) {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	c.virq[line] = 0
}

func (c *CPU) irq1Pending() bool {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	return c.irq1
}

func (c *CPU) interruptPending() bool {
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	if c.irq1 {
		return true
	}
	if c.psw&FLAGP != 0 {
		return false
	}
	if c.irq2 {
		return true
	}
	for _, v := range c.virq {
		if v != 0 {
			return true
		}
	}
	return false
}

// serviceInterrupt takes the highest priority pending interrupt, if any.
func (c *CPU) serviceInterrupt() bool {
	c.irqMu.Lock()
	vector := uint16(0)
	switch {
	case c.irq1:
		c.irq1 = false
		vector = VectorIRQ1
	case c.psw&FLAGP != 0:
	case c.irq2:
		c.irq2 = false
		vector = VectorIRQ2
	default:
		for i, v := range c.virq {
			if v != 0 {
				c.virq[i] = 0
				vector = v
				break
			}
		}
	}
	c.irqMu.Unlock()

	if vector == 0 {
		return false
	}
	c.time += timeInterrupt
	c.trap(vector)
	return true
}

func (c *CPU) setFlag(flag uint16, on bool) {
	if on {
		c.psw |= flag
	} else {
		c.psw &^= flag
	}
}

func (c *CPU) n() bool { return c.psw&FLAGN != 0 }
func (c *CPU) z() bool { return c.psw&FLAGZ != 0 }
func (c *CPU) v() bool { return c.psw&FLAGV != 0 }
func (c *CPU) c() bool { return c.psw&FLAGC != 0 }

// setNZ sets N and Z from v, using the byte or word sign bit.
func (c *CPU) setNZ(isByteMode bool, v uint16) {
	c.setFlag(FLAGN, v&signBit(isByteMode) != 0)
	c.setFlag(FLAGZ, v&valueMask(isByteMode) == 0)
}

func signBit(isByteMode bool) uint16 {
	if isByteMode {
		return 0200
	}
	return 0100000
}

func valueMask(isByteMode bool) uint16 {
	if isByteMode {
		return 0377
	}
	return 0177777
}

// String returns the register file and flags, in the style of a console
// dump.
func (c *CPU) String() string {
	flag := func(f uint16, s string) string {
		if c.psw&f != 0 {
			return s
		}
		return " "
	}
	return fmt.Sprintf("R0 %06o R1 %06o R2 %06o R3 %06o R4 %06o R5 %06o SP %06o PC %06o PS %06o [%s%s%s%s%s]",
		c.R[0], c.R[1], c.R[2], c.R[3], c.R[4], c.R[5], c.R[6], c.R[7], c.psw,
		flag(FLAGT, "T"), flag(FLAGN, "N"), flag(FLAGZ, "Z"), flag(FLAGV, "V"), flag(FLAGC, "C"))
}

func (c *CPU) SaveState(s *state.Bundle) {
	for i, r := range c.R {
		s.PutInt(fmt.Sprintf("cpu.r%d", i), int(r))
	}
	s.PutInt("cpu.psw", int(c.psw))
	s.PutInt64("cpu.time", c.time)
	s.PutInt("cpu.state", int(c.state))
	c.irqMu.Lock()
	defer c.irqMu.Unlock()
	s.PutBool("cpu.irq1", c.irq1)
	s.PutBool("cpu.irq2", c.irq2)
	for i, v := range c.virq {
		s.PutInt(fmt.Sprintf("cpu.virq%d", i), int(v))
	}
}

func (c *CPU) RestoreState(s *state.Bundle) error {
	r := state.NewReader(s)
	var regs [8]uint16
	for i := range regs {
		regs[i] = uint16(r.Int(fmt.Sprintf("cpu.r%d", i)))
	}
	psw := uint16(r.Int("cpu.psw"))
	t := r.Int64("cpu.time")
	st := State(r.Int("cpu.state"))
	irq1 := r.Bool("cpu.irq1")
	irq2 := r.Bool("cpu.irq2")
	var virq [virqLines]uint16
	for i := range virq {
		virq[i] = uint16(r.Int(fmt.Sprintf("cpu.virq%d", i)))
	}
	if err := r.Err(); err != nil {
		return err
	}
	c.R, c.psw, c.time, c.state = regs, psw, t, st
	c.irqMu.Lock()
	c.irq1, c.irq2, c.virq = irq1, irq2, virq
	c.irqMu.Unlock()
	return nil
}
