package cpu

import (
	"testing"

	"github.com/davecheney/bk/state"
	"github.com/matryer/is"
)

// testBus is 56 KiB of RAM and ROM. Addresses from 0170000 are unmapped
// apart from the start address register.
type testBus struct {
	mem    [1 << 15]uint16
	start  uint16
	resets int
	timers int
}

func (b *testBus) mapped(a uint16) bool { return a < 0170000 }

func (b *testBus) Read(isByteMode bool, a uint16) (uint16, bool) {
	var w uint16
	switch {
	case a&^1 == StartAddressRegister:
		w = b.start | 0200
	case b.mapped(a):
		w = b.mem[a>>1]
	default:
		return 0, false
	}
	if isByteMode {
		if a&1 != 0 {
			return w >> 8, true
		}
		return w & 0377, true
	}
	return w, true
}

func (b *testBus) Write(isByteMode bool, a uint16, v uint16) bool {
	if !b.mapped(a) {
		return false
	}
	if b.IsReadOnly(a) {
		return true
	}
	i := a >> 1
	switch {
	case !isByteMode:
		b.mem[i] = v
	case a&1 != 0:
		b.mem[i] = b.mem[i]&0377 | v<<8
	default:
		b.mem[i] = b.mem[i]&0177400 | v&0377
	}
	return true
}

func (b *testBus) IsReadOnly(a uint16) bool { return a >= 0100000 && a < 0170000 }
func (b *testBus) Reset(int64, bool)        { b.resets++ }
func (b *testBus) Timer(int64)              { b.timers++ }

func (b *testBus) load(addr uint16, words ...uint16) {
	for i, w := range words {
		b.mem[int(addr>>1)+i] = w
	}
}

func (b *testBus) word(addr uint16) uint16 { return b.mem[addr>>1] }

func newTestCPU(start uint16) (*CPU, *testBus) {
	b := &testBus{start: start}
	c := New(b)
	c.Reset()
	c.R[SP] = 0700
	return c, b
}

// execute runs a single instruction without the trap and interrupt
// handling of ExecuteNextInstruction.
func execute(c *CPU, instr uint16) {
	op := Lookup(instr)
	o := op.Decode(instr)
	op.Execute(c, &o)
}

func TestADD(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0060001, // ADD R0, R1
	)
	for s := 0; s < 16; s++ {
		for d := 0; d < 16; d++ {
			src, dst := uint16(1)<<s, uint16(1)<<d
			c.R[0] = src
			c.R[1] = dst
			c.R[PC] = 01000
			c.ExecuteNextInstruction()
			sum := int32(int16(src)) + int32(int16(dst))
			is.Equal(c.R[1], src+dst)                         // result
			is.Equal(c.n(), (src+dst)&0x8000 > 0)             // N
			is.Equal(c.z(), src+dst == 0)                     // Z
			is.Equal(c.v(), sum > 32767 || sum < -32768)      // V
			is.Equal(c.c(), uint32(src)+uint32(dst) > 0xffff) // C
		}
	}
}

func TestSUB(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0160001, // SUB R0, R1
	)
	for s := 0; s < 16; s++ {
		for d := 0; d < 16; d++ {
			src, dst := uint16(1)<<s, uint16(1)<<d
			c.R[0] = src
			c.R[1] = dst
			c.R[PC] = 01000
			c.ExecuteNextInstruction()
			diff := int32(int16(dst)) - int32(int16(src))
			is.Equal(c.R[1], dst-src)                      // result
			is.Equal(c.n(), (dst-src)&0x8000 > 0)          // N
			is.Equal(c.z(), dst == src)                    // Z
			is.Equal(c.v(), diff > 32767 || diff < -32768) // V
			is.Equal(c.c(), src > dst)                     // C
		}
	}
}

func TestCMPBorrow(t *testing.T) {
	is := is.New(t)
	c, _ := newTestCPU(01000)
	c.R[0] = 0
	c.R[1] = 1
	execute(c, 0020001) // CMP R0, R1
	is.True(c.n())
	is.True(!c.z())
	is.True(!c.v())
	is.True(c.c())
	is.Equal(c.R[0], uint16(0))
	is.Equal(c.R[1], uint16(1))
}

func TestCMPB(t *testing.T) {
	is := is.New(t)
	c, _ := newTestCPU(01000)
	c.R[0] = 0177600 // low byte 0200
	c.R[1] = 1
	execute(c, 0120001) // CMPB R0, R1
	is.True(!c.n())     // 0200 - 1 = 0177
	is.True(!c.z())
	is.True(c.v())
	is.True(!c.c())
}

func TestDoubleOperandSourceBusError(t *testing.T) {
	ops := map[string]uint16{
		"MOV": 001, "CMP": 002, "BIT": 003, "BIC": 004, "BIS": 005, "ADD": 006, "SUB": 016,
		"MOVB": 011, "CMPB": 012, "BITB": 013, "BICB": 014, "BISB": 015,
	}
	for name, op := range ops {
		for _, dst := range []uint16{001, 012} { // R1, (R2)
			t.Run(name, func(t *testing.T) {
				is := is.New(t)
				c, b := newTestCPU(01000)
				c.R[0] = 0170000
				c.R[1] = 012345
				c.R[2] = 02000
				b.load(02000, 054321)
				c.psw = FLAGN | FLAGC
				execute(c, op<<12|01<<9|dst) // OP (R0), dst
				is.True(c.busError)
				is.Equal(c.psw, uint16(FLAGN|FLAGC))
				is.Equal(c.R[1], uint16(012345))
				is.Equal(c.R[2], uint16(02000))
				is.Equal(b.word(02000), uint16(054321))
			})
		}
	}
}

func TestJSRPC(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0004737, 002000, // JSR PC, @#2000
	)
	for i := 0; i < 6; i++ {
		c.R[i] = uint16(i + 1)
	}
	c.R[SP] = 0700
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(02000))
	is.Equal(c.R[SP], uint16(0676))
	is.Equal(b.word(0676), uint16(01004)) // return address
	for i := 0; i < 6; i++ {
		is.Equal(c.R[i], uint16(i+1))
	}

	b.load(02000,
		0000207, // RTS PC
	)
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01004))
	is.Equal(c.R[SP], uint16(0700))
}

func TestJSRLinkage(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0004567, 000774, // JSR R5, 2000 (relative)
	)
	c.R[5] = 012345
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(02000))
	is.Equal(c.R[5], uint16(01004))
	is.Equal(b.word(0676), uint16(012345))

	b.load(02000,
		0000205, // RTS R5
	)
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01004))
	is.Equal(c.R[5], uint16(012345))
}

func TestAddressingModeDeltas(t *testing.T) {
	tests := []struct {
		name    string
		code    []uint16
		reg     int
		initial uint16
		delta   uint16
		r1      uint16
	}{
		{"register", []uint16{0010001}, R0, 02000, 0, 02000},
		{"register deferred", []uint16{0011001}, R0, 02000, 0, 0102030},
		{"autoincrement", []uint16{0012001}, R0, 02000, 2, 0102030},
		{"autoincrement byte", []uint16{0112001}, R0, 02000, 1, 030},
		{"autoincrement byte odd", []uint16{0112001}, R0, 02001, 1, 0177604},
		{"autoincrement byte SP", []uint16{0112601}, SP, 02000, 2, 030},
		{"autodecrement", []uint16{0014001}, R0, 02002, 0177776, 0102030},
		{"autodecrement byte", []uint16{0114001}, R0, 02002, 0177777, 0177604},
		{"index", []uint16{0016001, 2}, R0, 01776, 0, 0102030},
		{"autoincrement deferred", []uint16{0013001}, R0, 02002, 2, 0102030},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			c, b := newTestCPU(01000)
			b.load(02000, 0102030, 02000)
			b.load(01000, tt.code...)
			c.R[tt.reg] = tt.initial
			c.ExecuteNextInstruction()
			is.Equal(c.R[tt.reg], tt.initial+tt.delta)      // register delta
			is.Equal(c.R[1], tt.r1)                         // value moved
			is.Equal(c.R[PC], uint16(01000+2*len(tt.code))) // PC advance
		})
	}
}

func TestAutoincrementPC(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0112701, 000201, // MOVB #201, R1
	)
	c.ExecuteNextInstruction()
	is.Equal(c.R[1], uint16(0177601)) // sign extended
	is.Equal(c.R[PC], uint16(01004))  // PC steps by 2 in byte mode
	is.True(c.n())
}

func TestBoot(t *testing.T) {
	is := is.New(t)
	b := &testBus{start: 0100000}
	c := New(b)
	c.R[PC] = 0177777
	c.Reset()
	is.Equal(b.resets, 1)
	is.Equal(c.R[PC], uint16(0100000))
	is.Equal(c.PSW(), uint16(0340))
	is.Equal(c.State(), Running)

	b.load(0100000,
		0010001,         // MOV R0, R1
		0005710,         // TST (R0)
		0005210,         // INC (R0)
		0066011, 000002, // ADD 2(R0), (R1)
		0022700, 000001, // CMP #1, R0
		0000401, 0, // BR .+4
		0004737, 0100026, // JSR PC, @#100026
		0000110, // JMP (R0)
	)
	c.R[0] = 02000
	c.R[SP] = 0700

	want := []int{
		12,           // base
		12 + 12,      // A
		12 + 20,      // A2
		12 + 20 + 20, // A + A2
		12 + 12 + 0,  // A + A
		16,           // branch
		32 + 8,       // JSR @#
		16,           // JMP (R0)
	}
	for i, w := range want {
		before := c.Time()
		c.ExecuteNextInstruction()
		is.Equal(int(c.Time()-before), w) // instruction time
		if i == 6 {
			is.Equal(c.R[PC], uint16(0100026))
		}
	}
	is.Equal(c.R[PC], uint16(02000))
	is.Equal(b.timers, len(want))
}

func TestEMT(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorEMT, 03000, 0)
	b.load(01000,
		0104017, // EMT 17
	)
	b.load(03000,
		0000002, // RTI
	)
	var vectors []uint16
	var number uint16
	c.AddTrapListener(TrapListenerFunc(func(c *CPU, vector uint16) {
		vectors = append(vectors, vector)
		number, _ = c.TrapNumber()
	}))
	c.psw = 0340 | FLAGZ

	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(03000))
	is.Equal(c.R[SP], uint16(0674))
	is.Equal(b.word(0674), uint16(01002))      // PC pushed last
	is.Equal(b.word(0676), uint16(0340|FLAGZ)) // PSW pushed first
	is.Equal(c.PSW(), uint16(0))
	is.Equal(vectors, []uint16{VectorEMT})
	is.Equal(number, uint16(017))
	is.True(!c.IsTrapHandlerInROM(VectorEMT))

	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01002))
	is.Equal(c.R[SP], uint16(0700))
	is.Equal(c.PSW(), uint16(0340|FLAGZ))
}

func TestTrapHandlerInROM(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorTRAP, 0120000, 0)
	is.True(c.IsTrapHandlerInROM(VectorTRAP))
}

func TestReservedInstruction(t *testing.T) {
	for _, instr := range []uint16{
		0000007, // unused
		0000100, // JMP R0
		0004100, // JSR R1, R0
		0070000, // MUL is not implemented
		0106500, // MFPI
	} {
		is := is.New(t)
		c, b := newTestCPU(01000)
		b.load(VectorReserved, 04000, 0)
		b.load(01000, instr)
		c.ExecuteNextInstruction()
		is.Equal(c.R[PC], uint16(04000))
		is.Equal(b.word(0674), uint16(01002))
	}
}

func TestBusErrorTrap(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorBusError, 05000, 0)
	b.load(01000,
		0011100, // MOV (R1), R0
	)
	c.R[0] = 7
	c.R[1] = 0170000
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(05000))
	is.Equal(b.word(0674), uint16(01002))
	is.Equal(c.R[0], uint16(7))
}

func TestDoubleBusErrorHalts(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0005037, 0170000, // CLR @#170000
	)
	c.R[SP] = 0170010 // stack in unmapped space
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Halted)
}

func TestInterrupts(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorIRQ2, 06000, 0340)
	b.load(060, 07000, 0340)
	b.load(VectorIRQ1, 05000, 0340)
	b.load(01000,
		0000240, // NOP
		0000240, // NOP
	)

	// masked by priority
	c.psw = 0340
	c.RequestIRQ2()
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01002))

	c.psw = 0
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(06000))
	is.Equal(b.word(0674), uint16(01002))

	c.R[SP] = 0700
	c.psw = 0
	c.R[PC] = 01000
	c.RequestVIRQ(1, 060)
	c.ClearVIRQ(1)
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01002)) // withdrawn

	c.RequestVIRQ(1, 060)
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(07000))

	// IRQ1 ignores priority
	c.R[PC] = 01000
	c.RequestIRQ1()
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(05000))
}

func TestWAIT(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorIRQ2, 06000, 0340)
	b.load(01000,
		0000001, // WAIT
	)
	c.psw = 0
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Waiting)

	timers := b.timers
	before := c.Time()
	c.ExecuteNextInstruction()
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Waiting)
	is.Equal(c.Time()-before, int64(2*timeIdle)) // clock keeps running
	is.Equal(b.timers, timers+2)                 // timers keep running

	c.RequestIRQ2()
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Running)
	is.Equal(c.R[PC], uint16(06000))
	is.Equal(b.word(0674), uint16(01002))
}

func TestHALT(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorIRQ1, 05000, 0340)
	b.load(01000,
		0000000, // HALT
	)
	c.psw = 0
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Halted)

	c.RequestIRQ2()
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Halted) // only IRQ1 leaves HALT

	c.RequestIRQ1()
	c.ExecuteNextInstruction()
	is.Equal(c.State(), Running)
	is.Equal(c.R[PC], uint16(05000))
}

func TestTrace(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorBPT, 04000, 0340)
	b.load(01000,
		0000240, // NOP
	)
	c.psw = FLAGT
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(04000))
	is.Equal(b.word(0674), uint16(01002))
	is.Equal(b.word(0676), uint16(FLAGT))
}

func TestRTTSuppressesTrace(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(VectorBPT, 04000, 0340)
	b.load(0674, 02000, FLAGT) // return frame: PC, PSW
	b.load(01000,
		0000006, // RTT
	)
	b.load(02000,
		0000240, // NOP
	)
	c.R[SP] = 0674
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(02000))
	is.Equal(c.PSW(), uint16(FLAGT))

	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(04000)) // trace trap after the NOP
}

func TestSingleOperandFlags(t *testing.T) {
	tests := []struct {
		name        string
		instr       uint16
		r0, psw     uint16
		want, wantF uint16
	}{
		{"INC overflow", 0005200, 0077777, 0, 0100000, FLAGN | FLAGV},
		{"INC keeps C", 0005200, 0177777, FLAGC, 0, FLAGZ | FLAGC},
		{"DEC overflow", 0005300, 0100000, 0, 0077777, FLAGV},
		{"NEG zero", 0005400, 0, FLAGC, 0, FLAGZ},
		{"NEG", 0005400, 1, 0, 0177777, FLAGN | FLAGC},
		{"NEG min", 0005400, 0100000, 0, 0100000, FLAGN | FLAGV | FLAGC},
		{"COM", 0005100, 0, 0, 0177777, FLAGN | FLAGC},
		{"CLR", 0005000, 012345, FLAGN | FLAGV | FLAGC, 0, FLAGZ},
		{"ADC", 0005500, 0177777, FLAGC, 0, FLAGZ | FLAGC},
		{"SBC", 0005600, 0, FLAGC, 0177777, FLAGN | FLAGC},
		{"ASL", 0006300, 0140000, 0, 0100000, FLAGN | FLAGC},
		{"ASR", 0006200, 0100001, 0, 0140000, FLAGN | FLAGC},
		{"ROR", 0006000, 1, 0, 0, FLAGZ | FLAGV | FLAGC},
		{"ROL", 0006100, 0100000, FLAGC, 1, FLAGV | FLAGC},
		{"TST", 0005700, 0100000, FLAGV | FLAGC, 0100000, FLAGN},
		{"SWAB", 0000300, 0000377, 0, 0177400, FLAGZ},
		{"CLRB", 0105000, 0177777, 0, 0177400, FLAGZ},
		{"INCB", 0105200, 0000177, 0, 0000200, FLAGN | FLAGV},
		{"RORB", 0106000, 0000001, FLAGC, 0000200, FLAGN | FLAGC},
		{"SXT", 0006700, 012345, FLAGN, 0177777, FLAGN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			c, _ := newTestCPU(01000)
			c.R[0] = tt.r0
			c.psw = tt.psw
			execute(c, tt.instr)
			is.Equal(c.R[0], tt.want) // result
			is.Equal(c.psw, tt.wantF) // flags
		})
	}
}

func TestMOVB(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(02000, 0177001)
	c.R[0] = 02000
	c.R[2] = 02000
	execute(c, 0111001) // MOVB (R0), R1
	is.Equal(c.R[1], uint16(1))
	c.R[0] = 02001
	execute(c, 0111001) // MOVB (R0), R1
	is.Equal(c.R[1], uint16(0177776))
	is.True(c.n())
	c.R[1] = 0125
	execute(c, 0110112) // MOVB R1, (R2)
	is.Equal(b.word(02000), uint16(0177125))
}

func TestMTPSMFPS(t *testing.T) {
	is := is.New(t)
	c, _ := newTestCPU(01000)
	c.psw = FLAGT
	c.R[0] = 0377
	execute(c, 0106400)           // MTPS R0
	is.Equal(c.psw, uint16(0377)) // T is kept, not loaded
	c.psw = 0200
	execute(c, 0106700) // MFPS R0
	is.Equal(c.R[0], uint16(0177600))
	is.True(c.n())
}

func TestCCandBranches(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000,
		0000261,         // SEC
		0103002,         // BCC .+6
		0000241,         // CLC
		0000277,         // SCC
		0000257,         // CCC
		0005001,         // CLR R1
		0001401,         // BEQ .+4
		0000000,         // HALT
		0012700, 000003, // MOV #3, R0
		0077001, // SOB R0, .
	)
	for c.R[PC] != 01026 {
		c.ExecuteNextInstruction()
		is.Equal(c.State(), Running)
	}
	is.Equal(c.R[0], uint16(0))
	is.Equal(c.psw&017, uint16(0)) // MOV #3 cleared Z
}

func TestXOR(t *testing.T) {
	is := is.New(t)
	c, _ := newTestCPU(01000)
	c.R[1] = 0177777
	c.R[0] = 0070707
	execute(c, 0074100) // XOR R1, R0
	is.Equal(c.R[0], uint16(0107070))
	is.True(c.n())
}

func TestMARK(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	// the stack holds the MARK word, one argument and the caller's R5.
	// R5 holds the return address.
	b.load(0670, 0006401, 012345, 054321)
	c.R[SP] = 0670
	c.R[5] = 01000
	c.R[PC] = 0670
	c.ExecuteNextInstruction()
	is.Equal(c.R[PC], uint16(01000))
	is.Equal(c.R[5], uint16(054321))
	is.Equal(c.R[SP], uint16(0676))
}

func TestRESET(t *testing.T) {
	is := is.New(t)
	c, b := newTestCPU(01000)
	b.load(01000, 0000005) // RESET
	resets := b.resets
	before := c.Time()
	c.ExecuteNextInstruction()
	is.Equal(b.resets, resets+1)
	is.Equal(c.Time()-before, int64(timeReset))
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		code []uint16
		want string
		n    int
	}{
		{[]uint16{0010001}, "MOV R0,R1", 2},
		{[]uint16{0112721, 0101}, "MOVB #000101,(R1)+", 4},
		{[]uint16{0004737, 0100000}, "JSR PC,@#100000", 4},
		{[]uint16{0000207}, "RTS PC", 2},
		{[]uint16{0000401}, "BR 001004", 2},
		{[]uint16{0104016}, "EMT 16", 2},
		{[]uint16{0000241}, "CLC", 2},
		{[]uint16{0000257}, "CCC", 2},
		{[]uint16{0000240}, "NOP", 2},
		{[]uint16{0016102, 4}, "MOV 000004(R1),R2", 4},
		{[]uint16{0000007}, ".WORD 000007", 2},
	}
	for _, tt := range tests {
		is := is.New(t)
		_, b := newTestCPU(01000)
		b.load(01000, tt.code...)
		got, n := Disassemble(func(addr uint16) (uint16, bool) {
			return b.Read(false, addr)
		}, 01000)
		is.Equal(got, tt.want)
		is.Equal(n, tt.n)
	}
}

func TestSaveRestore(t *testing.T) {
	is := is.New(t)
	c, _ := newTestCPU(01000)
	for i := range c.R {
		c.R[i] = uint16(01000 + i)
	}
	c.psw = 0345
	c.RequestVIRQ(1, 0274)
	s := state.New()
	c.SaveState(s)

	d, _ := newTestCPU(02000)
	is.NoErr(d.RestoreState(s))
	is.Equal(d.R, c.R)
	is.Equal(d.PSW(), uint16(0345))
	is.Equal(d.Time(), c.Time())
	is.Equal(d.virq[1], uint16(0274))

	is.True(d.RestoreState(state.New()) != nil)
}

func BenchmarkADD(b *testing.B) {
	c, bus := newTestCPU(01000)
	bus.load(01000,
		0060001, // ADD R0, R1
	)
	for i := 0; i < b.N; i++ {
		c.R[0] = uint16(i)
		c.R[1] = uint16(i)
		c.R[PC] = 01000
		c.ExecuteNextInstruction()
	}
}
