package cpu

// Kind is the operand layout of an instruction.
type Kind uint8

const (
	None Kind = iota // no operands
	SSDD             // source and destination
	DD               // destination
	RDD              // register and destination, JSR and XOR
	RR               // register, RTS
	O                // 8 bit branch offset
	RO               // register and 6 bit backwards offset, SOB
	NN               // 6 bit count, MARK
	N8               // 8 bit trap number, EMT and TRAP
	CC               // condition code bits
)

// Operands holds the fields decoded from an instruction word.
type Operands struct {
	Instruction uint16
	ByteMode    bool
	SrcMode     int
	SrcReg      int
	DstMode     int
	DstReg      int
	Reg         int
	Offset      int // branch offset in words, SOB or MARK count, trap number
}

// Opcode is an instruction class: a bit pattern, its decoder, its operation
// and its execution time.
type Opcode struct {
	Mnemonic string
	mask     uint16
	code     uint16
	kind     Kind
	byteMode bool // bit 15 selects the byte form
	exec     func(c *CPU, o *Operands)
	time     func(o *Operands) int
}

// Kind returns the operand layout.
func (op *Opcode) Kind() Kind { return op.kind }

// Name returns the mnemonic for instr, with the B suffix for byte forms.
func (op *Opcode) Name(instr uint16) string {
	if op.byteMode && instr&0100000 != 0 {
		return op.Mnemonic + "B"
	}
	return op.Mnemonic
}

// Decode extracts the operand fields of instr.
func (op *Opcode) Decode(instr uint16) Operands {
	o := Operands{
		Instruction: instr,
		ByteMode:    op.byteMode && instr&0100000 != 0,
	}
	switch op.kind {
	case SSDD:
		o.SrcMode = int(instr>>9) & 7
		o.SrcReg = int(instr>>6) & 7
		fallthrough
	case DD:
		o.DstMode = int(instr>>3) & 7
		o.DstReg = int(instr) & 7
	case RDD:
		o.Reg = int(instr>>6) & 7
		o.DstMode = int(instr>>3) & 7
		o.DstReg = int(instr) & 7
	case RR:
		o.Reg = int(instr) & 7
	case O:
		o.Offset = int(int8(instr))
	case RO:
		o.Reg = int(instr>>6) & 7
		o.Offset = int(instr) & 077
	case NN:
		o.Offset = int(instr) & 077
	case N8:
		o.Offset = int(instr) & 0377
	case CC:
		o.Offset = int(instr) & 037
	}
	return o
}

// Execute performs the operation.
func (op *Opcode) Execute(c *CPU, o *Operands) { op.exec(c, o) }

// ExecutionTime returns the time in clock ticks taken by the decoded
// instruction, including operand addressing.
func (op *Opcode) ExecutionTime(o *Operands) int { return op.time(o) }

func fixed(t int) func(*Operands) int {
	return func(*Operands) int { return t }
}

// MOV ADD SUB BIC BIS
func timeDouble(o *Operands) int {
	return timeBase + timeAddressingA[o.SrcMode] + timeAddressingA2[o.DstMode]
}

// CMP BIT
func timeDoubleRead(o *Operands) int {
	return timeBase + timeAddressingA[o.SrcMode] + timeAddressingA[o.DstMode]
}

// CLR COM INC ... XOR SWAB SXT MFPS
func timeSingle(o *Operands) int {
	return timeBase + timeAddressingA2[o.DstMode]
}

// TST
func timeSingleRead(o *Operands) int {
	return timeBase + timeAddressingA[o.DstMode]
}

func timeJump(o *Operands) int { return timeJMP + timeJumpAddressing[o.DstMode] }

func timeSubroutine(o *Operands) int { return timeJSR + timeJumpAddressing[o.DstMode] }

func timeMoveToPS(o *Operands) int { return timeMTPS + timeAddressingA[o.DstMode] }

// the first matching entry wins, so more specific patterns come first.
var optable = [...]Opcode{
	{"HALT", 0177777, 0000000, None, false, HALT, fixed(timeHALT)},
	{"WAIT", 0177777, 0000001, None, false, WAIT, fixed(timeWAIT)},
	{"RTI", 0177777, 0000002, None, false, RTI, fixed(timeRTI)},
	{"BPT", 0177777, 0000003, None, false, BPT, fixed(timeTrap)},
	{"IOT", 0177777, 0000004, None, false, IOT, fixed(timeTrap)},
	{"RESET", 0177777, 0000005, None, false, RESET, fixed(timeReset)},
	{"RTT", 0177777, 0000006, None, false, RTT, fixed(timeRTI)},

	{"JMP", 0177700, 0000100, DD, false, JMP, timeJump},
	{"RTS", 0177770, 0000200, RR, false, RTS, fixed(timeRTS)},
	{"NOP", 0177777, 0000240, None, false, CCC, fixed(timeCC)},
	{"CCC", 0177740, 0000240, CC, false, CCC, fixed(timeCC)},
	{"NOP", 0177777, 0000260, None, false, SCC, fixed(timeCC)},
	{"SCC", 0177740, 0000260, CC, false, SCC, fixed(timeCC)},
	{"SWAB", 0177700, 0000300, DD, false, SWAB, timeSingle},

	{"MARK", 0177700, 0006400, NN, false, MARK, fixed(timeMARK)},
	{"SXT", 0177700, 0006700, DD, false, SXT, timeSingle},
	{"MTPS", 0177700, 0106400, DD, false, MTPS, timeMoveToPS},
	{"MFPS", 0177700, 0106700, DD, false, MFPS, timeSingle},

	{"EMT", 0177400, 0104000, N8, false, EMT, fixed(timeTrap)},
	{"TRAP", 0177400, 0104400, N8, false, TRAP, fixed(timeTrap)},
	{"BPL", 0177400, 0100000, O, false, BPL, fixed(timeBranch)},
	{"BMI", 0177400, 0100400, O, false, BMI, fixed(timeBranch)},
	{"BHI", 0177400, 0101000, O, false, BHI, fixed(timeBranch)},
	{"BLOS", 0177400, 0101400, O, false, BLOS, fixed(timeBranch)},
	{"BVC", 0177400, 0102000, O, false, BVC, fixed(timeBranch)},
	{"BVS", 0177400, 0102400, O, false, BVS, fixed(timeBranch)},
	{"BCC", 0177400, 0103000, O, false, BCC, fixed(timeBranch)},
	{"BCS", 0177400, 0103400, O, false, BCS, fixed(timeBranch)},
	{"BR", 0177400, 0000400, O, false, BR, fixed(timeBranch)},
	{"BNE", 0177400, 0001000, O, false, BNE, fixed(timeBranch)},
	{"BEQ", 0177400, 0001400, O, false, BEQ, fixed(timeBranch)},
	{"BGE", 0177400, 0002000, O, false, BGE, fixed(timeBranch)},
	{"BLT", 0177400, 0002400, O, false, BLT, fixed(timeBranch)},
	{"BGT", 0177400, 0003000, O, false, BGT, fixed(timeBranch)},
	{"BLE", 0177400, 0003400, O, false, BLE, fixed(timeBranch)},

	{"JSR", 0177000, 0004000, RDD, false, JSR, timeSubroutine},
	{"XOR", 0177000, 0074000, RDD, false, XOR, timeSingle},
	{"SOB", 0177000, 0077000, RO, false, SOB, fixed(timeSOB)},
	{"ADD", 0170000, 0060000, SSDD, false, ADD, timeDouble},
	{"SUB", 0170000, 0160000, SSDD, false, SUB, timeDouble},

	{"CLR", 0077700, 0005000, DD, true, CLR, timeSingle},
	{"COM", 0077700, 0005100, DD, true, COM, timeSingle},
	{"INC", 0077700, 0005200, DD, true, INC, timeSingle},
	{"DEC", 0077700, 0005300, DD, true, DEC, timeSingle},
	{"NEG", 0077700, 0005400, DD, true, NEG, timeSingle},
	{"ADC", 0077700, 0005500, DD, true, ADC, timeSingle},
	{"SBC", 0077700, 0005600, DD, true, SBC, timeSingle},
	{"TST", 0077700, 0005700, DD, true, TST, timeSingleRead},
	{"ROR", 0077700, 0006000, DD, true, ROR, timeSingle},
	{"ROL", 0077700, 0006100, DD, true, ROL, timeSingle},
	{"ASR", 0077700, 0006200, DD, true, ASR, timeSingle},
	{"ASL", 0077700, 0006300, DD, true, ASL, timeSingle},

	{"MOV", 0070000, 0010000, SSDD, true, MOV, timeDouble},
	{"CMP", 0070000, 0020000, SSDD, true, CMP, timeDoubleRead},
	{"BIT", 0070000, 0030000, SSDD, true, BIT, timeDoubleRead},
	{"BIC", 0070000, 0040000, SSDD, true, BIC, timeDouble},
	{"BIS", 0070000, 0050000, SSDD, true, BIS, timeDouble},
}

// reserved is dispatched for every instruction word no entry matches.
var reserved = Opcode{"", 0, 0, None, false, reservedInstruction, fixed(timeTrap)}

var dispatch [1 << 16]*Opcode

func init() {
	for i := range dispatch {
		instr := uint16(i)
		dispatch[i] = &reserved
		for j := range optable {
			op := &optable[j]
			if instr&op.mask == op.code {
				dispatch[i] = op
				break
			}
		}
	}
}

// Lookup returns the opcode for instr. Reserved instruction words return an
// opcode with an empty mnemonic.
func Lookup(instr uint16) *Opcode { return dispatch[instr] }
