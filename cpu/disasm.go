package cpu

import (
	"fmt"
	"strings"
)

var rs = [...]string{"R0", "R1", "R2", "R3", "R4", "R5", "SP", "PC"}

// condition code mnemonics for CCC and SCC, by bit.
var ccs = [...]struct {
	flag     uint16
	clr, set string
}{
	{FLAGC, "CLC", "SEC"},
	{FLAGV, "CLV", "SEV"},
	{FLAGZ, "CLZ", "SEZ"},
	{FLAGN, "CLN", "SEN"},
}

// ReadFunc reads the word at addr.
type ReadFunc func(addr uint16) (uint16, bool)

type disassembler struct {
	read ReadFunc
	pc   uint16 // address of the next word after the ones consumed
	sb   strings.Builder
}

func (d *disassembler) next() uint16 {
	v, _ := d.read(d.pc)
	d.pc += 2
	return v
}

func (d *disassembler) operand(m, r int) {
	if r == PC {
		switch m {
		case 2:
			fmt.Fprintf(&d.sb, "#%06o", d.next())
			return
		case 3:
			fmt.Fprintf(&d.sb, "@#%06o", d.next())
			return
		case 6:
			x := d.next()
			fmt.Fprintf(&d.sb, "%06o", d.pc+x)
			return
		case 7:
			x := d.next()
			fmt.Fprintf(&d.sb, "@%06o", d.pc+x)
			return
		}
	}

	switch m {
	case 0:
		d.sb.WriteString(rs[r])
	case 1:
		fmt.Fprintf(&d.sb, "(%s)", rs[r])
	case 2:
		fmt.Fprintf(&d.sb, "(%s)+", rs[r])
	case 3:
		fmt.Fprintf(&d.sb, "@(%s)+", rs[r])
	case 4:
		fmt.Fprintf(&d.sb, "-(%s)", rs[r])
	case 5:
		fmt.Fprintf(&d.sb, "@-(%s)", rs[r])
	case 6:
		fmt.Fprintf(&d.sb, "%06o(%s)", d.next(), rs[r])
	case 7:
		fmt.Fprintf(&d.sb, "@%06o(%s)", d.next(), rs[r])
	}
}

// Disassemble returns the instruction at addr in MACRO-11 syntax and the
// number of bytes it occupies.
func Disassemble(read ReadFunc, addr uint16) (string, int) {
	d := disassembler{read: read, pc: addr}
	ins := d.next()
	op := Lookup(ins)
	if op.Mnemonic == "" {
		fmt.Fprintf(&d.sb, ".WORD %06o", ins)
		return d.sb.String(), 2
	}
	o := op.Decode(ins)

	switch op.kind {
	case CC:
		var names []string
		for _, cc := range ccs {
			if ins&cc.flag == 0 {
				continue
			}
			if op.Mnemonic == "SCC" {
				names = append(names, cc.set)
			} else {
				names = append(names, cc.clr)
			}
		}
		if len(names) == 4 {
			d.sb.WriteString(op.Mnemonic)
		} else {
			d.sb.WriteString(strings.Join(names, "!"))
		}
		return d.sb.String(), 2
	}

	d.sb.WriteString(op.Name(ins))
	switch op.kind {
	case SSDD:
		d.sb.WriteString(" ")
		d.operand(o.SrcMode, o.SrcReg)
		d.sb.WriteString(",")
		d.operand(o.DstMode, o.DstReg)
	case DD:
		d.sb.WriteString(" ")
		d.operand(o.DstMode, o.DstReg)
	case RDD:
		fmt.Fprintf(&d.sb, " %s,", rs[o.Reg])
		d.operand(o.DstMode, o.DstReg)
	case RR:
		fmt.Fprintf(&d.sb, " %s", rs[o.Reg])
	case O:
		fmt.Fprintf(&d.sb, " %06o", addr+2+uint16(2*o.Offset))
	case RO:
		fmt.Fprintf(&d.sb, " %s,%06o", rs[o.Reg], addr+2-uint16(2*o.Offset))
	case NN, N8:
		fmt.Fprintf(&d.sb, " %o", o.Offset)
	}
	return d.sb.String(), int(d.pc - addr)
}

// Disassemble returns the instruction at the current PC.
func (c *CPU) Disassemble() string {
	s, _ := Disassemble(func(addr uint16) (uint16, bool) {
		return c.bus.Read(false, addr)
	}, c.R[PC])
	return s
}
