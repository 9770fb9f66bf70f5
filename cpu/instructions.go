package cpu

// HALT 000000
func HALT(c *CPU, _ *Operands) {
	c.state = Halted
}

// WAIT 000001
func WAIT(c *CPU, _ *Operands) {
	c.state = Waiting
}

// RTI 000002
func RTI(c *CPU, _ *Operands) {
	c.returnFromTrap()
}

// RTT 000006
func RTT(c *CPU, _ *Operands) {
	if c.returnFromTrap() {
		c.traceSuppress = true
	}
}

// BPT 000003
func BPT(c *CPU, _ *Operands) { c.trap(VectorBPT) }

// IOT 000004
func IOT(c *CPU, _ *Operands) { c.trap(VectorIOT) }

// EMT 104000
func EMT(c *CPU, _ *Operands) { c.trap(VectorEMT) }

// TRAP 104400
func TRAP(c *CPU, _ *Operands) { c.trap(VectorTRAP) }

func reservedInstruction(c *CPU, _ *Operands) { c.trap(VectorReserved) }

// RESET 000005
func RESET(c *CPU, _ *Operands) {
	c.bus.Reset(c.time, false)
}

// JMP 0001DD
func JMP(c *CPU, o *Operands) {
	if o.DstMode == ModeRegister {
		c.trap(VectorReserved)
		return
	}
	addr, ok := addressingModes[o.DstMode].Address(c, o.DstReg)
	if !ok {
		return
	}
	c.R[PC] = addr
}

// JSR 004RDD
func JSR(c *CPU, o *Operands) {
	if o.DstMode == ModeRegister {
		c.trap(VectorReserved)
		return
	}
	addr, ok := addressingModes[o.DstMode].Address(c, o.DstReg)
	if !ok {
		return
	}
	if !c.Push(c.R[o.Reg]) {
		return
	}
	c.R[o.Reg] = c.R[PC]
	c.R[PC] = addr
}

// RTS 00020R
func RTS(c *CPU, o *Operands) {
	v, ok := c.Pop()
	if !ok {
		return
	}
	c.R[PC] = c.R[o.Reg]
	c.R[o.Reg] = v
}

// MARK 0064NN
func MARK(c *CPU, o *Operands) {
	c.R[SP] = c.R[PC] + uint16(2*o.Offset)
	c.R[PC] = c.R[R5]
	v, ok := c.Pop()
	if !ok {
		return
	}
	c.R[R5] = v
}

// CCC 00024X clears the condition codes in the low four bits.
func CCC(c *CPU, o *Operands) {
	c.psw &^= o.Instruction & 017
}

// SCC 00026X sets the condition codes in the low four bits.
func SCC(c *CPU, o *Operands) {
	c.psw |= o.Instruction & 017
}

// SOB 077RNN
func SOB(c *CPU, o *Operands) {
	c.R[o.Reg]--
	if c.R[o.Reg] != 0 {
		c.R[PC] -= uint16(2 * (o.Instruction & 077))
	}
}

func branch(c *CPU, o *Operands, cond bool) {
	if cond {
		c.R[PC] += uint16(2 * o.Offset)
	}
}

// BR 0004XX
func BR(c *CPU, o *Operands) { branch(c, o, true) }

// BNE 0010XX
func BNE(c *CPU, o *Operands) { branch(c, o, !c.z()) }

// BEQ 0014XX
func BEQ(c *CPU, o *Operands) { branch(c, o, c.z()) }

// BGE 0020XX
func BGE(c *CPU, o *Operands) { branch(c, o, c.n() == c.v()) }

// BLT 0024XX
func BLT(c *CPU, o *Operands) { branch(c, o, c.n() != c.v()) }

// BGT 0030XX
func BGT(c *CPU, o *Operands) { branch(c, o, !c.z() && c.n() == c.v()) }

// BLE 0034XX
func BLE(c *CPU, o *Operands) { branch(c, o, c.z() || c.n() != c.v()) }

// BPL 1000XX
func BPL(c *CPU, o *Operands) { branch(c, o, !c.n()) }

// BMI 1004XX
func BMI(c *CPU, o *Operands) { branch(c, o, c.n()) }

// BHI 1010XX
func BHI(c *CPU, o *Operands) { branch(c, o, !c.c() && !c.z()) }

// BLOS 1014XX
func BLOS(c *CPU, o *Operands) { branch(c, o, c.c() || c.z()) }

// BVC 1020XX
func BVC(c *CPU, o *Operands) { branch(c, o, !c.v()) }

// BVS 1024XX
func BVS(c *CPU, o *Operands) { branch(c, o, c.v()) }

// BCC 1030XX, also BHIS
func BCC(c *CPU, o *Operands) { branch(c, o, !c.c()) }

// BCS 1034XX, also BLO
func BCS(c *CPU, o *Operands) { branch(c, o, c.c()) }

// SWAB 0003DD
func SWAB(c *CPU, o *Operands) {
	v, ok := c.readDestination(false, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	r := v<<8 | v>>8
	if !c.writeDestination(false, o.DstMode, o.DstReg, r) {
		return
	}
	c.setNZ(true, r)
	c.setFlag(FLAGV|FLAGC, false)
}

// SXT 0067DD
func SXT(c *CPU, o *Operands) {
	var r uint16
	if c.n() {
		r = 0177777
	}
	if !c.writeOperand(false, o.DstMode, o.DstReg, r) {
		return
	}
	c.setFlag(FLAGZ, r == 0)
	c.setFlag(FLAGV, false)
}

// MTPS 1064SS
func MTPS(c *CPU, o *Operands) {
	v, ok := c.readOperand(true, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	c.psw = c.psw&FLAGT | v&0357
}

// MFPS 1067DD
func MFPS(c *CPU, o *Operands) {
	v := c.psw & 0377
	if o.DstMode == ModeRegister {
		c.R[o.DstReg] = signExtend(v)
	} else if !c.writeOperand(true, o.DstMode, o.DstReg, v) {
		return
	}
	c.setNZ(true, v)
	c.setFlag(FLAGV, false)
}

func signExtend(b uint16) uint16 {
	if b&0200 != 0 {
		return b | 0177400
	}
	return b & 0377
}

// CLR 0050DD
func CLR(c *CPU, o *Operands) {
	if !c.writeOperand(o.ByteMode, o.DstMode, o.DstReg, 0) {
		return
	}
	c.psw = c.psw&^(FLAGN|FLAGV|FLAGC) | FLAGZ
}

// modify runs a read-modify-write single operand instruction. flags is
// called with the original and new values only after the write succeeds.
func (c *CPU) modify(o *Operands, fn func(v uint16) uint16, flags func(v, r uint16)) {
	v, ok := c.readDestination(o.ByteMode, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	r := fn(v) & valueMask(o.ByteMode)
	if !c.writeDestination(o.ByteMode, o.DstMode, o.DstReg, r) {
		return
	}
	c.setNZ(o.ByteMode, r)
	flags(v, r)
}

// COM 0051DD
func COM(c *CPU, o *Operands) {
	c.modify(o, func(v uint16) uint16 { return ^v }, func(_, _ uint16) {
		c.setFlag(FLAGV, false)
		c.setFlag(FLAGC, true)
	})
}

// INC 0052DD
func INC(c *CPU, o *Operands) {
	c.modify(o, func(v uint16) uint16 { return v + 1 }, func(_, r uint16) {
		c.setFlag(FLAGV, r == signBit(o.ByteMode))
	})
}

// DEC 0053DD
func DEC(c *CPU, o *Operands) {
	c.modify(o, func(v uint16) uint16 { return v - 1 }, func(v, _ uint16) {
		c.setFlag(FLAGV, v == signBit(o.ByteMode))
	})
}

// NEG 0054DD
func NEG(c *CPU, o *Operands) {
	c.modify(o, func(v uint16) uint16 { return -v }, func(_, r uint16) {
		c.setFlag(FLAGV, r == signBit(o.ByteMode))
		c.setFlag(FLAGC, r != 0)
	})
}

// ADC 0055DD
func ADC(c *CPU, o *Operands) {
	carry := c.c()
	c.modify(o, func(v uint16) uint16 {
		if carry {
			return v + 1
		}
		return v
	}, func(v, _ uint16) {
		c.setFlag(FLAGV, carry && v == signBit(o.ByteMode)-1)
		c.setFlag(FLAGC, carry && v == valueMask(o.ByteMode))
	})
}

// SBC 0056DD
func SBC(c *CPU, o *Operands) {
	carry := c.c()
	c.modify(o, func(v uint16) uint16 {
		if carry {
			return v - 1
		}
		return v
	}, func(v, _ uint16) {
		c.setFlag(FLAGV, carry && v == signBit(o.ByteMode))
		c.setFlag(FLAGC, carry && v == 0)
	})
}

// TST 0057DD
func TST(c *CPU, o *Operands) {
	v, ok := c.readOperand(o.ByteMode, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	c.setNZ(o.ByteMode, v)
	c.setFlag(FLAGV|FLAGC, false)
}

// shiftFlags sets C from carry and V from N xor C, after a rotate or shift.
func (c *CPU) shiftFlags(carry bool) {
	c.setFlag(FLAGC, carry)
	c.setFlag(FLAGV, c.n() != carry)
}

// ROR 0060DD
func ROR(c *CPU, o *Operands) {
	in := c.c()
	var carry bool
	c.modify(o, func(v uint16) uint16 {
		carry = v&1 != 0
		r := v & valueMask(o.ByteMode) >> 1
		if in {
			r |= signBit(o.ByteMode)
		}
		return r
	}, func(_, _ uint16) { c.shiftFlags(carry) })
}

// ROL 0061DD
func ROL(c *CPU, o *Operands) {
	in := c.c()
	var carry bool
	c.modify(o, func(v uint16) uint16 {
		carry = v&signBit(o.ByteMode) != 0
		r := v << 1
		if in {
			r |= 1
		}
		return r
	}, func(_, _ uint16) { c.shiftFlags(carry) })
}

// ASR 0062DD
func ASR(c *CPU, o *Operands) {
	var carry bool
	c.modify(o, func(v uint16) uint16 {
		carry = v&1 != 0
		return v&valueMask(o.ByteMode)>>1 | v&signBit(o.ByteMode)
	}, func(_, _ uint16) { c.shiftFlags(carry) })
}

// ASL 0063DD
func ASL(c *CPU, o *Operands) {
	var carry bool
	c.modify(o, func(v uint16) uint16 {
		carry = v&signBit(o.ByteMode) != 0
		return v << 1
	}, func(_, _ uint16) { c.shiftFlags(carry) })
}

// MOV 01SSDD
func MOV(c *CPU, o *Operands) {
	src, ok := c.readOperand(o.ByteMode, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	if o.ByteMode && o.DstMode == ModeRegister {
		c.R[o.DstReg] = signExtend(src)
	} else if !c.writeOperand(o.ByteMode, o.DstMode, o.DstReg, src) {
		return
	}
	c.setNZ(o.ByteMode, src)
	c.setFlag(FLAGV, false)
}

// CMP 02SSDD
func CMP(c *CPU, o *Operands) {
	src, ok := c.readOperand(o.ByteMode, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	dst, ok := c.readOperand(o.ByteMode, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	sign := uint32(signBit(o.ByteMode))
	mask := uint32(valueMask(o.ByteMode))
	result := uint32(src) - uint32(dst)
	c.setNZ(o.ByteMode, uint16(result))
	c.setFlag(FLAGV, (uint32(src)^uint32(dst))&(^uint32(dst)^result)&sign != 0)
	c.setFlag(FLAGC, result&^mask != 0)
}

// BIT 03SSDD
func BIT(c *CPU, o *Operands) {
	src, ok := c.readOperand(o.ByteMode, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	dst, ok := c.readOperand(o.ByteMode, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	c.setNZ(o.ByteMode, src&dst)
	c.setFlag(FLAGV, false)
}

// logical runs BIC, BIS and XOR style read-modify-write double operand
// instructions.
func (c *CPU) logical(o *Operands, src uint16, fn func(src, dst uint16) uint16) {
	dst, ok := c.readDestination(o.ByteMode, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	r := fn(src, dst) & valueMask(o.ByteMode)
	if !c.writeDestination(o.ByteMode, o.DstMode, o.DstReg, r) {
		return
	}
	c.setNZ(o.ByteMode, r)
	c.setFlag(FLAGV, false)
}

// BIC 04SSDD
func BIC(c *CPU, o *Operands) {
	src, ok := c.readOperand(o.ByteMode, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	c.logical(o, src, func(src, dst uint16) uint16 { return dst &^ src })
}

// BIS 05SSDD
func BIS(c *CPU, o *Operands) {
	src, ok := c.readOperand(o.ByteMode, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	c.logical(o, src, func(src, dst uint16) uint16 { return dst | src })
}

// XOR 074RDD
func XOR(c *CPU, o *Operands) {
	c.logical(o, c.R[o.Reg], func(src, dst uint16) uint16 { return dst ^ src })
}

// ADD 06SSDD
func ADD(c *CPU, o *Operands) {
	src, ok := c.readOperand(false, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	dst, ok := c.readDestination(false, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	result := uint32(src) + uint32(dst)
	r := uint16(result)
	if !c.writeDestination(false, o.DstMode, o.DstReg, r) {
		return
	}
	c.setNZ(false, r)
	c.setFlag(FLAGV, ^(src^dst)&(src^r)&0100000 != 0)
	c.setFlag(FLAGC, result > 0177777)
}

// SUB 16SSDD
func SUB(c *CPU, o *Operands) {
	src, ok := c.readOperand(false, o.SrcMode, o.SrcReg)
	if !ok {
		return
	}
	dst, ok := c.readDestination(false, o.DstMode, o.DstReg)
	if !ok {
		return
	}
	result := uint32(dst) - uint32(src)
	r := uint16(result)
	if !c.writeDestination(false, o.DstMode, o.DstReg, r) {
		return
	}
	c.setNZ(false, r)
	c.setFlag(FLAGV, (src^dst)&(^src^r)&0100000 != 0)
	c.setFlag(FLAGC, result > 0177777)
}
