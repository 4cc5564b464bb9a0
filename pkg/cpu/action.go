package cpu

// Kind identifies which primitive an Action performs. The primitive set is
// closed: every SM83 opcode's schedule is built from these, never from an
// ad hoc closure.
type Kind uint8

const (
	KindNop Kind = iota
	KindRead
	KindWrite
	KindDelta16
	KindDelta8
	KindRotateCyClearZ // RLCA/RRCA: 8-bit rotate of A, Z forced false
	KindRotateClearZ   // RLA/RRA: rotate A through carry, Z forced false
	KindAddHL
	KindAddSP // ADD SP,e8
	KindJpRel
	KindJp
	KindCall
	KindRetIf
	KindDecimalAdjustA
	KindComplimentA
	KindComplimentCarryFlag
	KindSetCarryFlag
	KindMove
	KindMove16
	KindMovePC // JP HL
	KindSetPC  // RST n / interrupt dispatch
	KindSetIE
	KindCompare
	KindAdd
	KindSub
	KindAnd
	KindXor
	KindOr
	KindPush
	KindPop
	KindFetchCB
	KindCBBit
	KindCBRes
	KindCBSet
	KindCBRotate
	KindLoadSPOffset // LD HL,SP+e8
)

// ShiftOp selects which of the eight CB-prefix shift/rotate forms a
// KindCBRotate action performs.
type ShiftOp uint8

const (
	ShiftRLC ShiftOp = iota
	ShiftRRC
	ShiftRL
	ShiftRR
	ShiftSLA
	ShiftSRA
	ShiftSRL
	ShiftSwap
)

// Action is a single primitive step of an instruction's retirement
// schedule; one Action is executed per M-cycle.
type Action struct {
	Kind Kind

	Dst8 Reg8
	Src8 Reg8
	Addr Addr
	Delta int8

	R16  Reg16
	Src16 Reg16

	Cond Cond

	Left        bool
	ThroughCarry bool
	WithCarry   bool

	Bit   uint8
	Shift ShiftOp

	Imm16  uint16
	IESet  bool
}

func signExtend(b uint8) int16 { return int16(int8(b)) }

func (c *CPU) condTrue(cond Cond) bool {
	switch cond {
	case Always:
		return true
	case IfZero:
		return c.Flag(FlagBitZ)
	case IfNotZero:
		return !c.Flag(FlagBitZ)
	case IfCarry:
		return c.Flag(FlagBitC)
	default: // IfNotCarry
		return !c.Flag(FlagBitC)
	}
}

// exec performs one Action against the CPU's registers and the bus,
// appending the extra actions of a taken branch, call or return to the queue.
func (c *CPU) exec(a Action, bus Bus) {
	switch a.Kind {
	case KindNop:
		// nothing

	case KindRead:
		addr := c.addr(a.Addr)
		c.Set8(a.Dst8, bus.Read(addr))
		c.bumpAddr(a.Addr, a.Delta)

	case KindWrite:
		addr := c.addr(a.Addr)
		bus.Write(addr, c.Get8(a.Src8))
		c.bumpAddr(a.Addr, a.Delta)

	case KindDelta16:
		c.Set16(a.R16, uint16(int32(c.Get16(a.R16))+int32(a.Delta)))

	case KindDelta8:
		v := c.Get8(a.Dst8)
		result := uint8(int16(v) + int16(a.Delta))
		c.Set8(a.Dst8, result)
		c.SetFlag(FlagBitZ, result == 0)
		c.SetFlag(FlagBitN, a.Delta < 0)
		if a.Delta > 0 {
			c.SetFlag(FlagBitH, HalfcarryAddTable[halfCarryIndex(v, uint8(a.Delta), result)])
		} else {
			c.SetFlag(FlagBitH, HalfcarrySubTable[halfCarryIndex(v, uint8(-a.Delta), result)])
		}

	case KindRotateCyClearZ:
		c.rotateA(a.Left, false)
	case KindRotateClearZ:
		c.rotateA(a.Left, true)

	case KindAddHL:
		result, h, cy := addFlags16(c.Get16(HL), c.Get16(a.R16))
		c.Set16(HL, result)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindAddSP:
		result, h, cy := addSigned16Flags(c.Get16(SP), int8(c.Get8(IMML)))
		c.Set16(SP, result)
		c.SetFlag(FlagBitZ, false)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindLoadSPOffset:
		result, h, cy := addSigned16Flags(c.Get16(SP), int8(c.Get8(IMML)))
		c.Set16(HL, result)
		c.SetFlag(FlagBitZ, false)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindJpRel:
		if c.condTrue(a.Cond) {
			base := int32(c.Get16(PC))
			c.Set16(PC, uint16(base+int32(signExtend(c.Get8(IMML)))))
			c.queue = append(c.queue, Action{Kind: KindNop})
		}

	case KindJp:
		if c.condTrue(a.Cond) {
			c.Set16(PC, c.Get16(IMM))
			c.queue = append(c.queue, Action{Kind: KindNop})
		}

	case KindCall:
		if c.condTrue(a.Cond) {
			// IMM holds the call target; stash the return address (the
			// current PC) into IMM before jumping, so the push actions below
			// read the return address via IMMH/IMML rather than the
			// already-overwritten PC.
			target := c.Get16(IMM)
			c.Set16(IMM, c.Get16(PC))
			c.Set16(PC, target)
			c.queue = append(c.queue,
				Action{Kind: KindDelta16, R16: SP, Delta: -1},
				Action{Kind: KindWrite, Addr: AddrOfSP, Src8: IMMH, Delta: -1},
				Action{Kind: KindWrite, Addr: AddrOfSP, Src8: IMML, Delta: 0},
			)
		}

	case KindRetIf:
		if c.condTrue(a.Cond) {
			c.queue = append(c.queue,
				Action{Kind: KindRead, Dst8: PCL, Addr: AddrOfSP, Delta: 1},
				Action{Kind: KindRead, Dst8: PCH, Addr: AddrOfSP, Delta: 1},
				Action{Kind: KindNop},
			)
		}

	case KindDecimalAdjustA:
		c.decimalAdjustA()

	case KindComplimentA:
		c.Set8(A, ^c.Get8(A))
		c.SetFlag(FlagBitN, true)
		c.SetFlag(FlagBitH, true)

	case KindComplimentCarryFlag:
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, false)
		c.SetFlag(FlagBitC, !c.Flag(FlagBitC))

	case KindSetCarryFlag:
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, false)
		c.SetFlag(FlagBitC, true)

	case KindMove:
		c.Set8(a.Dst8, c.Get8(a.Src8))

	case KindMove16:
		c.Set16(a.R16, c.Get16(a.Src16))

	case KindMovePC:
		c.Set16(PC, c.Get16(a.R16))

	case KindSetPC:
		c.Set16(PC, a.Imm16)

	case KindSetIE:
		if a.IESet {
			c.imeNext = true
		} else {
			c.IME = false
			c.imeNext = false
		}

	case KindCompare:
		_, z, h, cy := subFlags8Full(c.Get8(A), c.Get8(a.Src8))
		c.SetFlag(FlagBitZ, z)
		c.SetFlag(FlagBitN, true)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindAdd:
		result, z, h, cy := addFlags8(c.Get8(A), c.Get8(a.Src8), a.WithCarry && c.Flag(FlagBitC))
		c.Set8(A, result)
		c.SetFlag(FlagBitZ, z)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindSub:
		result, z, h, cy := subFlags8(c.Get8(A), c.Get8(a.Src8), a.WithCarry && c.Flag(FlagBitC))
		c.Set8(A, result)
		c.SetFlag(FlagBitZ, z)
		c.SetFlag(FlagBitN, true)
		c.SetFlag(FlagBitH, h)
		c.SetFlag(FlagBitC, cy)

	case KindAnd:
		result := c.Get8(A) & c.Get8(a.Src8)
		c.Set8(A, result)
		c.SetFlag(FlagBitZ, result == 0)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, true)
		c.SetFlag(FlagBitC, false)

	case KindXor:
		result := c.Get8(A) ^ c.Get8(a.Src8)
		c.Set8(A, result)
		c.SetFlag(FlagBitZ, result == 0)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, false)
		c.SetFlag(FlagBitC, false)

	case KindOr:
		result := c.Get8(A) | c.Get8(a.Src8)
		c.Set8(A, result)
		c.SetFlag(FlagBitZ, result == 0)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, false)
		c.SetFlag(FlagBitC, false)

	case KindFetchCB:
		opcode := bus.Read(c.Get16(PC))
		c.Set16(PC, c.Get16(PC)+1)
		c.dispatchCB(opcode)

	case KindCBBit:
		v := c.Get8(a.Dst8)
		c.SetFlag(FlagBitZ, v&(1<<a.Bit) == 0)
		c.SetFlag(FlagBitN, false)
		c.SetFlag(FlagBitH, true)

	case KindCBRes:
		c.Set8(a.Dst8, c.Get8(a.Dst8)&^(1<<a.Bit))

	case KindCBSet:
		c.Set8(a.Dst8, c.Get8(a.Dst8)|(1<<a.Bit))

	case KindCBRotate:
		c.cbRotate(a.Dst8, a.Shift)
	}
}

// bumpAddr applies a Read/Write action's post-access address delta.
func (c *CPU) bumpAddr(a Addr, delta int8) {
	if delta == 0 || a.Tag == AddrHiPage {
		return
	}
	r16 := a.toReg16()
	c.Set16(r16, uint16(int32(c.Get16(r16))+int32(delta)))
}

func (c *CPU) rotateA(left, throughCarry bool) {
	v := c.Get8(A)
	var result uint8
	var carryOut bool
	if left {
		carryOut = v&0x80 != 0
		result = v << 1
		if throughCarry {
			if c.Flag(FlagBitC) {
				result |= 1
			}
		} else if carryOut {
			result |= 1
		}
	} else {
		carryOut = v&0x01 != 0
		result = v >> 1
		if throughCarry {
			if c.Flag(FlagBitC) {
				result |= 0x80
			}
		} else if carryOut {
			result |= 0x80
		}
	}
	c.Set8(A, result)
	c.SetFlag(FlagBitZ, false)
	c.SetFlag(FlagBitN, false)
	c.SetFlag(FlagBitH, false)
	c.SetFlag(FlagBitC, carryOut)
}

func (c *CPU) cbRotate(r Reg8, op ShiftOp) {
	v := c.Get8(r)
	var result uint8
	var carryOut bool
	switch op {
	case ShiftRLC:
		carryOut = v&0x80 != 0
		result = v<<1 | v>>7
	case ShiftRRC:
		carryOut = v&0x01 != 0
		result = v>>1 | v<<7
	case ShiftRL:
		carryOut = v&0x80 != 0
		result = v << 1
		if c.Flag(FlagBitC) {
			result |= 1
		}
	case ShiftRR:
		carryOut = v&0x01 != 0
		result = v >> 1
		if c.Flag(FlagBitC) {
			result |= 0x80
		}
	case ShiftSLA:
		carryOut = v&0x80 != 0
		result = v << 1
	case ShiftSRA:
		carryOut = v&0x01 != 0
		result = v>>1 | (v & 0x80)
	case ShiftSRL:
		carryOut = v&0x01 != 0
		result = v >> 1
	case ShiftSwap:
		result = v<<4 | v>>4
	}
	c.Set8(r, result)
	c.SetFlag(FlagBitZ, result == 0)
	c.SetFlag(FlagBitN, false)
	c.SetFlag(FlagBitH, false)
	if op == ShiftSwap {
		c.SetFlag(FlagBitC, false)
	} else {
		c.SetFlag(FlagBitC, carryOut)
	}
}

// subFlags8Full is subFlags8 without an incoming borrow, named separately
// for CP's call site clarity.
func subFlags8Full(a, b uint8) (result uint8, z, h, c bool) {
	return subFlags8(a, b, false)
}

func (c *CPU) decimalAdjustA() {
	a := c.Get8(A)
	var adjust uint8
	carry := c.Flag(FlagBitC)
	if c.Flag(FlagBitN) {
		if c.Flag(FlagBitH) {
			adjust += 0x06
		}
		if carry {
			adjust += 0x60
		}
		a -= adjust
	} else {
		if c.Flag(FlagBitH) || a&0x0F > 0x09 {
			adjust += 0x06
		}
		if carry || a > 0x99 {
			adjust += 0x60
			carry = true
		}
		a += adjust
	}
	c.Set8(A, a)
	c.SetFlag(FlagBitZ, a == 0)
	c.SetFlag(FlagBitH, false)
	c.SetFlag(FlagBitC, carry)
}
