package cpu

// cbRegSelect maps a CB-opcode's low 3 bits to the targeted 8-bit register;
// index 6 ((HL)) is never looked up directly, see dispatchCB.
var cbRegSelect = [8]Reg8{B, C, D, E, H, L, 0, A}

// dispatchCB decodes the second byte of a CB-prefixed instruction and
// enqueues its schedule. Register targets execute on the M-cycle after the
// one that decoded them; memory-at-HL targets expand to read → op → write across
// three M-cycles (spec.md §4.1).
func (c *CPU) dispatchCB(opcode uint8) {
	group := opcode >> 6
	selector := (opcode >> 3) & 0x07
	regIdx := opcode & 0x07

	if regIdx != 6 {
		reg := cbRegSelect[regIdx]
		c.queue = append(c.queue, cbOpAction(group, reg, selector))
		return
	}

	c.queue = append(c.queue,
		Action{Kind: KindRead, Dst8: IMML, Addr: AddrOfHL, Delta: 0},
		cbOpAction(group, IMML, selector),
		Action{Kind: KindWrite, Addr: AddrOfHL, Src8: IMML, Delta: 0},
	)
}

func cbOpAction(group uint8, reg Reg8, selector uint8) Action {
	switch group {
	case 0b00:
		return Action{Kind: KindCBRotate, Dst8: reg, Shift: ShiftOp(selector)}
	case 0b01:
		return Action{Kind: KindCBBit, Dst8: reg, Bit: selector}
	case 0b10:
		return Action{Kind: KindCBRes, Dst8: reg, Bit: selector}
	default:
		return Action{Kind: KindCBSet, Dst8: reg, Bit: selector}
	}
}
