package cpu

// mainTable is the 256-entry opcode → schedule table. Illegal opcodes and
// opcodes handled as one-off control flow default to a single Nop; regular
// families (8-bit loads, ALU, 16-bit inc/dec, push/pop, jumps) are filled
// by loops over their register lists, mirroring how regular instruction
// families repeat across a fixed encoding grid.
var mainTable [256][]Action

// illegalOpcodes never advance past their own fetch; per spec.md §4.1 they
// map to a single frozen Nop.
var illegalOpcodes = [...]uint8{
	0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD,
}

// r8Grid is the register encoded by bits 5-3 (dst) / 2-0 (src) across the
// 0x40-0x7F load block and the 0x80-0xBF/0x04,0x05.. single-register
// blocks; index 6 stands for memory-at-HL.
var r8Grid = [8]Reg8{B, C, D, E, H, L, 0xFF, A}

const hlSlot = 6

func init() {
	for i := range mainTable {
		mainTable[i] = []Action{{Kind: KindNop}}
	}
	for _, op := range illegalOpcodes {
		mainTable[op] = []Action{{Kind: KindNop}}
	}

	buildLoadBlock()
	buildAluBlock()
	buildIncDec8()
	buildIncDec16()
	build16BitImmLoads()
	buildIndirectAccumulatorLoads()
	buildAddHL()
	buildRotatesAndMisc()
	buildJumpsAndCalls()
	buildPushPop()
	buildRST()
	buildHiPageAndAbsoluteLoads()
	buildStackMisc()

	mainTable[0x00] = []Action{{Kind: KindNop}}
	mainTable[0x76] = []Action{{Kind: KindNop}} // HALT: mode switch handled in dispatch
	mainTable[0x10] = []Action{{Kind: KindNop}} // STOP: mode switch handled in dispatch
	mainTable[0xF3] = []Action{{Kind: KindSetIE, IESet: false}}
	mainTable[0xFB] = []Action{{Kind: KindSetIE, IESet: true}}
	mainTable[0x27] = []Action{{Kind: KindDecimalAdjustA}}
	mainTable[0x2F] = []Action{{Kind: KindComplimentA}}
	mainTable[0x37] = []Action{{Kind: KindSetCarryFlag}}
	mainTable[0x3F] = []Action{{Kind: KindComplimentCarryFlag}}
}

// buildLoadBlock fills 0x40-0x7F, LD r,r' across the 8x8 register grid.
func buildLoadBlock() {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			op := uint8(0x40 + row*8 + col)
			if row == hlSlot && col == hlSlot {
				continue // 0x76 HALT, handled separately
			}
			switch {
			case row == hlSlot:
				mainTable[op] = []Action{{Kind: KindWrite, Addr: AddrOfHL, Src8: r8Grid[col]}, {Kind: KindNop}}
			case col == hlSlot:
				mainTable[op] = []Action{{Kind: KindRead, Dst8: r8Grid[row], Addr: AddrOfHL}, {Kind: KindNop}}
			default:
				mainTable[op] = []Action{{Kind: KindMove, Dst8: r8Grid[row], Src8: r8Grid[col]}}
			}
		}
	}
}

// buildAluBlock fills 0x80-0xBF, ALU A,r'/A,(HL), and the 0xC6-family
// ALU A,n8 immediates.
func buildAluBlock() {
	kinds := [8]Kind{KindAdd, KindAdd, KindSub, KindSub, KindAnd, KindXor, KindOr, KindCompare}
	withCarry := [8]bool{false, true, false, true, false, false, false, false}

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			op := uint8(0x80 + row*8 + col)
			if col == hlSlot {
				mainTable[op] = []Action{
					{Kind: KindRead, Dst8: IMML, Addr: AddrOfHL},
					{Kind: kinds[row], Src8: IMML, WithCarry: withCarry[row]},
				}
				continue
			}
			mainTable[op] = []Action{{Kind: kinds[row], Src8: r8Grid[col], WithCarry: withCarry[row]}}
		}
	}

	immOpcodes := [8]uint8{0xC6, 0xCE, 0xD6, 0xDE, 0xE6, 0xEE, 0xF6, 0xFE}
	for row, op := range immOpcodes {
		mainTable[op] = []Action{
			{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
			{Kind: kinds[row], Src8: IMML, WithCarry: withCarry[row]},
		}
	}
}

// buildIncDec8 fills the single-register INC/DEC family (0x04.. step 8 for
// INC, 0x05.. step 8 for DEC).
func buildIncDec8() {
	for idx, reg := range r8Grid {
		incOp := uint8(0x04 + idx*8)
		decOp := uint8(0x05 + idx*8)
		if idx == hlSlot {
			mainTable[incOp] = []Action{
				{Kind: KindRead, Dst8: IMML, Addr: AddrOfHL},
				{Kind: KindDelta8, Dst8: IMML, Delta: 1},
				{Kind: KindWrite, Addr: AddrOfHL, Src8: IMML},
			}
			mainTable[decOp] = []Action{
				{Kind: KindRead, Dst8: IMML, Addr: AddrOfHL},
				{Kind: KindDelta8, Dst8: IMML, Delta: -1},
				{Kind: KindWrite, Addr: AddrOfHL, Src8: IMML},
			}
			continue
		}
		mainTable[incOp] = []Action{{Kind: KindDelta8, Dst8: reg, Delta: 1}}
		mainTable[decOp] = []Action{{Kind: KindDelta8, Dst8: reg, Delta: -1}}
	}
}

// r16Quad is BC/DE/HL/SP, the register order used by the 0x?1/0x?3/0x?9/0x?B
// and push/pop encoding columns.
var r16Quad = [4]Reg16{BC, DE, HL, SP}

func buildIncDec16() {
	incOps := [4]uint8{0x03, 0x13, 0x23, 0x33}
	decOps := [4]uint8{0x0B, 0x1B, 0x2B, 0x3B}
	for i, r := range r16Quad {
		mainTable[incOps[i]] = []Action{{Kind: KindDelta16, R16: r, Delta: 1}, {Kind: KindNop}}
		mainTable[decOps[i]] = []Action{{Kind: KindDelta16, R16: r, Delta: -1}, {Kind: KindNop}}
	}
}

func build16BitImmLoads() {
	ops := [4]uint8{0x01, 0x11, 0x21, 0x31}
	for i, r := range r16Quad {
		hi, lo := reg16Parts(r)
		mainTable[ops[i]] = []Action{
			{Kind: KindRead, Dst8: lo, Addr: AddrOfPC, Delta: 1},
			{Kind: KindRead, Dst8: hi, Addr: AddrOfPC, Delta: 1},
			{Kind: KindNop},
		}
	}
}

// buildIndirectAccumulatorLoads fills LD (BC)/(DE),A, LD A,(BC)/(DE), and
// the HL+/HL- accumulator forms.
func buildIndirectAccumulatorLoads() {
	mainTable[0x02] = []Action{{Kind: KindWrite, Addr: AddrOfBC, Src8: A}, {Kind: KindNop}}
	mainTable[0x12] = []Action{{Kind: KindWrite, Addr: AddrOfDE, Src8: A}, {Kind: KindNop}}
	mainTable[0x0A] = []Action{{Kind: KindRead, Dst8: A, Addr: AddrOfBC}, {Kind: KindNop}}
	mainTable[0x1A] = []Action{{Kind: KindRead, Dst8: A, Addr: AddrOfDE}, {Kind: KindNop}}
	mainTable[0x22] = []Action{{Kind: KindWrite, Addr: AddrOfHL, Src8: A, Delta: 1}, {Kind: KindNop}}
	mainTable[0x32] = []Action{{Kind: KindWrite, Addr: AddrOfHL, Src8: A, Delta: -1}, {Kind: KindNop}}
	mainTable[0x2A] = []Action{{Kind: KindRead, Dst8: A, Addr: AddrOfHL, Delta: 1}, {Kind: KindNop}}
	mainTable[0x3A] = []Action{{Kind: KindRead, Dst8: A, Addr: AddrOfHL, Delta: -1}, {Kind: KindNop}}

	// 8-bit immediate loads LD r,n8.
	ldImm := map[uint8]Reg8{0x06: B, 0x0E: C, 0x16: D, 0x1E: E, 0x26: H, 0x2E: L, 0x3E: A}
	for op, reg := range ldImm {
		mainTable[op] = []Action{{Kind: KindRead, Dst8: reg, Addr: AddrOfPC, Delta: 1}, {Kind: KindNop}}
	}
	mainTable[0x36] = []Action{ // LD (HL),n8
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindWrite, Addr: AddrOfHL, Src8: IMML},
		{Kind: KindNop},
	}

	mainTable[0x08] = []Action{ // LD (a16),SP
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
		{Kind: KindWrite, Addr: AddrOfIMM, Src8: SPL, Delta: 1},
		{Kind: KindWrite, Addr: AddrOfIMM, Src8: SPH},
		{Kind: KindNop},
	}
}

func buildAddHL() {
	ops := [4]uint8{0x09, 0x19, 0x29, 0x39}
	for i, r := range r16Quad {
		mainTable[ops[i]] = []Action{{Kind: KindAddHL, R16: r}, {Kind: KindNop}}
	}
}

func buildRotatesAndMisc() {
	mainTable[0x07] = []Action{{Kind: KindRotateCyClearZ, Left: true}}
	mainTable[0x0F] = []Action{{Kind: KindRotateCyClearZ, Left: false}}
	mainTable[0x17] = []Action{{Kind: KindRotateClearZ, Left: true}}
	mainTable[0x1F] = []Action{{Kind: KindRotateClearZ, Left: false}}
}

func buildJumpsAndCalls() {
	jrOps := [4]uint8{0x20, 0x28, 0x30, 0x38}
	jrConds := [4]Cond{IfNotZero, IfZero, IfNotCarry, IfCarry}
	for i, op := range jrOps {
		mainTable[op] = []Action{
			{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
			{Kind: KindJpRel, Cond: jrConds[i]},
		}
	}
	mainTable[0x18] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindJpRel, Cond: Always},
	}

	jpOps := [4]uint8{0xC2, 0xCA, 0xD2, 0xDA}
	jpConds := [4]Cond{IfNotZero, IfZero, IfNotCarry, IfCarry}
	for i, op := range jpOps {
		mainTable[op] = []Action{
			{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
			{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
			{Kind: KindJp, Cond: jpConds[i]},
		}
	}
	mainTable[0xC3] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
		{Kind: KindJp, Cond: Always},
	}
	mainTable[0xE9] = []Action{{Kind: KindMovePC, R16: HL}}

	callOps := [4]uint8{0xC4, 0xCC, 0xD4, 0xDC}
	callConds := [4]Cond{IfNotZero, IfZero, IfNotCarry, IfCarry}
	for i, op := range callOps {
		mainTable[op] = []Action{
			{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
			{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
			{Kind: KindCall, Cond: callConds[i]},
		}
	}
	mainTable[0xCD] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
		{Kind: KindCall, Cond: Always},
	}

	retOps := [4]uint8{0xC0, 0xC8, 0xD0, 0xD8}
	retConds := [4]Cond{IfNotZero, IfZero, IfNotCarry, IfCarry}
	for i, op := range retOps {
		mainTable[op] = []Action{{Kind: KindNop}, {Kind: KindRetIf, Cond: retConds[i]}}
	}
	mainTable[0xC9] = []Action{
		{Kind: KindRead, Dst8: PCL, Addr: AddrOfSP, Delta: 1},
		{Kind: KindRead, Dst8: PCH, Addr: AddrOfSP, Delta: 1},
		{Kind: KindNop},
		{Kind: KindNop},
	}
	mainTable[0xD9] = []Action{
		{Kind: KindRead, Dst8: PCL, Addr: AddrOfSP, Delta: 1},
		{Kind: KindRead, Dst8: PCH, Addr: AddrOfSP, Delta: 1},
		{Kind: KindNop},
		{Kind: KindSetIE, IESet: true},
	}
}

// r16PushPop is the AF/BC/DE/HL ordering used by PUSH/POP, distinct from
// r16Quad (which uses SP in place of AF).
var r16PushPop = [4]Reg16{BC, DE, HL, AF}

func buildPushPop() {
	pushOps := [4]uint8{0xC5, 0xD5, 0xE5, 0xF5}
	popOps := [4]uint8{0xC1, 0xD1, 0xE1, 0xF1}
	for i, r := range r16PushPop {
		hi, lo := reg16Parts(r)
		mainTable[pushOps[i]] = []Action{
			{Kind: KindDelta16, R16: SP, Delta: -1},
			{Kind: KindWrite, Addr: AddrOfSP, Src8: hi, Delta: -1},
			{Kind: KindWrite, Addr: AddrOfSP, Src8: lo},
			{Kind: KindNop},
		}
		mainTable[popOps[i]] = []Action{
			{Kind: KindRead, Dst8: lo, Addr: AddrOfSP, Delta: 1},
			{Kind: KindRead, Dst8: hi, Addr: AddrOfSP, Delta: 1},
			{Kind: KindNop},
		}
	}
}

func buildRST() {
	ops := [8]uint8{0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF}
	for i, op := range ops {
		vec := uint16(i) * 8
		mainTable[op] = []Action{
			{Kind: KindDelta16, R16: SP, Delta: -1},
			{Kind: KindWrite, Addr: AddrOfSP, Src8: PCH, Delta: -1},
			{Kind: KindWrite, Addr: AddrOfSP, Src8: PCL},
			{Kind: KindSetPC, Imm16: vec},
		}
	}
}

func buildHiPageAndAbsoluteLoads() {
	mainTable[0xE0] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindWrite, Addr: HiPage(IMML), Src8: A},
		{Kind: KindNop},
	}
	mainTable[0xF0] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: A, Addr: HiPage(IMML)},
		{Kind: KindNop},
	}
	mainTable[0xE2] = []Action{{Kind: KindWrite, Addr: HiPage(C), Src8: A}, {Kind: KindNop}}
	mainTable[0xF2] = []Action{{Kind: KindRead, Dst8: A, Addr: HiPage(C)}, {Kind: KindNop}}
	mainTable[0xEA] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
		{Kind: KindWrite, Addr: AddrOfIMM, Src8: A},
		{Kind: KindNop},
	}
	mainTable[0xFA] = []Action{
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: IMMH, Addr: AddrOfPC, Delta: 1},
		{Kind: KindRead, Dst8: A, Addr: AddrOfIMM},
		{Kind: KindNop},
	}
}

func buildStackMisc() {
	mainTable[0xE8] = []Action{ // ADD SP,e8
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindAddSP},
		{Kind: KindNop},
		{Kind: KindNop},
	}
	mainTable[0xF8] = []Action{ // LD HL,SP+e8
		{Kind: KindRead, Dst8: IMML, Addr: AddrOfPC, Delta: 1},
		{Kind: KindLoadSPOffset},
		{Kind: KindNop},
	}
	mainTable[0xF9] = []Action{{Kind: KindMove16, R16: SP, Src16: HL}, {Kind: KindNop}}
}
