// Package mmio implements the 256-byte I/O register page: joypad, serial,
// timer, LCD status mirror, and the IE/IF interrupt lines.
package mmio

import "github.com/lokathor/gbcore/pkg/bits"

// Register offsets within the 256-byte page (low 8 bits of the CPU address).
const (
	JOYP uint8 = 0x00
	SB   uint8 = 0x01
	SC   uint8 = 0x02
	TIMA uint8 = 0x05
	TMA  uint8 = 0x06
	TAC  uint8 = 0x07
	IF   uint8 = 0x0F
	STAT uint8 = 0x41
	LY   uint8 = 0x44
	LYC  uint8 = 0x45
	IE   uint8 = 0xFF
)

// Irq identifies one of the five interrupt lines, indexed by priority (lower
// is higher priority) and by bit position in IE/IF.
type Irq uint8

const (
	IrqVBlank Irq = 0
	IrqStat   Irq = 1
	IrqTimer  Irq = 2
	IrqSerial Irq = 3
	IrqJoypad Irq = 4
)

// MMIO is the 256-byte register page plus its side channels.
type MMIO struct {
	bytes [256]uint8

	buttons    ButtonState
	serialLog  []uint8
	logging    bool
	subTicks   uint16
}

// New returns an MMIO page in its power-on state.
func New() *MMIO {
	m := &MMIO{buttons: ReleasedButtonState}
	m.subTicks = tacSubTicks(0)
	m.Write(JOYP, 0)
	return m
}

// Read returns the raw byte at the given offset.
func (m *MMIO) Read(index uint8) uint8 { return m.bytes[index] }

// IEPtr and IFPtr expose the interrupt-enable and interrupt-flag registers
// directly, so the CPU can evaluate pendingIrq() without a round trip
// through the bus's address decoding on every fetch boundary.
func (m *MMIO) IEPtr() *uint8 { return &m.bytes[IE] }
func (m *MMIO) IFPtr() *uint8 { return &m.bytes[IF] }

// Write applies register-level semantics for the offsets that have live
// behavior; every other offset (including HRAM) is plain storage.
func (m *MMIO) Write(index uint8, b uint8) {
	switch index {
	case JOYP:
		action := !bits.Get(5, b)
		direction := !bits.Get(4, b)
		m.bytes[JOYP] = m.buttons.ToJOYP(action, direction)
	case SC:
		if bits.Get(7, b) && m.logging {
			m.serialLog = append(m.serialLog, m.bytes[SB])
		}
		m.bytes[SC] = b
	case TAC:
		m.bytes[TAC] = b
		m.subTicks = tacSubTicks(b)
	case STAT:
		// bits 0-2 (mode + LYC match) are read-only to the CPU.
		m.bytes[STAT] = bits.WithValue(0, 3, b, m.bytes[STAT])
	default:
		m.bytes[index] = b
	}
}

// SetSerialLogging enables or disables the outbound serial byte log.
func (m *MMIO) SetSerialLogging(on bool) {
	m.logging = on
	if !on {
		m.serialLog = nil
	} else if m.serialLog == nil {
		m.serialLog = []uint8{}
	}
}

// SerialLog returns the bytes written to SB at each SC transfer-request so
// far (see spec.md §6 "Serial log format").
func (m *MMIO) SerialLog() []uint8 { return m.serialLog }

// SetButtonState updates the latched button state, flagging a joypad
// interrupt on any high-to-low (press) edge of the currently-visible JOYP
// low nibble.
func (m *MMIO) SetButtonState(s ButtonState) {
	oldLow := m.Read(JOYP) & 0x0F
	m.buttons = s
	// Recompute JOYP's low nibble under the currently-selected groups.
	action := !bits.Get(5, m.Read(JOYP))
	direction := !bits.Get(4, m.Read(JOYP))
	m.bytes[JOYP] = s.ToJOYP(action, direction)
	newLow := m.Read(JOYP) & 0x0F
	pressed := oldLow &^ newLow // bits that went from 1 (released) to 0 (pressed)
	if pressed != 0 && newLow != 0x0F {
		m.FlagInterrupt(IrqJoypad)
	}
}

// SetLY refreshes the harness-owned LY mirror, flagging VBlank the instant LY
// first reaches 144 and keeping the STAT LY==LYC bit accurate.
func (m *MMIO) SetLY(y uint8) {
	if y == 144 && m.bytes[LY] < 144 {
		m.FlagInterrupt(IrqVBlank)
	}
	m.bytes[STAT] = bits.With(2, m.bytes[STAT], y == m.bytes[LYC])
	m.bytes[LY] = y
}

// SetPPUMode writes the PPU's current mode into STAT bits 0-1.
func (m *MMIO) SetPPUMode(mode uint8) {
	m.bytes[STAT] = bits.WithValue(0, 2, m.bytes[STAT], mode)
}

// MCycle advances the timer by one M-cycle: decrementing the sub-tick
// counter when TAC is enabled, and on expiry incrementing TIMA (with
// TMA-reload-and-interrupt on overflow).
func (m *MMIO) MCycle() {
	tac := m.bytes[TAC]
	if !bits.Get(2, tac) {
		return
	}
	m.subTicks--
	if m.subTicks != 0 {
		return
	}
	m.subTicks = tacSubTicks(tac)
	tima := m.bytes[TIMA]
	next := tima + 1
	if next == 0 { // overflowed from 0xFF
		m.bytes[TIMA] = m.bytes[TMA]
		m.FlagInterrupt(IrqTimer)
	} else {
		m.bytes[TIMA] = next
	}
}

// FlagInterrupt raises the corresponding bit in IF.
func (m *MMIO) FlagInterrupt(irq Irq) {
	m.bytes[IF] |= 1 << uint8(irq)
}

func tacSubTicks(tac uint8) uint16 {
	switch tac & 0b11 {
	case 0:
		return 256
	case 1:
		return 4
	case 2:
		return 16
	default:
		return 64
	}
}
