package mmio

import "github.com/lokathor/gbcore/pkg/bits"

// ButtonState packs the 8 DMG buttons into one byte, active-low (a set bit
// means the button is released), in order A/B/Select/Start/Right/Left/Up/Down
// from bit 0, matching the joypad register's own polarity.
type ButtonState uint8

// ReleasedButtonState is the power-on/no-input state: every button up.
const ReleasedButtonState ButtonState = 0xFF

func (s ButtonState) bit(n uint) bool { return !bits.Get(n, uint8(s)) }
func (s ButtonState) with(n uint, pressed bool) ButtonState {
	return ButtonState(bits.With(n, uint8(s), !pressed))
}

func (s ButtonState) A() bool      { return s.bit(0) }
func (s ButtonState) B() bool      { return s.bit(1) }
func (s ButtonState) Select() bool { return s.bit(2) }
func (s ButtonState) Start() bool  { return s.bit(3) }
func (s ButtonState) Right() bool  { return s.bit(4) }
func (s ButtonState) Left() bool   { return s.bit(5) }
func (s ButtonState) Up() bool     { return s.bit(6) }
func (s ButtonState) Down() bool   { return s.bit(7) }

func (s ButtonState) WithA(p bool) ButtonState      { return s.with(0, p) }
func (s ButtonState) WithB(p bool) ButtonState      { return s.with(1, p) }
func (s ButtonState) WithSelect(p bool) ButtonState { return s.with(2, p) }
func (s ButtonState) WithStart(p bool) ButtonState  { return s.with(3, p) }
func (s ButtonState) WithRight(p bool) ButtonState  { return s.with(4, p) }
func (s ButtonState) WithLeft(p bool) ButtonState   { return s.with(5, p) }
func (s ButtonState) WithUp(p bool) ButtonState     { return s.with(6, p) }
func (s ButtonState) WithDown(p bool) ButtonState   { return s.with(7, p) }

// ToJOYP converts the button state into a JOYP nibble+selection-bits value,
// given which of the two groups (action buttons, direction buttons) are
// currently selected by the CPU.
func (s ButtonState) ToJOYP(action, direction bool) uint8 {
	out := uint8(0b1111)
	if action {
		out &= uint8(s)
	}
	if direction {
		out &= uint8(s) >> 4
	}
	if !action {
		out = bits.With(5, out, true)
	}
	if !direction {
		out = bits.With(4, out, true)
	}
	return out
}
