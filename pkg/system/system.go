// Package system is the harness that weaves the CPU, the PPU, and the
// external-parts bus together at single-dot granularity. It is the sole
// scheduler for the core: every other component is ticked from here, in
// the fixed order spec'd by the emulator's concurrency model, and nothing
// else holds a mutable reference to them.
package system

import (
	"github.com/lokathor/gbcore/pkg/bus"
	"github.com/lokathor/gbcore/pkg/cart"
	"github.com/lokathor/gbcore/pkg/cpu"
	"github.com/lokathor/gbcore/pkg/mmio"
	"github.com/lokathor/gbcore/pkg/ppu"
)

// System owns the CPU, the PPU, the framebuffer, and the external-parts
// bus for the lifetime of one running cartridge.
type System struct {
	cpu *cpu.CPU
	ppu *ppu.PPU
	bus *bus.Bus

	fb  ppu.Framebuffer
	dot uint64
}

// New constructs a System around the given cartridge, with the CPU entry
// point set to 0x0100 (the cartridge's own entry point; the boot ROM is
// not implemented).
func New(c *cart.Cart) *System {
	b := bus.New(c)
	s := &System{
		cpu: cpu.New(b.MMIO.IEPtr(), b.MMIO.IFPtr()),
		ppu: ppu.New(),
		bus: b,
	}
	return s
}

// Framebuffer returns the current 160x144 RGBA pixel grid. The returned
// pointer is mutated in place by subsequent Tick calls; callers that need a
// stable snapshot should copy it.
func (s *System) Framebuffer() *ppu.Framebuffer { return &s.fb }

// SetButtonState updates the latched button state, possibly flagging a
// joypad interrupt and, if the CPU is Stopped, waking it.
func (s *System) SetButtonState(bs mmio.ButtonState) { s.bus.MMIO.SetButtonState(bs) }

// SetSerialLogging enables or disables the outbound serial byte log.
func (s *System) SetSerialLogging(on bool) { s.bus.MMIO.SetSerialLogging(on) }

// SerialLog returns the bytes written to SB at each SC transfer request
// since logging was enabled.
func (s *System) SerialLog() []uint8 { return s.bus.MMIO.SerialLog() }

// PC exposes the CPU's program counter, for host-side diagnostics.
func (s *System) PC() uint16 { return s.cpu.Get16(cpu.PC) }

// Tick advances the system by one dot: the PPU always runs; on every
// fourth dot (an M-cycle boundary) LY is refreshed from the PPU, the timer
// ticks, and the CPU retires one micro-op (a no-op if Halted or Stopped).
// This ordering means a TIMA overflow or an LY write from the same M-cycle
// boundary is already visible to the CPU retirement that follows it.
func (s *System) Tick() {
	s.ppu.Tick(&s.fb)
	s.bus.MMIO.SetPPUMode(uint8(s.ppu.Mode()))

	boundary := s.dot&3 == 0
	s.dot++
	if !boundary {
		return
	}
	s.bus.MMIO.SetLY(s.ppu.Y())
	s.bus.MCycle()
	s.cpu.MCycle(s.bus)
}
