// Package bus routes CPU memory accesses to the cartridge, VRAM, WRAM, OAM,
// and the MMIO register page — the "cartridge-external parts" of the
// system.
package bus

import "github.com/lokathor/gbcore/pkg/mmio"

const (
	vramBankSize = 8 * 1024
	wramBankSize = 4 * 1024
	oamSize      = 40 * 4
)

// Cart is the subset of pkg/cart.Cart the bus needs; satisfied by any
// MBC1 cartridge.
type Cart interface {
	Read(addr uint16) uint8
	Write(addr uint16, b uint8)
}

// Bus owns everything in the system except the CPU, the PPU, and the
// framebuffer: VRAM, WRAM, OAM, MMIO, and the boxed cartridge.
type Bus struct {
	Cart Cart

	vram     [2][vramBankSize]byte
	vramBank int

	wram     [8][wramBankSize]byte
	wramBank int

	oam [oamSize]byte

	MMIO *mmio.MMIO
}

// New wires a Bus around the given cartridge, in its power-on state (WRAM
// bank 1 visible at 0xD000, as on real DMG hardware).
func New(cart Cart) *Bus {
	return &Bus{
		Cart:     cart,
		wramBank: 1,
		MMIO:     mmio.New(),
	}
}

// Read satisfies the CPU memory-bus contract.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x7FFF:
		return b.Cart.Read(addr)
	case addr <= 0x9FFF:
		return b.vram[b.vramBank][addr-0x8000]
	case addr <= 0xBFFF:
		return b.Cart.Read(addr)
	case addr <= 0xCFFF:
		return b.wram[0][addr-0xC000]
	case addr <= 0xDFFF:
		return b.wram[b.wramBank][addr-0xD000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return b.oam[addr-0xFE00]
	case addr >= 0xFF00:
		return b.MMIO.Read(uint8(addr))
	default:
		return 0xFF
	}
}

// Write satisfies the CPU memory-bus contract.
func (b *Bus) Write(addr uint16, v uint8) {
	switch {
	case addr <= 0x7FFF:
		b.Cart.Write(addr, v)
	case addr <= 0x9FFF:
		b.vram[b.vramBank][addr-0x8000] = v
	case addr <= 0xBFFF:
		b.Cart.Write(addr, v)
	case addr <= 0xCFFF:
		b.wram[0][addr-0xC000] = v
	case addr <= 0xDFFF:
		b.wram[b.wramBank][addr-0xD000] = v
	case addr >= 0xFE00 && addr <= 0xFE9F:
		b.oam[addr-0xFE00] = v
	case addr >= 0xFF00:
		b.MMIO.Write(uint8(addr), v)
	default:
		// unmapped: discard
	}
}

// MCycle ticks the timer for one M-cycle. Called by the system harness,
// not by the CPU itself.
func (b *Bus) MCycle() {
	b.MMIO.MCycle()
}
