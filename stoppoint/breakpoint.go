package stoppoint

import (
	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/sdberr"
)

// BreakpointInstr is the x86-64 INT3 opcode software breakpoints patch in.
const BreakpointInstr = 0xCC

// BreakpointTarget is the subset of inferior.Inferior a BreakpointSite needs
// to install/remove itself, kept narrow to avoid stoppoint importing
// inferior (which imports stoppoint for its collections).
type BreakpointTarget interface {
	ReadMemory(address addr.VirtAddr, amount int) ([]byte, error)
	WriteMemory(address addr.VirtAddr, data []byte) error
	SetHardwareBreakpoint(id ID, address addr.VirtAddr) (int, error)
	ClearHardwareStoppoint(index int) error
}

// BreakpointSite is a single location the debugger will stop execution at,
// either by patching an INT3 byte into the text or by claiming a hardware
// debug register, per spec.md §4.2. Grounded on
// original_source/include/libsdb/breakpoint_site.hpp and
// src/breakpoint_site.cpp.
type BreakpointSite struct {
	id          ID
	target      BreakpointTarget
	address     addr.VirtAddr
	isEnabled   bool
	isHardware  bool
	isInternal  bool
	savedByte   byte
	hwIndex     int
}

// NewBreakpointSite constructs a disabled breakpoint at address. internal
// breakpoints (used by the stepping machinery) are never listed in the
// user-facing breakpoint table.
func NewBreakpointSite(id ID, target BreakpointTarget, address addr.VirtAddr, hardware, internal bool) *BreakpointSite {
	return &BreakpointSite{id: id, target: target, address: address, isHardware: hardware, isInternal: internal, hwIndex: -1}
}

func (b *BreakpointSite) ID() ID              { return b.id }
func (b *BreakpointSite) Address() uint64     { return b.address.Addr() }
func (b *BreakpointSite) VirtAddr() addr.VirtAddr { return b.address }
func (b *BreakpointSite) IsEnabled() bool     { return b.isEnabled }
func (b *BreakpointSite) IsHardware() bool    { return b.isHardware }
func (b *BreakpointSite) IsInternal() bool    { return b.isInternal }

// Enable installs the breakpoint: for a software site it reads and saves
// the original byte then writes 0xCC; for a hardware site it claims a free
// debug register.
func (b *BreakpointSite) Enable() error {
	if b.isEnabled {
		return nil
	}
	if b.isHardware {
		idx, err := b.target.SetHardwareBreakpoint(b.id, b.address)
		if err != nil {
			return err
		}
		b.hwIndex = idx
		b.isEnabled = true
		return nil
	}

	orig, err := b.target.ReadMemory(b.address, 1)
	if err != nil {
		return err
	}
	b.savedByte = orig[0]
	if err := b.target.WriteMemory(b.address, []byte{BreakpointInstr}); err != nil {
		return err
	}
	b.isEnabled = true
	return nil
}

// Disable removes the breakpoint, restoring the original byte for software
// sites or releasing the debug register for hardware sites.
func (b *BreakpointSite) Disable() error {
	if !b.isEnabled {
		return nil
	}
	if b.isHardware {
		if err := b.target.ClearHardwareStoppoint(b.hwIndex); err != nil {
			return err
		}
		b.hwIndex = -1
		b.isEnabled = false
		return nil
	}

	if err := b.target.WriteMemory(b.address, []byte{b.savedByte}); err != nil {
		return err
	}
	b.isEnabled = false
	return nil
}

// SavedByte is exported so trap-free memory reads can overlay the original
// instruction byte in place of the patched-in INT3.
func (b *BreakpointSite) SavedByte() byte { return b.savedByte }

// HardwareIndex reports which debug register slot this site currently
// occupies, or -1 if it is software or disabled.
func (b *BreakpointSite) HardwareIndex() int { return b.hwIndex }

// ValidateHardwareAddress is a placeholder invariant check kept separate
// from Enable so callers can fail fast before touching any register state.
func ValidateHardwareAddress(a addr.VirtAddr) error {
	if a.Addr() == 0 {
		return sdberr.New(sdberr.InvalidArgument, "breakpoint address must not be null")
	}
	return nil
}
