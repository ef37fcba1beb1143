package inferior

import (
	"math/bits"

	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/registers"
	"github.com/gosdb/sdb/registers/catalog"
	"github.com/gosdb/sdb/sdberr"
	"github.com/gosdb/sdb/stoppoint"
)

func encodeHardwareMode(mode stoppoint.Mode) uint64 {
	switch mode {
	case stoppoint.ModeWrite:
		return 0b01
	case stoppoint.ModeReadWrite:
		return 0b11
	case stoppoint.ModeExecute:
		return 0b00
	default:
		return 0b00
	}
}

func encodeHardwareSize(size int) uint64 {
	switch size {
	case 1:
		return 0b00
	case 2:
		return 0b01
	case 4:
		return 0b11
	case 8:
		return 0b10
	default:
		return 0b00
	}
}

func drID(slot int) catalog.ID { return catalog.DR0 + catalog.ID(slot) }

func (inf *Inferior) findFreeStoppointRegister(control uint64) (int, error) {
	for i := 0; i < 4; i++ {
		if control&(0b11<<(uint(i)*2)) == 0 {
			return i, nil
		}
	}
	return 0, sdberr.New(sdberr.ResourceExhaustion, "no remaining hardware debug registers")
}

// setHardwareStoppoint claims a free debug register for address, with the
// given mode/size encoding, per original_source's set_hardware_stoppoint.
func (inf *Inferior) setHardwareStoppoint(address addr.VirtAddr, mode stoppoint.Mode, size int) (int, error) {
	dr7, err := inf.registers.Read(catalog.DR7)
	if err != nil {
		return 0, err
	}
	control := dr7.Uint64()

	slot, err := inf.findFreeStoppointRegister(control)
	if err != nil {
		return 0, err
	}

	if err := inf.registers.Write(drID(slot), registers.ValueFromUint64(address.Addr(), 8)); err != nil {
		return 0, err
	}

	enableBit := uint64(1) << (uint(slot) * 2)
	modeBits := encodeHardwareMode(mode) << (uint(slot)*4 + 16)
	sizeBits := encodeHardwareSize(size) << (uint(slot)*4 + 18)
	clearMask := uint64(0b11)<<(uint(slot)*2) | uint64(0b1111)<<(uint(slot)*4+16)

	masked := control & ^clearMask
	masked |= enableBit | modeBits | sizeBits

	if err := inf.registers.Write(catalog.DR7, registers.ValueFromUint64(masked, 8)); err != nil {
		return 0, err
	}
	return slot, nil
}

// SetHardwareBreakpoint implements stoppoint.BreakpointTarget.
func (inf *Inferior) SetHardwareBreakpoint(id stoppoint.ID, address addr.VirtAddr) (int, error) {
	return inf.setHardwareStoppoint(address, stoppoint.ModeExecute, 1)
}

// SetWatchpoint implements stoppoint.WatchpointTarget.
func (inf *Inferior) SetWatchpoint(id stoppoint.ID, address addr.VirtAddr, mode stoppoint.Mode, size int) (int, error) {
	return inf.setHardwareStoppoint(address, mode, size)
}

// ClearHardwareStoppoint releases a debug register slot, per
// original_source's clear_hardware_stoppoint.
func (inf *Inferior) ClearHardwareStoppoint(index int) error {
	if err := inf.registers.Write(drID(index), registers.ValueFromUint64(0, 8)); err != nil {
		return err
	}
	dr7, err := inf.registers.Read(catalog.DR7)
	if err != nil {
		return err
	}
	clearMask := uint64(0b11)<<(uint(index)*2) | uint64(0b1111)<<(uint(index)*4+16)
	return inf.registers.Write(catalog.DR7, registers.ValueFromUint64(dr7.Uint64() & ^clearMask, 8))
}

// GetCurrentHardwareStoppoint identifies which stoppoint's debug register
// fired by scanning DR6 for the lowest set bit, per
// original_source's get_current_hardware_stoppoint.
func (inf *Inferior) GetCurrentHardwareStoppoint() (HardwareStoppointRef, error) {
	dr6, err := inf.registers.Read(catalog.DR6)
	if err != nil {
		return HardwareStoppointRef{}, err
	}
	status := dr6.Uint64()
	if status == 0 {
		return HardwareStoppointRef{}, sdberr.New(sdberr.NotFound, "no hardware stoppoint currently set")
	}
	slot := bits.TrailingZeros64(status)

	drVal, err := inf.registers.Read(drID(slot))
	if err != nil {
		return HardwareStoppointRef{}, err
	}
	address := drVal.Uint64()

	if bp, err := inf.breakpoints.GetByAddress(address); err == nil {
		return HardwareStoppointRef{Kind: HardwareBreakpoint, ID: bp.ID()}, nil
	}
	if wp, err := inf.watchpoints.GetByAddress(address); err == nil {
		return HardwareStoppointRef{Kind: HardwareWatchpoint, ID: wp.ID()}, nil
	}
	return HardwareStoppointRef{}, sdberr.New(sdberr.NotFound, "hardware stoppoint fired at unknown address")
}

// CreateBreakpointSite installs a new breakpoint at address, rejecting a
// duplicate address the way original_source's create_breakpoint_site does.
func (inf *Inferior) CreateBreakpointSite(address addr.VirtAddr, hardware, internal bool) (*stoppoint.BreakpointSite, error) {
	if inf.breakpoints.ContainsAddress(address.Addr()) {
		return nil, sdberr.Newf(sdberr.InvalidArgument, "breakpoint site already created at address %s", address)
	}
	bp := stoppoint.NewBreakpointSite(inf.nextStoppointID(), inf, address, hardware, internal)
	return inf.breakpoints.Push(bp), nil
}

// CreateWatchpoint installs a new watchpoint at address.
func (inf *Inferior) CreateWatchpoint(address addr.VirtAddr, mode stoppoint.Mode, size int) (*stoppoint.Watchpoint, error) {
	if inf.watchpoints.ContainsAddress(address.Addr()) {
		return nil, sdberr.Newf(sdberr.InvalidArgument, "watchpoint already created at address %s", address)
	}
	wp, err := stoppoint.NewWatchpoint(inf.nextStoppointID(), inf, address, mode, size)
	if err != nil {
		return nil, err
	}
	return inf.watchpoints.Push(wp), nil
}

// BreakpointSites and Watchpoints expose the collections for listing/lookup
// by the shell layer.
func (inf *Inferior) BreakpointSites() *stoppoint.Collection[*stoppoint.BreakpointSite] { return &inf.breakpoints }
func (inf *Inferior) Watchpoints() *stoppoint.Collection[*stoppoint.Watchpoint]         { return &inf.watchpoints }
