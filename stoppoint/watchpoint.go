package stoppoint

import (
	"encoding/binary"

	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/sdberr"
)

// Mode mirrors the original's stoppoint_mode: what kind of memory access a
// hardware watchpoint traps on.
type Mode int

const (
	ModeWrite Mode = iota
	ModeReadWrite
	ModeExecute
)

// WatchpointTarget is the subset of inferior.Inferior a Watchpoint needs.
type WatchpointTarget interface {
	ReadMemory(address addr.VirtAddr, amount int) ([]byte, error)
	SetWatchpoint(id ID, address addr.VirtAddr, mode Mode, size int) (int, error)
	ClearHardwareStoppoint(index int) error
}

// Watchpoint is a hardware watchpoint: a debug-register-backed trap that
// fires when `size` bytes at `address` are accessed per `mode`. Grounded on
// original_source/src/watchpoint.cpp.
type Watchpoint struct {
	id           ID
	target       WatchpointTarget
	address      addr.VirtAddr
	mode         Mode
	size         int
	isEnabled    bool
	hwIndex      int
	previousData uint64
	currentData  uint64
}

// NewWatchpoint constructs a disabled watchpoint, enforcing the original's
// alignment invariant: the address must be a multiple of size.
func NewWatchpoint(id ID, target WatchpointTarget, address addr.VirtAddr, mode Mode, size int) (*Watchpoint, error) {
	if address.Addr()&uint64(size-1) != 0 {
		return nil, sdberr.New(sdberr.InvalidArgument, "watchpoint must be aligned to size")
	}
	w := &Watchpoint{id: id, target: target, address: address, mode: mode, size: size, hwIndex: -1}
	if err := w.updateData(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watchpoint) ID() ID          { return w.id }
func (w *Watchpoint) Address() uint64 { return w.address.Addr() }
func (w *Watchpoint) VirtAddr() addr.VirtAddr { return w.address }
func (w *Watchpoint) IsEnabled() bool { return w.isEnabled }
func (w *Watchpoint) Mode() Mode      { return w.mode }
func (w *Watchpoint) Size() int       { return w.size }

// Enable claims a hardware debug register for this watchpoint.
func (w *Watchpoint) Enable() error {
	if w.isEnabled {
		return nil
	}
	idx, err := w.target.SetWatchpoint(w.id, w.address, w.mode, w.size)
	if err != nil {
		return err
	}
	w.hwIndex = idx
	w.isEnabled = true
	return nil
}

// Disable releases the debug register.
func (w *Watchpoint) Disable() error {
	if !w.isEnabled {
		return nil
	}
	if err := w.target.ClearHardwareStoppoint(w.hwIndex); err != nil {
		return err
	}
	w.hwIndex = -1
	w.isEnabled = false
	return nil
}

func (w *Watchpoint) HardwareIndex() int { return w.hwIndex }

// UpdateData re-reads the watched bytes and shifts the previous snapshot,
// called whenever this watchpoint's debug register fires.
func (w *Watchpoint) UpdateData() error { return w.updateData() }

func (w *Watchpoint) updateData() error {
	data, err := w.target.ReadMemory(w.address, w.size)
	if err != nil {
		return err
	}
	var buf [8]byte
	copy(buf[:], data)
	newData := binary.LittleEndian.Uint64(buf[:])
	w.previousData = w.currentData
	w.currentData = newData
	return nil
}

// PreviousData and CurrentData let the shell print a before/after diff when
// a watchpoint trips.
func (w *Watchpoint) PreviousData() uint64 { return w.previousData }
func (w *Watchpoint) CurrentData() uint64  { return w.currentData }
