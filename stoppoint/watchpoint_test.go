package stoppoint

import (
	"testing"

	"github.com/gosdb/sdb/addr"
)

type fakeWatchTarget struct {
	mem         map[uint64]byte
	nextHWIndex int
	cleared     []int
}

func (f *fakeWatchTarget) ReadMemory(address addr.VirtAddr, amount int) ([]byte, error) {
	out := make([]byte, amount)
	for i := 0; i < amount; i++ {
		out[i] = f.mem[address.Addr()+uint64(i)]
	}
	return out, nil
}

func (f *fakeWatchTarget) SetWatchpoint(id ID, address addr.VirtAddr, mode Mode, size int) (int, error) {
	idx := f.nextHWIndex
	f.nextHWIndex++
	return idx, nil
}

func (f *fakeWatchTarget) ClearHardwareStoppoint(index int) error {
	f.cleared = append(f.cleared, index)
	return nil
}

func TestWatchpointRejectsMisalignedAddress(t *testing.T) {
	target := &fakeWatchTarget{mem: map[uint64]byte{}}
	_, err := NewWatchpoint(1, target, addr.NewVirtAddr(0x1001), ModeWrite, 4)
	if err == nil {
		t.Fatalf("expected alignment error for a size-4 watchpoint at an address not a multiple of 4")
	}
}

func TestWatchpointTracksDataChanges(t *testing.T) {
	target := &fakeWatchTarget{mem: map[uint64]byte{0x2000: 0x05}}
	wp, err := NewWatchpoint(1, target, addr.NewVirtAddr(0x2000), ModeWrite, 1)
	if err != nil {
		t.Fatalf("NewWatchpoint: %v", err)
	}
	if wp.CurrentData() != 5 {
		t.Fatalf("CurrentData() = %d, want 5", wp.CurrentData())
	}

	target.mem[0x2000] = 0x09
	if err := wp.UpdateData(); err != nil {
		t.Fatalf("UpdateData: %v", err)
	}
	if wp.PreviousData() != 5 || wp.CurrentData() != 9 {
		t.Fatalf("got previous=%d current=%d, want previous=5 current=9", wp.PreviousData(), wp.CurrentData())
	}
}

func TestWatchpointEnableDisableRoutesToTarget(t *testing.T) {
	target := &fakeWatchTarget{mem: map[uint64]byte{}}
	wp, err := NewWatchpoint(1, target, addr.NewVirtAddr(0x3000), ModeReadWrite, 8)
	if err != nil {
		t.Fatalf("NewWatchpoint: %v", err)
	}
	if err := wp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !wp.IsEnabled() {
		t.Fatalf("expected watchpoint to report enabled")
	}
	if err := wp.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if wp.IsEnabled() {
		t.Fatalf("expected watchpoint to report disabled")
	}
	if len(target.cleared) != 1 {
		t.Fatalf("expected ClearHardwareStoppoint to be called once, got %d", len(target.cleared))
	}
}
