package stoppoint

import (
	"testing"

	"github.com/gosdb/sdb/addr"
)

type fakeBreakTarget struct {
	mem       map[uint64]byte
	hwIndex   int
	clearedAt []int
}

func (f *fakeBreakTarget) ReadMemory(address addr.VirtAddr, amount int) ([]byte, error) {
	out := make([]byte, amount)
	for i := 0; i < amount; i++ {
		out[i] = f.mem[address.Addr()+uint64(i)]
	}
	return out, nil
}

func (f *fakeBreakTarget) WriteMemory(address addr.VirtAddr, data []byte) error {
	for i, b := range data {
		f.mem[address.Addr()+uint64(i)] = b
	}
	return nil
}

func (f *fakeBreakTarget) SetHardwareBreakpoint(id ID, address addr.VirtAddr) (int, error) {
	idx := f.hwIndex
	f.hwIndex++
	return idx, nil
}

func (f *fakeBreakTarget) ClearHardwareStoppoint(index int) error {
	f.clearedAt = append(f.clearedAt, index)
	return nil
}

func TestSoftwareBreakpointPatchesAndRestores(t *testing.T) {
	target := &fakeBreakTarget{mem: map[uint64]byte{0x1000: 0x55}}
	bp := NewBreakpointSite(1, target, addr.NewVirtAddr(0x1000), false, false)

	if err := bp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if target.mem[0x1000] != BreakpointInstr {
		t.Fatalf("expected INT3 patched in, got %#x", target.mem[0x1000])
	}
	if bp.SavedByte() != 0x55 {
		t.Fatalf("SavedByte() = %#x, want 0x55", bp.SavedByte())
	}

	if err := bp.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if target.mem[0x1000] != 0x55 {
		t.Fatalf("expected original byte restored, got %#x", target.mem[0x1000])
	}
}

func TestHardwareBreakpointRoutesToDebugRegisters(t *testing.T) {
	target := &fakeBreakTarget{mem: map[uint64]byte{}}
	bp := NewBreakpointSite(1, target, addr.NewVirtAddr(0x2000), true, false)

	if err := bp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if bp.HardwareIndex() != 0 {
		t.Fatalf("HardwareIndex() = %d, want 0", bp.HardwareIndex())
	}
	if err := bp.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if len(target.clearedAt) != 1 || target.clearedAt[0] != 0 {
		t.Fatalf("expected ClearHardwareStoppoint(0), got %v", target.clearedAt)
	}
}
