package addr

import "testing"

func TestFileAddrArithmetic(t *testing.T) {
	elf := new(int) // stand-in for a *elfbin.File identity
	a := NewFileAddr(elf, 0x1000)
	b := a.Add(0x10)

	if b.Addr() != 0x1010 {
		t.Fatalf("Add: got %#x, want %#x", b.Addr(), 0x1010)
	}
	if !b.Sub(0x10).Equal(a) {
		t.Fatalf("Sub did not invert Add")
	}
	if !a.Less(b) {
		t.Fatalf("expected %s < %s", a, b)
	}
}

func TestFileAddrDifferentELFNotComparable(t *testing.T) {
	elf1, elf2 := new(int), new(int)
	a := NewFileAddr(elf1, 0x1000)
	b := NewFileAddr(elf2, 0x1000)

	if a.Equal(b) {
		t.Fatalf("addresses from different ELF objects must not compare equal")
	}
	if a.Less(b) || b.Less(a) {
		t.Fatalf("addresses from different ELF objects must not be orderable")
	}
}

func TestFileAddrIsNull(t *testing.T) {
	var zero FileAddr
	if !zero.IsNull() {
		t.Fatalf("zero-value FileAddr should be null")
	}
	nonNull := NewFileAddr(new(int), 0)
	if nonNull.IsNull() {
		t.Fatalf("FileAddr with a non-nil ELF should not be null even at address 0")
	}
}

func TestVirtAddrOrdering(t *testing.T) {
	a := NewVirtAddr(0x400000)
	b := NewVirtAddr(0x400010)

	if !a.Less(b) || a.Greater(b) {
		t.Fatalf("expected %s < %s", a, b)
	}
	if !b.GreaterEqual(a) {
		t.Fatalf("expected %s >= %s", b, a)
	}
	if !a.Equal(NewVirtAddr(0x400000)) {
		t.Fatalf("expected equal VirtAddr values to compare equal")
	}
}
