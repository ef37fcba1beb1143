package registers

import (
	"testing"

	"github.com/gosdb/sdb/registers/catalog"
)

type fakeTransport struct {
	gprWrites [][]byte
	fprWrites [][]byte
	pokes     map[int]uint64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{pokes: map[int]uint64{}}
}

func (f *fakeTransport) SetGPRs(data []byte) error {
	f.gprWrites = append(f.gprWrites, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) SetFPRs(data []byte) error {
	f.fprWrites = append(f.fprWrites, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) PokeUser(offset int, word uint64) error {
	f.pokes[offset] = word
	return nil
}

func TestWriteGPRForwardsToTransport(t *testing.T) {
	tr := newFakeTransport()
	file := New(tr)

	if err := file.WriteByName("rax", ValueFromUint64(0xdeadbeef, 8)); err != nil {
		t.Fatalf("WriteByName: %v", err)
	}
	if len(tr.gprWrites) != 1 {
		t.Fatalf("expected exactly one GPR write, got %d", len(tr.gprWrites))
	}

	got, err := file.ReadByName("rax")
	if err != nil {
		t.Fatalf("ReadByName: %v", err)
	}
	if got.Uint64() != 0xdeadbeef {
		t.Fatalf("read back %#x, want %#x", got.Uint64(), uint64(0xdeadbeef))
	}
}

func TestWriteSubRegisterPreservesSurroundingBits(t *testing.T) {
	tr := newFakeTransport()
	file := New(tr)

	if err := file.Write(catalog.RAX, ValueFromUint64(0x1122334455667788, 8)); err != nil {
		t.Fatalf("Write(RAX): %v", err)
	}
	if err := file.Write(catalog.AL, ValueFromUint64(0xff, 1)); err != nil {
		t.Fatalf("Write(AL): %v", err)
	}

	rax, err := file.Read(catalog.RAX)
	if err != nil {
		t.Fatalf("Read(RAX): %v", err)
	}
	want := uint64(0x11223344556677ff)
	if rax.Uint64() != want {
		t.Fatalf("rax after al write = %#x, want %#x", rax.Uint64(), want)
	}
}

func TestWriteDebugRegisterPokesUser(t *testing.T) {
	tr := newFakeTransport()
	file := New(tr)

	if err := file.Write(catalog.DR0, ValueFromUint64(0x400000, 8)); err != nil {
		t.Fatalf("Write(DR0): %v", err)
	}
	info, _ := catalog.ByID(catalog.DR0)
	if tr.pokes[info.Offset] != 0x400000 {
		t.Fatalf("PokeUser offset %d = %#x, want %#x", info.Offset, tr.pokes[info.Offset], uint64(0x400000))
	}
}

func TestUnknownRegisterErrors(t *testing.T) {
	file := New(newFakeTransport())
	if _, err := file.ReadByName("not_a_register"); err == nil {
		t.Fatalf("expected error reading an unknown register")
	}
}

func TestValueFromBytesRoundTrip(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	v := ValueFromBytes(b)
	if got := v.Bytes(); string(got) != string(b) {
		t.Fatalf("Bytes() = %v, want %v", got, b)
	}
}
