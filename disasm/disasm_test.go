package disasm

import (
	"strings"
	"testing"

	"github.com/gosdb/sdb/addr"
)

type fakeMemReader struct {
	data []byte
	base addr.VirtAddr
}

func (f *fakeMemReader) ReadMemoryWithoutTraps(address addr.VirtAddr, amount int) ([]byte, error) {
	off := address.Addr() - f.base.Addr()
	end := off + uint64(amount)
	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}
	buf := make([]byte, amount)
	copy(buf, f.data[off:end])
	return buf, nil
}

func TestDisassembleDecodesKnownEncodings(t *testing.T) {
	base := addr.NewVirtAddr(0x401000)
	// nop; ret; int3
	mem := &fakeMemReader{data: []byte{0x90, 0xC3, 0xCC}, base: base}
	d := New(mem)

	insts, err := d.Disassemble(3, base)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(insts) != 3 {
		t.Fatalf("got %d instructions, want 3", len(insts))
	}

	if insts[0].Address.Addr() != 0x401000 || len(insts[0].Bytes) != 1 {
		t.Fatalf("nop decode = %+v", insts[0])
	}
	if !strings.Contains(strings.ToLower(insts[1].Text), "ret") {
		t.Fatalf("expected a ret mnemonic, got %q", insts[1].Text)
	}
	if insts[2].Address.Addr() != 0x401002 {
		t.Fatalf("int3 address = %#x, want 0x401002", insts[2].Address.Addr())
	}
}

func TestDisassembleFallsBackOnBadEncoding(t *testing.T) {
	base := addr.NewVirtAddr(0x401000)
	// 0x0f followed by 0xff bytes (and zero padding past the fixture) may not
	// decode as a complete valid encoding; exercise the "(bad)"
	// single-byte-advance fallback path.
	mem := &fakeMemReader{data: []byte{0x0f, 0xff, 0xff, 0xff}, base: base}
	d := New(mem)

	insts, err := d.Disassemble(1, base)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if len(insts) != 1 {
		t.Fatalf("got %d instructions, want 1", len(insts))
	}
	// Either x86asm manages to decode this as some instruction, or it falls
	// back to the single-byte "(bad)" marker — both are acceptable, but the
	// advance must never exceed the window.
	if len(insts[0].Bytes) == 0 {
		t.Fatalf("expected at least one consumed byte")
	}
}

func TestFormatInstructionIncludesAddressAndText(t *testing.T) {
	in := Instruction{Address: addr.NewVirtAddr(0x401000), Text: "nop", Bytes: []byte{0x90}}
	got := FormatInstruction(in)
	if !strings.Contains(got, "401000") || !strings.Contains(got, "nop") {
		t.Fatalf("FormatInstruction = %q, missing address or text", got)
	}
}
