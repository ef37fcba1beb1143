// Package disasm adapts golang.org/x/arch/x86/x86asm into the small
// instruction-listing API original_source's disassembler.hpp exposes,
// reading the inferior's text through its trap-free memory view so
// disassembly never shows an injected breakpoint byte.
package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/gosdb/sdb/addr"
)

// MemoryReader is the narrow view into the inferior the disassembler
// needs; inferior.Inferior.ReadMemoryWithoutTraps satisfies it.
type MemoryReader interface {
	ReadMemoryWithoutTraps(address addr.VirtAddr, amount int) ([]byte, error)
}

// Instruction is one decoded instruction: its address, textual rendering,
// and raw encoded bytes.
type Instruction struct {
	Address addr.VirtAddr
	Text    string
	Bytes   []byte
}

// Disassembler wraps a MemoryReader (almost always an *inferior.Inferior).
type Disassembler struct {
	mem MemoryReader
}

func New(mem MemoryReader) *Disassembler { return &Disassembler{mem: mem} }

// maxInstrLen is x86-64's longest possible instruction encoding.
const maxInstrLen = 15

// Disassemble decodes n instructions starting at address. It has no
// current-PC default: callers that want the PC pass it in themselves, as
// the shell's "disassemble" command does.
func (d *Disassembler) Disassemble(n int, address addr.VirtAddr) ([]Instruction, error) {
	out := make([]Instruction, 0, n)
	cur := address
	for i := 0; i < n; i++ {
		// Read a worst-case window; x86asm.Decode reports exactly how many
		// bytes it consumed so the next address advances correctly even
		// when this instruction is shorter than the window.
		buf, err := d.mem.ReadMemoryWithoutTraps(cur, maxInstrLen)
		if err != nil {
			return out, err
		}

		inst, err := x86asm.Decode(buf, 64)
		if err != nil {
			out = append(out, Instruction{Address: cur, Text: "(bad)", Bytes: buf[:1]})
			cur = cur.Add(1)
			continue
		}

		text := x86asm.GNUSyntax(inst, cur.Addr(), nil)
		out = append(out, Instruction{Address: cur, Text: text, Bytes: buf[:inst.Len]})
		cur = cur.Add(int64(inst.Len))
	}
	return out, nil
}

// FormatInstruction renders an instruction the way the shell's
// "disassemble" command prints a line: address, raw bytes, mnemonic text.
func FormatInstruction(in Instruction) string {
	return fmt.Sprintf("%s: %x\t%s", in.Address, in.Bytes, in.Text)
}
