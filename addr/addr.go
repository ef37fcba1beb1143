// Package addr defines the three address kinds used throughout the
// debugger so that a file offset, a file-relative virtual address, and a
// live process virtual address can never be silently interchanged: see
// spec.md §3 and §9 ("Address type safety").
package addr

import "fmt"

// FileOffset is an absolute byte offset into an ELF file image. It carries
// a reference to that ELF so offsets from different files are never mixed.
type FileOffset struct {
	elf any // *elfbin.File, compared by identity only
	off uint64
}

// NewFileOffset is called by package elfbin; it is exported so that package
// can construct values without addr depending on it.
func NewFileOffset(elf any, off uint64) FileOffset { return FileOffset{elf: elf, off: off} }

func (o FileOffset) Off() uint64 { return o.off }
func (o FileOffset) ELF() any    { return o.elf }

func (o FileOffset) String() string { return fmt.Sprintf("file-offset:%#x", o.off) }

// FileAddr is a virtual address as declared in an ELF file, prior to any
// load-time relocation. Comparable and orderable only within the same ELF.
type FileAddr struct {
	elf  any // *elfbin.File
	addr uint64
}

func NewFileAddr(elf any, a uint64) FileAddr { return FileAddr{elf: elf, addr: a} }

func (a FileAddr) Addr() uint64 { return a.addr }
func (a FileAddr) ELF() any     { return a.elf }

func (a FileAddr) IsNull() bool { return a.elf == nil && a.addr == 0 }

func (a FileAddr) Add(off int64) FileAddr {
	return FileAddr{elf: a.elf, addr: uint64(int64(a.addr) + off)}
}

func (a FileAddr) Sub(off int64) FileAddr { return a.Add(-off) }

// Equal requires both the address and the owning ELF to match.
func (a FileAddr) Equal(b FileAddr) bool { return a.addr == b.addr && a.elf == b.elf }

// Less panics-free ordering; callers within the core always compare
// addresses sharing one ELF, so the C++ original's assert(elf_==other.elf_)
// becomes a best-effort false when ELFs differ (no panic, since a wrong
// answer here is far less harmful in Go than aborting the process).
func (a FileAddr) Less(b FileAddr) bool { return a.elf == b.elf && a.addr < b.addr }

func (a FileAddr) LessEqual(b FileAddr) bool { return a.Less(b) || a.Equal(b) }

func (a FileAddr) String() string { return fmt.Sprintf("file-addr:%#x", a.addr) }

// VirtAddr is a live address in the inferior's address space. Unlike
// FileAddr it is comparable unconditionally — every VirtAddr lives in the
// same running process.
type VirtAddr struct {
	addr uint64
}

func NewVirtAddr(a uint64) VirtAddr { return VirtAddr{addr: a} }

func (a VirtAddr) Addr() uint64 { return a.addr }

func (a VirtAddr) Add(off int64) VirtAddr { return VirtAddr{addr: uint64(int64(a.addr) + off)} }
func (a VirtAddr) Sub(off int64) VirtAddr { return a.Add(-off) }

func (a VirtAddr) Equal(b VirtAddr) bool      { return a.addr == b.addr }
func (a VirtAddr) Less(b VirtAddr) bool       { return a.addr < b.addr }
func (a VirtAddr) LessEqual(b VirtAddr) bool  { return a.addr <= b.addr }
func (a VirtAddr) Greater(b VirtAddr) bool    { return a.addr > b.addr }
func (a VirtAddr) GreaterEqual(b VirtAddr) bool { return a.addr >= b.addr }

func (a VirtAddr) String() string { return fmt.Sprintf("virt-addr:%#x", a.addr) }
