// Package catalog is the static table of x86-64 registers known to the
// debugger: id, name, DWARF id, size, user-area byte offset, class
// (GPR/sub-GPR/FPR/debug) and a default display format. It mirrors the
// register_info table of the original sdb (include/libsdb/registers.hpp)
// and the Linux x86-64 `struct user` layout, generalized from the C macro
// table (DEFINE_GPR_64/32/16/8, DEFINE_FPR, DEFINE_DR) into a small set of
// Go builder functions over the same literal data.
package catalog

// Class groups a register the way spec.md §3 does for the register file
// image: general-purpose, a narrower view of a GPR, floating point/vector,
// or a debug register.
type Class int

const (
	GPR Class = iota
	SubGPR
	FPR
	Debug
)

// Format picks how a register's raw bytes should be interpreted/printed.
type Format int

const (
	FormatUint Format = iota
	FormatInt
	FormatLongDouble // x87 80-bit extended precision
	FormatVector     // fixed-size byte array (MMX/XMM)
)

// ID names every register the debugger knows about.
type ID int

const (
	RAX ID = iota
	RBX
	RCX
	RDX
	RDI
	RSI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	RIP
	EFLAGS
	CS
	FS
	GS
	SS
	DS
	ES
	FS_BASE
	GS_BASE
	ORIG_RAX

	// 32-bit sub-registers
	EAX
	EBX
	ECX
	EDX
	EDI
	ESI
	EBP
	ESP
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D

	// 16-bit sub-registers
	AX
	BX
	CX
	DX
	DI
	SI
	BP
	SP
	R8W
	R9W
	R10W
	R11W
	R12W
	R13W
	R14W
	R15W

	// 8-bit sub-registers
	AL
	BL
	CL
	DL
	DIL
	SIL
	BPL
	SPL
	AH
	BH
	CH
	DH
	R8B
	R9B
	R10B
	R11B
	R12B
	R13B
	R14B
	R15B

	// x87/SSE control fields
	FCW
	FSW
	FTW
	FOP
	FRIP
	FRDP
	MXCSR
	MXCSRMASK

	ST0
	ST1
	ST2
	ST3
	ST4
	ST5
	ST6
	ST7

	MM0
	MM1
	MM2
	MM3
	MM4
	MM5
	MM6
	MM7

	XMM0
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15

	DR0
	DR1
	DR2
	DR3
	DR4
	DR5
	DR6
	DR7

	numRegisters
)

// Info is one row of the register table.
type Info struct {
	ID       ID
	Name     string
	DWARFID  int // -1 when the register has no DWARF number
	Size     int // bytes
	Offset   int // byte offset into the cached `struct user` image
	Class    Class
	Format   Format
	Contains ID // for SubGPR: the owning 64-bit GPR whose bits it aliases
}

// struct user offsets on Linux x86-64 (see sys/user.h): user_regs_struct at
// offset 0 (27 8-byte fields), user_fpregs_struct (the FXSAVE area) at 224,
// and u_debugreg[8] at 848 -- these three constants are the ones that
// actually matter; every other offset below is derived from them.
const (
	gprBase   = 0
	fprBase   = 224
	debugBase = 848
)

// user_regs_struct field order, each 8 bytes wide starting at gprBase.
var gpr64Order = []ID{
	R15, R14, R13, R12, RBP, RBX, R11, R10, R9, R8,
	RAX, RCX, RDX, RSI, RDI, ORIG_RAX, RIP, CS, EFLAGS, RSP,
	SS, FS_BASE, GS_BASE, DS, ES, FS, GS,
}

var gpr64Names = map[ID]string{
	RAX: "rax", RBX: "rbx", RCX: "rcx", RDX: "rdx", RDI: "rdi", RSI: "rsi",
	RBP: "rbp", RSP: "rsp", R8: "r8", R9: "r9", R10: "r10", R11: "r11",
	R12: "r12", R13: "r13", R14: "r14", R15: "r15", RIP: "rip",
	EFLAGS: "eflags", CS: "cs", FS: "fs", GS: "gs", SS: "ss", DS: "ds", ES: "es",
	FS_BASE: "fs_base", GS_BASE: "gs_base", ORIG_RAX: "orig_rax",
}

// DWARF register numbers for the GPRs that have one (x86-64 SysV ABI).
var gpr64Dwarf = map[ID]int{
	RAX: 0, RDX: 1, RCX: 2, RBX: 3, RSI: 4, RDI: 5, RBP: 6, RSP: 7,
	R8: 8, R9: 9, R10: 10, R11: 11, R12: 12, R13: 13, R14: 14, R15: 15, RIP: 16,
	EFLAGS: 49, CS: 51, SS: 52, DS: 53, ES: 50, FS: 54, GS: 55,
}

type subSpec struct {
	id     ID
	owner  ID
	name   string
	size   int
	hiByte bool // true for legacy *h (ah/bh/ch/dh) registers
}

var sub32 = []subSpec{
	{EAX, RAX, "eax", 4, false}, {EBX, RBX, "ebx", 4, false}, {ECX, RCX, "ecx", 4, false},
	{EDX, RDX, "edx", 4, false}, {EDI, RDI, "edi", 4, false}, {ESI, RSI, "esi", 4, false},
	{EBP, RBP, "ebp", 4, false}, {ESP, RSP, "esp", 4, false},
	{R8D, R8, "r8d", 4, false}, {R9D, R9, "r9d", 4, false}, {R10D, R10, "r10d", 4, false},
	{R11D, R11, "r11d", 4, false}, {R12D, R12, "r12d", 4, false}, {R13D, R13, "r13d", 4, false},
	{R14D, R14, "r14d", 4, false}, {R15D, R15, "r15d", 4, false},
}

var sub16 = []subSpec{
	{AX, RAX, "ax", 2, false}, {BX, RBX, "bx", 2, false}, {CX, RCX, "cx", 2, false},
	{DX, RDX, "dx", 2, false}, {DI, RDI, "di", 2, false}, {SI, RSI, "si", 2, false},
	{BP, RBP, "bp", 2, false}, {SP, RSP, "sp", 2, false},
	{R8W, R8, "r8w", 2, false}, {R9W, R9, "r9w", 2, false}, {R10W, R10, "r10w", 2, false},
	{R11W, R11, "r11w", 2, false}, {R12W, R12, "r12w", 2, false}, {R13W, R13, "r13w", 2, false},
	{R14W, R14, "r14w", 2, false}, {R15W, R15, "r15w", 2, false},
}

var sub8 = []subSpec{
	{AL, RAX, "al", 1, false}, {BL, RBX, "bl", 1, false}, {CL, RCX, "cl", 1, false}, {DL, RDX, "dl", 1, false},
	{DIL, RDI, "dil", 1, false}, {SIL, RSI, "sil", 1, false}, {BPL, RBP, "bpl", 1, false}, {SPL, RSP, "spl", 1, false},
	{AH, RAX, "ah", 1, true}, {BH, RBX, "bh", 1, true}, {CH, RCX, "ch", 1, true}, {DH, RDX, "dh", 1, true},
	{R8B, R8, "r8b", 1, false}, {R9B, R9, "r9b", 1, false}, {R10B, R10, "r10b", 1, false}, {R11B, R11, "r11b", 1, false},
	{R12B, R12, "r12b", 1, false}, {R13B, R13, "r13b", 1, false}, {R14B, R14, "r14b", 1, false}, {R15B, R15, "r15b", 1, false},
}

// fprFieldSpec describes one scalar field of user_fpregs_struct.
type fprFieldSpec struct {
	id     ID
	name   string
	offset int
	size   int
	format Format
}

var fprFields = []fprFieldSpec{
	{FCW, "fcw", fprBase + 0, 2, FormatUint},
	{FSW, "fsw", fprBase + 2, 2, FormatUint},
	{FTW, "ftw", fprBase + 4, 2, FormatUint},
	{FOP, "fop", fprBase + 6, 2, FormatUint},
	{FRIP, "frip", fprBase + 8, 8, FormatUint},
	{FRDP, "frdp", fprBase + 16, 8, FormatUint},
	{MXCSR, "mxcsr", fprBase + 24, 4, FormatUint},
	{MXCSRMASK, "mxcsrmask", fprBase + 28, 4, FormatUint},
}

const (
	stSpaceOffset  = fprBase + 32  // st_space[32] (uint32), 16 bytes/register
	xmmSpaceOffset = fprBase + 160 // xmm_space[64] (uint32), 16 bytes/register
)

var stRegs = []ID{ST0, ST1, ST2, ST3, ST4, ST5, ST6, ST7}
var mmRegs = []ID{MM0, MM1, MM2, MM3, MM4, MM5, MM6, MM7}
var xmmRegs = []ID{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7, XMM8, XMM9, XMM10, XMM11, XMM12, XMM13, XMM14, XMM15}

// Table is the full, ordered register catalog, built once at init time.
var Table []Info

// byID indexes Table for O(1) lookup.
var byID = map[ID]*Info{}
var byName = map[string]*Info{}

func add(info Info) {
	Table = append(Table, info)
	idx := len(Table) - 1
	byID[info.ID] = &Table[idx]
	byName[info.Name] = &Table[idx]
}

func init() {
	for i, id := range gpr64Order {
		add(Info{
			ID: id, Name: gpr64Names[id], DWARFID: dwarfOrDefault(id), Size: 8,
			Offset: gprBase + i*8, Class: GPR, Format: FormatUint,
		})
	}
	for _, s := range sub32 {
		add(Info{ID: s.id, Name: s.name, DWARFID: -1, Size: 4, Offset: offsetOf(s.owner), Class: SubGPR, Format: FormatUint, Contains: s.owner})
	}
	for _, s := range sub16 {
		add(Info{ID: s.id, Name: s.name, DWARFID: -1, Size: 2, Offset: offsetOf(s.owner), Class: SubGPR, Format: FormatUint, Contains: s.owner})
	}
	for _, s := range sub8 {
		off := offsetOf(s.owner)
		if s.hiByte {
			off++
		}
		add(Info{ID: s.id, Name: s.name, DWARFID: -1, Size: 1, Offset: off, Class: SubGPR, Format: FormatUint, Contains: s.owner})
	}
	for _, f := range fprFields {
		add(Info{ID: f.id, Name: f.name, DWARFID: -1, Size: f.size, Offset: f.offset, Class: FPR, Format: f.format})
	}
	for i, id := range stRegs {
		add(Info{ID: id, Name: name(id), DWARFID: 33 + i, Size: 16, Offset: stSpaceOffset + i*16, Class: FPR, Format: FormatLongDouble})
	}
	for i, id := range mmRegs {
		add(Info{ID: id, Name: name(id), DWARFID: 41 + i, Size: 8, Offset: stSpaceOffset + i*16, Class: FPR, Format: FormatVector})
	}
	for i, id := range xmmRegs {
		add(Info{ID: id, Name: name(id), DWARFID: 17 + i, Size: 16, Offset: xmmSpaceOffset + i*16, Class: FPR, Format: FormatVector})
	}
	for i := 0; i < 8; i++ {
		id := DR0 + ID(i)
		add(Info{ID: id, Name: drName(i), DWARFID: -1, Size: 8, Offset: debugBase + i*8, Class: Debug, Format: FormatUint})
	}
}

func dwarfOrDefault(id ID) int {
	if d, ok := gpr64Dwarf[id]; ok {
		return d
	}
	return -1
}

func offsetOf(owner ID) int {
	info, ok := byID[owner]
	if !ok {
		panic("catalog: sub-register references unknown owner before it was registered")
	}
	return info.Offset
}

func name(id ID) string {
	switch {
	case id >= ST0 && id <= ST7:
		return "st" + itoa(int(id-ST0))
	case id >= MM0 && id <= MM7:
		return "mm" + itoa(int(id-MM0))
	case id >= XMM0 && id <= XMM15:
		return "xmm" + itoa(int(id-XMM0))
	}
	return "?"
}

func drName(i int) string { return "dr" + itoa(i) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// ByID looks up a register's static info by ID.
func ByID(id ID) (Info, bool) {
	info, ok := byID[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// ByName looks up a register's static info by its canonical lowercase name
// (e.g. "rax", "eax", "st0", "dr7").
func ByName(name string) (Info, bool) {
	info, ok := byName[name]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// UserAreaSize is the size in bytes of the cached `struct user` image the
// register facade must allocate (debug registers are the last field).
const UserAreaSize = debugBase + 8*8

// DebugRegisterOffset returns the byte offset of dr<i> (0-7) in the cached
// `struct user` image.
func DebugRegisterOffset(i int) int { return debugBase + i*8 }
