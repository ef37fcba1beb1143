// Package registers implements the cached register-file image described in
// spec.md §3/§4.4: a byte-for-byt mirror of the kernel's `struct user`,
// refreshed on every transition into the stopped state, with typed
// read/write that dispatches sub-register writes back through their
// containing 64-bit GPR and forwards every write immediately to the kernel.
package registers

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gosdb/sdb/registers/catalog"
	"github.com/gosdb/sdb/sdberr"
)

// Transport is the narrow set of kernel operations the register facade
// needs. inferior.Inferior implements it; registers never imports inferior
// (that would cycle), it only consumes this interface — the same
// dependency-inversion the original C++ expresses with a friend class.
type Transport interface {
	SetGPRs(data []byte) error
	SetFPRs(data []byte) error
	PokeUser(offset int, word uint64) error
}

// Value is the typed union spec.md §3 calls for: every width of signed and
// unsigned integer the catalog declares, 32/64/80-bit floats, and the two
// fixed byte-array shapes used for MMX (8 bytes) and XMM (16 bytes).
type Value struct {
	raw    [16]byte
	size   int
	format catalog.Format
}

func valueFromBytes(b []byte, format catalog.Format) Value {
	v := Value{size: len(b), format: format}
	copy(v.raw[:], b)
	return v
}

// Bytes returns the value's raw little-endian byte representation, sized to
// the register it was read from/will be written to.
func (v Value) Bytes() []byte { return append([]byte(nil), v.raw[:v.size]...) }

// Uint64 interprets the value as an unsigned integer (any GPR/sub-GPR/debug
// register width).
func (v Value) Uint64() uint64 {
	switch v.size {
	case 1:
		return uint64(v.raw[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(v.raw[:2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(v.raw[:4]))
	case 8:
		return binary.LittleEndian.Uint64(v.raw[:8])
	default:
		return binary.LittleEndian.Uint64(v.raw[:8])
	}
}

// Int64 sign-extends the value from its native width.
func (v Value) Int64() int64 {
	switch v.size {
	case 1:
		return int64(int8(v.raw[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(v.raw[:2])))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(v.raw[:4])))
	default:
		return int64(binary.LittleEndian.Uint64(v.raw[:8]))
	}
}

// Float64 interprets the value as an IEEE-754 double (fsw/mxcsr callers
// don't use this; st* registers stored as FormatLongDouble do, via a
// truncating 80-bit-to-64-bit read).
func (v Value) Float64() float64 {
	if v.format == catalog.FormatLongDouble {
		return longDoubleToFloat64(v.raw[:10])
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(v.raw[:8]))
}

// ValueFromUint64 builds a Value of the given byte width from an unsigned
// integer, truncating as needed.
func ValueFromUint64(n uint64, size int) Value {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return valueFromBytes(b[:size], catalog.FormatUint)
}

// ValueFromInt64 is ValueFromUint64 for signed inputs.
func ValueFromInt64(n int64, size int) Value { return ValueFromUint64(uint64(n), size) }

// ValueFromBytes builds a fixed-size vector Value (MMX: 8 bytes, XMM: 16
// bytes) from raw bytes.
func ValueFromBytes(b []byte) Value { return valueFromBytes(b, catalog.FormatVector) }

// ValueFromFloat64 builds an 8-byte double Value.
func ValueFromFloat64(f float64) Value {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	return valueFromBytes(b[:], catalog.FormatUint)
}

// ValueFromLongDouble builds a 10-byte (80-bit) x87 extended-precision
// Value from a float64, used by `st0 = 42.24`-style writes.
func ValueFromLongDouble(f float64) Value {
	b := float64ToLongDouble(f)
	return valueFromBytes(b[:], catalog.FormatLongDouble)
}

// File is the cached register-file image for one inferior. It is not
// constructed directly by callers; inferior.Inferior owns one.
type File struct {
	data      [catalog.UserAreaSize]byte
	transport Transport
}

// New builds an empty register file bound to the given transport. Callers
// must populate the cache through Raw before trusting Read — per spec.md
// §5, the cache is stale between stops.
func New(t Transport) *File {
	return &File{transport: t}
}

// Raw exposes the cache for the transport to populate directly (GETREGS/
// GETFPREGS/PEEKUSER results land here).
func (f *File) Raw() []byte { return f.data[:] }

// Read returns the typed value currently cached for the given register.
func (f *File) Read(id catalog.ID) (Value, error) {
	info, ok := catalog.ByID(id)
	if !ok {
		return Value{}, sdberr.New(sdberr.NotFound, "no such register")
	}
	if info.Offset+info.Size > len(f.data) {
		return Value{}, sdberr.Newf(sdberr.KernelCall, "register %s offset out of range", info.Name)
	}
	return valueFromBytes(f.data[info.Offset:info.Offset+info.Size], info.Format), nil
}

// ReadByName is Read keyed by the catalog's canonical register name.
func (f *File) ReadByName(name string) (Value, error) {
	info, ok := catalog.ByName(name)
	if !ok {
		return Value{}, sdberr.Newf(sdberr.NotFound, "no such register %q", name)
	}
	return f.Read(info.ID)
}

// Write stores val into the cache and immediately forwards the change to
// the kernel. Sub-register writes (e.g. al) read-modify-write the full
// containing 8-byte GPR so the surrounding bits are preserved, then push
// the whole GPR via SETREGS — this is spec.md §4.4's sub-register rule.
func (f *File) Write(id catalog.ID, val Value) error {
	info, ok := catalog.ByID(id)
	if !ok {
		return sdberr.New(sdberr.NotFound, "no such register")
	}
	if len(val.raw[:]) < info.Size {
		return sdberr.Newf(sdberr.InvalidArgument, "value too small for register %s", info.Name)
	}
	copy(f.data[info.Offset:info.Offset+info.Size], val.raw[:info.Size])

	switch info.Class {
	case catalog.GPR, catalog.SubGPR:
		return f.transport.SetGPRs(f.data[0:216])
	case catalog.FPR:
		return f.transport.SetFPRs(f.data[224:736])
	case catalog.Debug:
		return f.transport.PokeUser(info.Offset, binary.LittleEndian.Uint64(f.data[info.Offset:info.Offset+8]))
	default:
		return sdberr.Newf(sdberr.InvalidArgument, "unknown register class for %s", info.Name)
	}
}

// WriteByName is Write keyed by the catalog's canonical register name.
func (f *File) WriteByName(name string, val Value) error {
	info, ok := catalog.ByName(name)
	if !ok {
		return sdberr.Newf(sdberr.NotFound, "no such register %q", name)
	}
	return f.Write(info.ID, val)
}

func (v Value) String() string {
	switch v.format {
	case catalog.FormatVector:
		return fmt.Sprintf("%#x", v.raw[:v.size])
	case catalog.FormatLongDouble:
		return fmt.Sprintf("%g", v.Float64())
	default:
		return fmt.Sprintf("%#x", v.Uint64())
	}
}

// longDoubleToFloat64 and float64ToLongDouble convert between the x87
// 80-bit extended-precision format (10 bytes: 64-bit mantissa, 15-bit
// exponent + sign, 1 explicit integer bit) and float64. This is a
// deliberately narrow implementation: it covers the normal, finite range
// the debugger's register read/write surface needs and does not attempt
// full IEEE-754-extended edge cases (denormals, infinities, NaNs).
func longDoubleToFloat64(b []byte) float64 {
	if len(b) < 10 {
		return 0
	}
	mantissa := binary.LittleEndian.Uint64(b[0:8])
	signExp := binary.LittleEndian.Uint16(b[8:10])
	sign := signExp >> 15
	exp := int(signExp & 0x7fff)
	if exp == 0 && mantissa == 0 {
		return 0
	}
	// unbiased exponent relative to the 80-bit format's bias of 16383
	e := exp - 16383
	f := float64(mantissa) / (1 << 63) * math.Pow(2, float64(e))
	if sign != 0 {
		f = -f
	}
	return f
}

func float64ToLongDouble(f float64) [10]byte {
	var out [10]byte
	if f == 0 {
		return out
	}
	sign := uint16(0)
	if f < 0 {
		sign = 1
		f = -f
	}
	e := 0
	for f >= 2 {
		f /= 2
		e++
	}
	for f < 1 {
		f *= 2
		e--
	}
	mantissa := uint64(f * (1 << 63))
	binary.LittleEndian.PutUint64(out[0:8], mantissa)
	signExp := uint16(e+16383) | (sign << 15)
	binary.LittleEndian.PutUint16(out[8:10], signExp)
	return out
}
