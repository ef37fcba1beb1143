package inferior

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/sdberr"
)

const pageSize = 0x1000

// ReadMemory reads amount bytes starting at address out of the inferior's
// address space via process_vm_readv, chunked at page boundaries the same
// way original_source's process::read_memory builds its remote iovecs.
func (inf *Inferior) ReadMemory(address addr.VirtAddr, amount int) ([]byte, error) {
	out := make([]byte, amount)
	var localIov []unix.Iovec
	var remoteIov []unix.RemoteIovec
	cur := address.Addr()
	remaining := amount
	off := 0
	for remaining > 0 {
		upToNextPage := pageSize - (cur & (pageSize - 1))
		chunk := remaining
		if uint64(chunk) > upToNextPage {
			chunk = int(upToNextPage)
		}
		localIov = append(localIov, unix.Iovec{Base: &out[off], Len: uint64(chunk)})
		remoteIov = append(remoteIov, unix.RemoteIovec{Base: uintptr(cur), Len: chunk})
		cur += uint64(chunk)
		off += chunk
		remaining -= chunk
	}

	n, err := unix.ProcessVMReadv(inf.pid, localIov, remoteIov, 0)
	if err != nil {
		return nil, sdberr.WithErrno("could not read inferior memory", err)
	}
	return out[:n], nil
}

// ReadMemoryWithoutTraps is ReadMemory but with every enabled software
// breakpoint byte in range overlaid with its saved original value, so
// callers (e.g. the disassembler) never see an injected 0xCC.
func (inf *Inferior) ReadMemoryWithoutTraps(address addr.VirtAddr, amount int) ([]byte, error) {
	data, err := inf.ReadMemory(address, amount)
	if err != nil {
		return nil, err
	}
	low := address.Addr()
	high := low + uint64(amount)
	for _, bp := range inf.breakpoints.InRegion(low, high) {
		if !bp.IsEnabled() || bp.IsHardware() {
			continue
		}
		data[bp.Address()-low] = bp.SavedByte()
	}
	return data, nil
}

// WriteMemory writes data starting at address via PTRACE_POKEDATA, eight
// bytes at a time; a trailing partial word is merged with a PEEKDATA read
// so bytes past the end of data are left untouched, per
// original_source's process::write_memory.
func (inf *Inferior) WriteMemory(address addr.VirtAddr, data []byte) error {
	written := 0
	for written < len(data) {
		cur := address.Addr() + uint64(written)
		remaining := len(data) - written
		if remaining >= 8 {
			word := binary.LittleEndian.Uint64(data[written : written+8])
			if err := inf.pokeData(cur, word); err != nil {
				return err
			}
			written += 8
			continue
		}

		existing, err := inf.peekData(cur)
		if err != nil {
			return err
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], existing)
		copy(buf[:remaining], data[written:])
		if err := inf.pokeData(cur, binary.LittleEndian.Uint64(buf[:])); err != nil {
			return err
		}
		written += remaining
	}
	return nil
}

const (
	ptracePeekData = 2
	ptracePokeData = 5
)

func (inf *Inferior) peekData(address uint64) (uint64, error) {
	v, err := inf.call(func() (any, error) {
		var word uint64
		// PTRACE_PEEKDATA writes the peeked word to *data via put_user and
		// returns only a status code — see ptracePeekUser's doc comment.
		_, err := ptraceRaw(ptracePeekData, inf.pid, uintptr(address), uintptr(unsafe.Pointer(&word)))
		return word, err
	})
	if err != nil {
		return 0, sdberr.WithErrno("PTRACE_PEEKDATA failed", err)
	}
	return v.(uint64), nil
}

func (inf *Inferior) pokeData(address uint64, word uint64) error {
	return inf.callErr(func() error {
		_, err := ptraceRaw(ptracePokeData, inf.pid, uintptr(address), uintptr(word))
		if err != nil {
			return sdberr.WithErrno("PTRACE_POKEDATA failed", err)
		}
		return nil
	})
}
