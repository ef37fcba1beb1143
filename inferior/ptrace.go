package inferior

import (
	"encoding/binary"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gosdb/sdb/sdberr"
)

// request/result are the closures and their outcomes shuttled across the
// dispatch channels. Every ptrace(2) call for a given inferior must come
// from the same OS thread that first stopped it, so all of them — Cont,
// SingleStep, GetRegs, PeekUser, PokeUser, GetSigInfo, and cmd.Start itself
// for a launch — are wrapped in a closure and sent to ptraceRun rather than
// called directly. This is the same shape as
// golang-debug/program/server/ptrace.go's fc/ec pair, generalized from
// "func() error" to "func() (any, error)" so calls can also return a value
// (GETREGS's populated buffer, PEEKUSER's word, a launched *os.Process).
type request struct {
	fn func() (any, error)
}

type response struct {
	val any
	err error
}

// ptraceRun pins itself to one OS thread for the lifetime of the inferior
// and executes every queued ptrace request on it.
func ptraceRun(fc chan request, ec chan response) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for req := range fc {
		val, err := req.fn()
		ec <- response{val: val, err: err}
	}
}

// call hands f to the dispatcher thread and blocks for its result.
func (inf *Inferior) call(f func() (any, error)) (any, error) {
	inf.fc <- request{fn: f}
	r := <-inf.ec
	return r.val, r.err
}

// callErr is call for closures that only care about the error.
func (inf *Inferior) callErr(f func() error) error {
	_, err := inf.call(func() (any, error) { return nil, f() })
	return err
}

// ptraceOffsets for requests golang.org/x/sys/unix doesn't wrap at the high
// level (PEEKUSER, POKEUSER, GETFPREGS, SETFPREGS, GETSIGINFO). Values
// match Linux's <sys/ptrace.h> on x86-64, the same constants go-delve-delve's
// cgo breakpoints_linux_amd64.go resolves via C.PTRACE_PEEKUSER et al.
const (
	ptracePeekUser  = 3
	ptracePokeUser  = 6
	ptraceGetFPRegs = 14
	ptraceSetFPRegs = 15
	ptraceSetOptions = 0x4200
	ptraceGetSigInfo = 0x4202

	ptraceOTraceSysGood = 0x1
)

func ptraceRaw(request int, pid int, addr uintptr, data uintptr) (uintptr, error) {
	r1, _, errno := unix.Syscall6(unix.SYS_PTRACE, uintptr(request), uintptr(pid), addr, data, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return r1, nil
}

// ptracePeekUser reads one word via PTRACE_PEEKUSER. Unlike most ptrace
// requests, the kernel's PEEKUSER/PEEKDATA/PEEKTEXT path writes the peeked
// word to *data via put_user and returns only a status in the syscall
// return register (the glibc wrapper is what turns that into a return
// value) — data must point at a real word to receive it, mirroring
// golang.org/x/sys/unix.PtracePeekText's own implementation.
func (inf *Inferior) ptracePeekUser(offset int) (uint64, error) {
	v, err := inf.call(func() (any, error) {
		var word uint64
		_, err := ptraceRaw(ptracePeekUser, inf.pid, uintptr(offset), uintptr(unsafe.Pointer(&word)))
		return word, err
	})
	if err != nil {
		return 0, sdberr.WithErrno("PTRACE_PEEKUSER failed", err)
	}
	return v.(uint64), nil
}

func (inf *Inferior) ptracePokeUser(offset int, word uint64) error {
	return inf.callErr(func() error {
		_, err := ptraceRaw(ptracePokeUser, inf.pid, uintptr(offset), uintptr(word))
		if err != nil {
			return sdberr.WithErrno("PTRACE_POKEUSER failed", err)
		}
		return nil
	})
}

func (inf *Inferior) ptraceGetFPRegs(buf []byte) error {
	return inf.callErr(func() error {
		_, err := ptraceRaw(ptraceGetFPRegs, inf.pid, 0, uintptr(unsafe.Pointer(&buf[0])))
		if err != nil {
			return sdberr.WithErrno("PTRACE_GETFPREGS failed", err)
		}
		return nil
	})
}

func (inf *Inferior) ptraceSetFPRegs(buf []byte) error {
	return inf.callErr(func() error {
		_, err := ptraceRaw(ptraceSetFPRegs, inf.pid, 0, uintptr(unsafe.Pointer(&buf[0])))
		if err != nil {
			return sdberr.WithErrno("PTRACE_SETFPREGS failed", err)
		}
		return nil
	})
}

// siginfoT mirrors the fields of Linux's siginfo_t that augmentStopReason
// needs: the signal number, the si_code classifying it, and (for SIGTRAP|
// 0x80 syscall stops this field is unused, si_code alone is read).
type siginfoT struct {
	Signo int32
	Errno int32
	Code  int32
	_     int32 // padding to match siginfo_t's layout before the union
}

// sizeofSiginfoT is glibc's siginfo_t size on linux/amd64. PTRACE_GETSIGINFO
// copies the kernel's full siginfo_t into *data regardless of how much of
// it the caller actually wants, so the destination buffer must be backed by
// this much space or the kernel writes past it.
const sizeofSiginfoT = 128

func (inf *Inferior) ptraceGetSigInfo() (siginfoT, error) {
	var buf [sizeofSiginfoT]byte
	err := inf.callErr(func() error {
		_, err := ptraceRaw(ptraceGetSigInfo, inf.pid, 0, uintptr(unsafe.Pointer(&buf[0])))
		if err != nil {
			return sdberr.WithErrno("PTRACE_GETSIGINFO failed", err)
		}
		return nil
	})
	info := siginfoT{
		Signo: int32(binary.LittleEndian.Uint32(buf[0:4])),
		Errno: int32(binary.LittleEndian.Uint32(buf[4:8])),
		Code:  int32(binary.LittleEndian.Uint32(buf[8:12])),
	}
	return info, err
}

func (inf *Inferior) ptraceSetOptions(options uintptr) error {
	return inf.callErr(func() error {
		_, err := ptraceRaw(ptraceSetOptions, inf.pid, 0, options)
		if err != nil {
			return sdberr.WithErrno("PTRACE_SETOPTIONS failed", err)
		}
		return nil
	})
}
