// Command memory writes the address of a stack variable to stdout, raises
// SIGTRAP so a tracer can patch that variable's memory, then writes the
// address of a second buffer, raises SIGTRAP again, and finally prints
// whatever the tracer wrote into that buffer. Direct port of
// original_source/test/targets/memory.cpp for exercising ReadMemory and
// WriteMemory end to end.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

func writeAddress(p unsafe.Pointer) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(uintptr(p)))
	os.Stdout.Write(buf[:])
}

func main() {
	a := uint64(0xcafecafe)
	writeAddress(unsafe.Pointer(&a))
	unix.Kill(os.Getpid(), unix.SIGTRAP)

	var b [12]byte
	writeAddress(unsafe.Pointer(&b[0]))
	unix.Kill(os.Getpid(), unix.SIGTRAP)

	fmt.Print(cString(b[:]))
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
