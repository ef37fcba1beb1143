// Command antidebugger detects whether it is already being traced by
// attempting PTRACE_TRACEME on itself: a second tracer already attached
// makes the call fail with EPERM. It prints "traced" or "not traced" and
// exits, the same self-detection trick original_source's book chapter on
// anti-debugging techniques builds a target program around.
package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func main() {
	if err := unix.PtraceTraceme(); err != nil {
		fmt.Println("traced")
		return
	}
	fmt.Println("not traced")
}
