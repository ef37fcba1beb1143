// Package inferior implements the traced process: launching and attaching,
// the ptrace dispatch thread, resume/step/wait, stop-reason classification,
// memory access, and hardware/software stoppoint management. Grounded on
// original_source/include/libsdb/process.hpp and src/process.cpp, with the
// dedicated-tracer-thread dispatch pattern borrowed from
// golang-debug/program/server/ptrace.go's ptraceRun.
package inferior

import "github.com/gosdb/sdb/stoppoint"

// State is the inferior's coarse lifecycle state.
type State int

const (
	Stopped State = iota
	Running
	Exited
	Terminated
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// TrapReason further classifies a SIGTRAP stop.
type TrapReason int

const (
	TrapUnknown TrapReason = iota
	TrapSingleStep
	TrapSoftwareBreak
	TrapHardwareBreak
	TrapSyscall
)

// SyscallInfo carries the entry or exit details of a caught syscall stop,
// per original_source's syscall_information union.
type SyscallInfo struct {
	ID    uint64
	Entry bool
	Args  [6]uint64
	Ret   int64
}

// StopReason is the fully classified result of a wait, combining the raw
// wait(2) outcome with the SIGTRAP sub-classification original_source's
// augment_stop_reason derives from siginfo.
type StopReason struct {
	State       State
	Info        int // exit code, signal number, or stop signal depending on State
	HasTrap     bool
	TrapReason  TrapReason
	HasSyscall  bool
	SyscallInfo SyscallInfo
}

// SyscallCatchMode selects which syscalls should actually stop the
// inferior, per original_source's syscall_catch_policy.
type SyscallCatchMode int

const (
	CatchNone SyscallCatchMode = iota
	CatchSome
	CatchAll
)

// SyscallCatchPolicy pairs a mode with the specific ids to catch when mode
// is CatchSome.
type SyscallCatchPolicy struct {
	Mode SyscallCatchMode
	IDs  map[int]struct{}
}

func CatchAllPolicy() SyscallCatchPolicy { return SyscallCatchPolicy{Mode: CatchAll} }
func CatchNonePolicy() SyscallCatchPolicy { return SyscallCatchPolicy{Mode: CatchNone} }
func CatchSomePolicy(ids []int) SyscallCatchPolicy {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return SyscallCatchPolicy{Mode: CatchSome, IDs: m}
}

// HardwareStoppointKind distinguishes which collection a firing debug
// register belongs to, the Go analogue of the original's
// variant<breakpoint_site::id_type, watchpoint::id_type>.
type HardwareStoppointKind int

const (
	HardwareNone HardwareStoppointKind = iota
	HardwareBreakpoint
	HardwareWatchpoint
)

// HardwareStoppointRef names which stoppoint a firing debug register slot
// belongs to.
type HardwareStoppointRef struct {
	Kind HardwareStoppointKind
	ID   stoppoint.ID
}
