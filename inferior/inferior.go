package inferior

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/registers"
	"github.com/gosdb/sdb/registers/catalog"
	"github.com/gosdb/sdb/sdberr"
	"github.com/gosdb/sdb/stoppoint"
)

const (
	sigtrap = 5

	trapTraceCode  = 2    // TRAP_TRACE
	trapHWBkptCode = 4    // TRAP_HWBKPT
	siKernelCode   = 0x80 // SI_KERNEL
)

// Inferior is one traced process: the OS-level handle, its cached register
// file, its breakpoint/watchpoint collections, and the dedicated ptrace
// dispatch thread. Grounded on original_source/include/libsdb/process.hpp's
// process class.
type Inferior struct {
	pid            int
	cmd            *exec.Cmd
	attached       bool
	terminateOnEnd bool
	state          State

	registers *registers.File

	breakpoints stoppoint.Collection[*stoppoint.BreakpointSite]
	watchpoints stoppoint.Collection[*stoppoint.Watchpoint]
	nextID      stoppoint.ID // per-inferior counter; see stoppoint.ID's doc comment

	syscallPolicy        SyscallCatchPolicy
	expectingSyscallExit bool

	fc chan request
	ec chan response
}

func (inf *Inferior) Pid() int          { return inf.pid }
func (inf *Inferior) State() State      { return inf.state }
func (inf *Inferior) Registers() *registers.File { return inf.registers }

// nextStoppointID hands out a fresh, inferior-scoped stoppoint id.
func (inf *Inferior) nextStoppointID() stoppoint.ID {
	inf.nextID++
	return inf.nextID
}

func (inf *Inferior) startDispatcher() {
	inf.fc = make(chan request)
	inf.ec = make(chan response)
	go ptraceRun(inf.fc, inf.ec)
}

// Launch starts path under ptrace (or, when debug is false, as a plain
// child whose output is merely supervised), per
// original_source/src/process.cpp's process::launch. stdoutReplacement, if
// non-nil, is dup'd onto the child's stdout — used by the test harness to
// capture a target program's output.
func Launch(path string, args []string, debug bool, stdoutReplacement *os.File) (*Inferior, error) {
	inf := &Inferior{attached: debug, terminateOnEnd: true, syscallPolicy: CatchNonePolicy()}
	inf.startDispatcher()

	cmd := exec.Command(path, args...)
	cmd.Args[0] = path
	if stdoutReplacement != nil {
		cmd.Stdout = stdoutReplacement
	} else {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: debug, Setpgid: true}
	inf.cmd = cmd

	if _, err := inf.call(func() (any, error) { return nil, cmd.Start() }); err != nil {
		close(inf.fc)
		return nil, sdberr.WithErrnoKind(sdberr.LaunchFailure, "could not launch process", err)
	}
	inf.pid = cmd.Process.Pid
	inf.registers = registers.New(inf)

	if debug {
		if _, err := inf.waitOnSignalLocked(); err != nil {
			return nil, err
		}
		if err := inf.ptraceSetOptions(ptraceOTraceSysGood); err != nil {
			return nil, err
		}
	}
	return inf, nil
}

// Attach takes control of an already-running process, per
// original_source's process::attach.
func Attach(pid int) (*Inferior, error) {
	if pid <= 0 {
		return nil, sdberr.New(sdberr.InvalidArgument, "invalid pid for attach")
	}
	inf := &Inferior{pid: pid, attached: true, terminateOnEnd: false, syscallPolicy: CatchNonePolicy()}
	inf.startDispatcher()
	inf.registers = registers.New(inf)

	if err := inf.callErr(func() error { return unix.PtraceAttach(pid) }); err != nil {
		return nil, sdberr.WithErrnoKind(sdberr.AttachFailure, "could not attach to process", err)
	}
	if _, err := inf.waitOnSignalLocked(); err != nil {
		return nil, err
	}
	if err := inf.ptraceSetOptions(ptraceOTraceSysGood); err != nil {
		return nil, err
	}
	return inf, nil
}

// Detach stops tracing and, if Launch started this inferior, kills it;
// mirrors process::~process's shutdown sequence.
func (inf *Inferior) Detach() error {
	if inf.pid == 0 {
		return nil
	}
	if inf.attached {
		if inf.state == Running {
			unix.Kill(inf.pid, unix.SIGSTOP)
			inf.waitOnSignalLocked()
		}
		inf.callErr(func() error { return unix.PtraceDetach(inf.pid) })
		unix.Kill(inf.pid, unix.SIGCONT)
	}
	if inf.terminateOnEnd {
		unix.Kill(inf.pid, unix.SIGKILL)
		inf.callErr(func() error {
			var ws unix.WaitStatus
			_, err := unix.Wait4(inf.pid, &ws, 0, nil)
			return err
		})
	}
	close(inf.fc)
	return nil
}

// SetSyscallCatchPolicy installs the policy governing which syscalls
// actually stop the inferior.
func (inf *Inferior) SetSyscallCatchPolicy(p SyscallCatchPolicy) { inf.syscallPolicy = p }

// GetPC/SetPC read and write the instruction pointer via the cached
// register file.
func (inf *Inferior) GetPC() (addr.VirtAddr, error) {
	v, err := inf.registers.Read(catalog.RIP)
	if err != nil {
		return addr.VirtAddr{}, err
	}
	return addr.NewVirtAddr(v.Uint64()), nil
}

func (inf *Inferior) SetPC(a addr.VirtAddr) error {
	return inf.registers.Write(catalog.RIP, registers.ValueFromUint64(a.Addr(), 8))
}

// Resume continues the inferior, stepping over any enabled software
// breakpoint sitting at the current PC first, per process::resume.
func (inf *Inferior) Resume() error {
	pc, err := inf.GetPC()
	if err != nil {
		return err
	}
	if bp, err := inf.breakpoints.GetByAddress(pc.Addr()); err == nil && bp.IsEnabled() && !bp.IsHardware() {
		if err := bp.Disable(); err != nil {
			return err
		}
		if err := inf.callErr(func() error { return unix.PtraceSingleStep(inf.pid) }); err != nil {
			return sdberr.WithErrno("PTRACE_SINGLESTEP failed", err)
		}
		if _, err := inf.waitOnSignalLocked(); err != nil {
			return err
		}
		if err := bp.Enable(); err != nil {
			return err
		}
	}

	var resumeErr error
	if inf.syscallPolicy.Mode == CatchNone {
		resumeErr = inf.callErr(func() error { return unix.PtraceCont(inf.pid, 0) })
	} else {
		resumeErr = inf.callErr(func() error { return ptraceSyscall(inf.pid) })
	}
	if resumeErr != nil {
		return sdberr.WithErrno("could not resume process", resumeErr)
	}
	inf.state = Running
	return nil
}

func ptraceSyscall(pid int) error {
	_, err := ptraceRaw(unix.PTRACE_SYSCALL, pid, 0, 0)
	return err
}

// StepInstruction single-steps past one machine instruction, disabling and
// re-enabling a software breakpoint at the current PC if one is present.
func (inf *Inferior) StepInstruction() (StopReason, error) {
	pc, err := inf.GetPC()
	if err != nil {
		return StopReason{}, err
	}
	var toReenable *stoppoint.BreakpointSite
	if bp, err := inf.breakpoints.GetByAddress(pc.Addr()); err == nil && bp.IsEnabled() && !bp.IsHardware() {
		if err := bp.Disable(); err != nil {
			return StopReason{}, err
		}
		toReenable = bp
	}
	if err := inf.callErr(func() error { return unix.PtraceSingleStep(inf.pid) }); err != nil {
		return StopReason{}, sdberr.WithErrno("PTRACE_SINGLESTEP failed", err)
	}
	reason, err := inf.waitOnSignalLocked()
	if toReenable != nil {
		if enableErr := toReenable.Enable(); enableErr != nil && err == nil {
			err = enableErr
		}
	}
	return reason, err
}

// WaitOnSignal blocks for the next wait(2) transition and classifies it,
// per process::wait_on_signal.
func (inf *Inferior) WaitOnSignal() (StopReason, error) {
	return inf.waitOnSignalLocked()
}

func (inf *Inferior) waitOnSignalLocked() (StopReason, error) {
	waitResult, err := inf.call(func() (any, error) {
		var ws unix.WaitStatus
		_, err := unix.Wait4(inf.pid, &ws, 0, nil)
		return ws, err
	})
	if err != nil {
		return StopReason{}, sdberr.WithErrno("wait4 failed", err)
	}
	ws := waitResult.(unix.WaitStatus)

	reason := stopReasonFromWaitStatus(ws)
	inf.state = reason.State

	if inf.attached && inf.state == Stopped {
		if err := inf.readAllRegisters(); err != nil {
			return reason, err
		}
		if err := inf.augmentStopReason(&reason); err != nil {
			return reason, err
		}
		pc, err := inf.GetPC()
		if err != nil {
			return reason, err
		}
		instrBegin := pc.Sub(1)

		if reason.Info == sigtrap {
			switch {
			case reason.HasTrap && reason.TrapReason == TrapSoftwareBreak && inf.breakpoints.EnabledStoppointAtAddress(instrBegin.Addr()):
				if err := inf.SetPC(instrBegin); err != nil {
					return reason, err
				}
			case reason.HasTrap && reason.TrapReason == TrapHardwareBreak:
				ref, err := inf.GetCurrentHardwareStoppoint()
				if err == nil && ref.Kind == HardwareWatchpoint {
					if wp, err := inf.watchpoints.GetByID(ref.ID); err == nil {
						wp.UpdateData()
					}
				}
			case reason.HasTrap && reason.TrapReason == TrapSyscall:
				return inf.maybeResumeFromSyscall(reason)
			}
		}
	}

	return reason, nil
}

func stopReasonFromWaitStatus(ws unix.WaitStatus) StopReason {
	switch {
	case ws.Exited():
		return StopReason{State: Exited, Info: ws.ExitStatus()}
	case ws.Signaled():
		return StopReason{State: Terminated, Info: int(ws.Signal())}
	case ws.Stopped():
		return StopReason{State: Stopped, Info: int(ws.StopSignal())}
	default:
		return StopReason{State: Exited, Info: 0}
	}
}

// augmentStopReason refines a SIGTRAP stop using PTRACE_GETSIGINFO, per
// process::augment_stop_reason. A stop signal of SIGTRAP|0x80 (set by
// PTRACE_O_TRACESYSGOOD) marks a syscall entry/exit rather than a
// breakpoint or single-step trap.
func (inf *Inferior) augmentStopReason(reason *StopReason) error {
	info, err := inf.ptraceGetSigInfo()
	if err != nil {
		return err
	}

	if reason.Info == sigtrap|0x80 {
		reason.Info = sigtrap
		reason.HasTrap = true
		reason.TrapReason = TrapSyscall
		reason.HasSyscall = true

		regs := inf.registers
		origRax, _ := regs.Read(catalog.ORIG_RAX)
		if inf.expectingSyscallExit {
			rax, _ := regs.Read(catalog.RAX)
			reason.SyscallInfo = SyscallInfo{ID: origRax.Uint64(), Entry: false, Ret: rax.Int64()}
			inf.expectingSyscallExit = false
		} else {
			args := [6]catalog.ID{catalog.RDI, catalog.RSI, catalog.RDX, catalog.R10, catalog.R8, catalog.R9}
			var a [6]uint64
			for i, id := range args {
				v, _ := regs.Read(id)
				a[i] = v.Uint64()
			}
			reason.SyscallInfo = SyscallInfo{ID: origRax.Uint64(), Entry: true, Args: a}
			inf.expectingSyscallExit = true
		}
		return nil
	}

	inf.expectingSyscallExit = false
	reason.HasTrap = false
	reason.TrapReason = TrapUnknown
	if reason.Info == sigtrap {
		reason.HasTrap = true
		switch info.Code {
		case trapTraceCode:
			reason.TrapReason = TrapSingleStep
		case siKernelCode:
			reason.TrapReason = TrapSoftwareBreak
		case trapHWBkptCode:
			reason.TrapReason = TrapHardwareBreak
		default:
			reason.TrapReason = TrapUnknown
		}
	}
	return nil
}

// maybeResumeFromSyscall silently continues past a syscall stop the
// current policy doesn't want to catch, per process::maybe_resume_from_syscall.
func (inf *Inferior) maybeResumeFromSyscall(reason StopReason) (StopReason, error) {
	if inf.syscallPolicy.Mode == CatchSome {
		if _, caught := inf.syscallPolicy.IDs[int(reason.SyscallInfo.ID)]; !caught {
			if err := inf.Resume(); err != nil {
				return reason, err
			}
			return inf.waitOnSignalLocked()
		}
	}
	return reason, nil
}

// readAllRegisters refreshes the cached register image: GPRs, FPRs, and
// the eight debug registers in a single loop — original_source's
// read_all_registers reads dr0-dr7 via a doubly nested loop that
// re-reads the same eight values twice; that duplication serves no
// purpose here.
func (inf *Inferior) readAllRegisters() error {
	regsVal, err := inf.call(func() (any, error) {
		var regs unix.PtraceRegs
		err := unix.PtraceGetRegs(inf.pid, &regs)
		return regs, err
	})
	if err != nil {
		return sdberr.WithErrno("PTRACE_GETREGS failed", err)
	}
	regs := regsVal.(unix.PtraceRegs)
	copy(inf.registers.Raw()[0:216], (*[216]byte)(unsafe.Pointer(&regs))[:])

	fprBuf := inf.registers.Raw()[224:736]
	if err := inf.ptraceGetFPRegs(fprBuf); err != nil {
		return err
	}

	for i := 0; i < 8; i++ {
		offset := catalog.DebugRegisterOffset(i)
		word, err := inf.ptracePeekUser(offset)
		if err != nil {
			return err
		}
		off := offset
		binaryLEPutUint64(inf.registers.Raw()[off:off+8], word)
	}
	return nil
}

func binaryLEPutUint64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

// SetGPRs, SetFPRs, and PokeUser implement registers.Transport.
func (inf *Inferior) SetGPRs(data []byte) error {
	var regs unix.PtraceRegs
	copy((*[216]byte)(unsafe.Pointer(&regs))[:], data)
	return inf.callErr(func() error { return unix.PtraceSetRegs(inf.pid, &regs) })
}

func (inf *Inferior) SetFPRs(data []byte) error {
	return inf.ptraceSetFPRegs(data)
}

func (inf *Inferior) PokeUser(offset int, word uint64) error {
	return inf.ptracePokeUser(offset, word)
}
