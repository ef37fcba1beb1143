// Package sysnum provides the bidirectional syscall name<->id lookup for
// spec.md §4.3's syscall-catch policy. The shell has no `catch` command.
// Grounded on original_source/include/libsdb/syscalls.hpp's
// syscall_id_to_name/syscall_name_to_id pair, but built directly from
// golang.org/x/sys/unix's generated SYS_* constants instead of a
// generated .inc file, since the pack already carries x/sys as a
// dependency for ptrace itself.
package sysnum

import "golang.org/x/sys/unix"

var idToName = map[int]string{
	unix.SYS_READ:          "read",
	unix.SYS_WRITE:         "write",
	unix.SYS_OPEN:          "open",
	unix.SYS_CLOSE:         "close",
	unix.SYS_STAT:          "stat",
	unix.SYS_FSTAT:         "fstat",
	unix.SYS_LSTAT:         "lstat",
	unix.SYS_POLL:          "poll",
	unix.SYS_LSEEK:         "lseek",
	unix.SYS_MMAP:          "mmap",
	unix.SYS_MPROTECT:      "mprotect",
	unix.SYS_MUNMAP:        "munmap",
	unix.SYS_BRK:           "brk",
	unix.SYS_RT_SIGACTION:  "rt_sigaction",
	unix.SYS_RT_SIGPROCMASK: "rt_sigprocmask",
	unix.SYS_IOCTL:         "ioctl",
	unix.SYS_PREAD64:       "pread64",
	unix.SYS_PWRITE64:      "pwrite64",
	unix.SYS_READV:         "readv",
	unix.SYS_WRITEV:        "writev",
	unix.SYS_ACCESS:        "access",
	unix.SYS_PIPE:          "pipe",
	unix.SYS_SELECT:        "select",
	unix.SYS_SCHED_YIELD:   "sched_yield",
	unix.SYS_MREMAP:        "mremap",
	unix.SYS_MSYNC:         "msync",
	unix.SYS_MINCORE:       "mincore",
	unix.SYS_MADVISE:       "madvise",
	unix.SYS_DUP:           "dup",
	unix.SYS_DUP2:          "dup2",
	unix.SYS_PAUSE:         "pause",
	unix.SYS_NANOSLEEP:     "nanosleep",
	unix.SYS_GETPID:        "getpid",
	unix.SYS_SOCKET:        "socket",
	unix.SYS_CONNECT:       "connect",
	unix.SYS_ACCEPT:        "accept",
	unix.SYS_SENDTO:        "sendto",
	unix.SYS_RECVFROM:      "recvfrom",
	unix.SYS_CLONE:         "clone",
	unix.SYS_FORK:          "fork",
	unix.SYS_VFORK:         "vfork",
	unix.SYS_EXECVE:        "execve",
	unix.SYS_EXIT:          "exit",
	unix.SYS_WAIT4:         "wait4",
	unix.SYS_KILL:          "kill",
	unix.SYS_UNAME:         "uname",
	unix.SYS_FCNTL:         "fcntl",
	unix.SYS_FLOCK:         "flock",
	unix.SYS_FTRUNCATE:     "ftruncate",
	unix.SYS_GETDENTS:      "getdents",
	unix.SYS_GETCWD:        "getcwd",
	unix.SYS_CHDIR:         "chdir",
	unix.SYS_RENAME:        "rename",
	unix.SYS_MKDIR:         "mkdir",
	unix.SYS_RMDIR:         "rmdir",
	unix.SYS_UNLINK:        "unlink",
	unix.SYS_READLINK:      "readlink",
	unix.SYS_CHMOD:         "chmod",
	unix.SYS_CHOWN:         "chown",
	unix.SYS_GETUID:        "getuid",
	unix.SYS_GETGID:        "getgid",
	unix.SYS_SETUID:        "setuid",
	unix.SYS_SETGID:        "setgid",
	unix.SYS_GETEUID:       "geteuid",
	unix.SYS_GETEGID:       "getegid",
	unix.SYS_SETPGID:       "setpgid",
	unix.SYS_GETPPID:       "getppid",
	unix.SYS_GETPGRP:       "getpgrp",
	unix.SYS_SETSID:        "setsid",
	unix.SYS_SIGALTSTACK:   "sigaltstack",
	unix.SYS_PTRACE:        "ptrace",
	unix.SYS_GETTIMEOFDAY:  "gettimeofday",
	unix.SYS_PRCTL:         "prctl",
	unix.SYS_ARCH_PRCTL:    "arch_prctl",
	unix.SYS_GETTID:        "gettid",
	unix.SYS_FUTEX:         "futex",
	unix.SYS_SET_TID_ADDRESS: "set_tid_address",
	unix.SYS_CLOCK_GETTIME: "clock_gettime",
	unix.SYS_EXIT_GROUP:    "exit_group",
	unix.SYS_OPENAT:        "openat",
	unix.SYS_PROCESS_VM_READV: "process_vm_readv",
	unix.SYS_PROCESS_VM_WRITEV: "process_vm_writev",
}

var nameToID map[string]int

func init() {
	nameToID = make(map[string]int, len(idToName))
	for id, name := range idToName {
		nameToID[name] = id
	}
}

// NameToID looks up a syscall's number by name.
func NameToID(name string) (int, bool) {
	id, ok := nameToID[name]
	return id, ok
}

// IDToName looks up a syscall's name by number, falling back to a
// "syscall_<n>" placeholder for numbers this table doesn't carry (the
// original does the equivalent via its generated table's default case).
func IDToName(id int) string {
	if name, ok := idToName[id]; ok {
		return name
	}
	return unknownName(id)
}

func unknownName(id int) string {
	return "syscall_" + itoa(id)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
