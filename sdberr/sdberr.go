// Package sdberr defines the debugger's unified failure type: a message
// plus an optional captured errno, classified by kind, carrying the
// source location of the call that raised it.
package sdberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure the way spec.md §7 enumerates them.
type Kind int

const (
	// KernelCall covers any ptrace / waitpid / process_vm_readv / mmap /
	// open / fstat failure; it is the kind WithErrno assigns. Other kinds
	// carry an errno only when built with WithErrnoKind.
	KernelCall Kind = iota
	LaunchFailure
	AttachFailure
	ResourceExhaustion
	InvalidArgument
	NotFound
	ParseError
)

func (k Kind) String() string {
	switch k {
	case KernelCall:
		return "kernel call failure"
	case LaunchFailure:
		return "launch failure"
	case AttachFailure:
		return "attach failure"
	case ResourceExhaustion:
		return "resource exhaustion"
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case ParseError:
		return "parse error"
	default:
		return "unknown"
	}
}

// Error is the debugger's single error type. It is always returned by
// value-wrapping constructors below, never constructed directly by callers
// outside this package, so that every error flowing out of the core carries
// a kind and a captured stack (via github.com/pkg/errors) pointing at the
// call that raised it.
type Error struct {
	kind  Kind
	msg   string
	errno error // the errno-bearing cause, when present
	stack error // github.com/pkg/errors annotated error, carries source location
}

func (e *Error) Error() string {
	if e.errno != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.errno)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap exposes the captured errno cause (if any) so callers can use
// errors.Is/errors.As against it (e.g. os.IsNotExist-style checks).
func (e *Error) Unwrap() error {
	return e.errno
}

// Kind reports the failure's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Format lets callers print e.g. %+v with github.com/pkg/errors'
// stack-aware formatting.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.stack)
		return
	}
	fmt.Fprint(s, e.Error())
}

func newErr(kind Kind, msg string, errno error) *Error {
	e := &Error{kind: kind, msg: msg, errno: errno}
	e.stack = errors.WithStack(e)
	return e
}

// New builds a plain, non-errno failure of the given kind.
func New(kind Kind, msg string) error {
	return newErr(kind, msg, nil)
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) error {
	return newErr(kind, fmt.Sprintf(format, args...), nil)
}

// WithErrno wraps a syscall-level error (typically unix.Errno) as a
// KernelCall failure; use WithErrnoKind for any other kind.
func WithErrno(msg string, cause error) error {
	return newErr(KernelCall, msg, cause)
}

// WithErrnoKind is WithErrno but lets the caller pick a kind other than
// KernelCall (e.g. AttachFailure for a failed PTRACE_ATTACH).
func WithErrnoKind(kind Kind, msg string, cause error) error {
	return newErr(kind, msg, cause)
}

// Is reports whether err is an *Error of the given kind, unwrapping wrapped
// errors along the way.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
