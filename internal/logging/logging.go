// Package logging configures the standard library logger the way
// golang-debug's own command-line entry points (cmd/viewcore/main.go, the
// ogle tools) do: a short prefix, no timestamp noise, writing to stderr so
// it never interleaves with an inferior's stdout. The debugger's core
// packages never log; only cmd/sdb's diagnostics use this.
package logging

import (
	"log"
	"os"
)

// New returns a *log.Logger prefixed with name, matching the
// "<tool>: <message>" convention the original C++ CLI and the teacher's own
// command-line tools both use for fatal diagnostics.
func New(name string) *log.Logger {
	return log.New(os.Stderr, name+": ", 0)
}
