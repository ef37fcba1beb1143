// Package demangle shells out to c++filt to turn Itanium-ABI mangled
// symbol names into their demangled form, the same approach
// lunixbochs-usercorn's debug model takes (go/models/debug.go's Demangle),
// generalized here into a reusable helper for elfbin's symbol tables.
package demangle

import (
	"bytes"
	"os/exec"
	"strings"
	"sync"
)

var (
	mu        sync.Mutex
	available = true
)

// Demangle returns the demangled form of name and true if c++filt produced
// a different spelling (i.e. name was actually mangled); it returns
// name unchanged and false when c++filt isn't available, fails, or leaves
// the name untouched (a plain C symbol).
func Demangle(name string) (string, bool) {
	if name == "" || !strings.HasPrefix(name, "_Z") {
		return name, false
	}

	mu.Lock()
	defer mu.Unlock()
	if !available {
		return name, false
	}

	cmd := exec.Command("c++filt", "-n")
	cmd.Stdin = strings.NewReader(name + "\n")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.Error); ok {
			available = false
		}
		return name, false
	}

	demangled := strings.TrimRight(out.String(), "\n")
	if demangled == "" || demangled == name {
		return name, false
	}
	return demangled, true
}
