// Package auxv reads a process's auxiliary vector from /proc/<pid>/auxv,
// grounded on original_source/src/process.cpp's get_auxv: a flat array of
// uint64 (id, value) pairs terminated by an AT_NULL (id==0) entry.
package auxv

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/gosdb/sdb/sdberr"
)

// AT_ENTRY is the auxv key for the binary's real, post-relocation entry
// point — the value target.Launch/Attach subtract the ELF header's declared
// entry point from to derive the load bias.
const ATEntry = 9

const atNull = 0

// Read parses /proc/<pid>/auxv into an id -> value map.
func Read(pid int) (map[uint64]uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/auxv", pid))
	if err != nil {
		return nil, sdberr.WithErrno("could not read auxiliary vector", err)
	}
	out := make(map[uint64]uint64)
	for off := 0; off+16 <= len(data); off += 16 {
		id := binary.LittleEndian.Uint64(data[off : off+8])
		val := binary.LittleEndian.Uint64(data[off+8 : off+16])
		if id == atNull {
			break
		}
		out[id] = val
	}
	return out, nil
}
