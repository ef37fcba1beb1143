package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosdb/sdb/addr"
	"github.com/gosdb/sdb/disasm"
	"github.com/gosdb/sdb/registers"
	"github.com/gosdb/sdb/registers/catalog"
	"github.com/gosdb/sdb/sdberr"
	"github.com/gosdb/sdb/stoppoint"
)

func (s *session) handleRegisterCommand(args []string) error {
	if len(args) < 2 {
		printHelp([]string{"help", "register"})
		return nil
	}
	switch {
	case isPrefix(args[1], "read"):
		return s.handleRegisterRead(args)
	case isPrefix(args[1], "write"):
		return s.handleRegisterWrite(args)
	default:
		printHelp([]string{"help", "register"})
		return nil
	}
}

func (s *session) handleRegisterRead(args []string) error {
	regs := s.target.Inferior().Registers()
	printAll := len(args) == 2 || (len(args) == 3 && args[2] == "all")

	if printAll {
		for _, info := range catalog.Table {
			shouldPrint := (len(args) == 3 || info.Class == catalog.GPR) && info.Name != "orig_rax"
			if !shouldPrint {
				continue
			}
			val, err := regs.Read(info.ID)
			if err != nil {
				continue
			}
			fmt.Printf("%s:\t%s\n", info.Name, val)
		}
		return nil
	}

	if len(args) == 3 {
		info, ok := catalog.ByName(args[2])
		if !ok {
			fmt.Println("no such register")
			return nil
		}
		val, err := regs.Read(info.ID)
		if err != nil {
			fmt.Println("no such register")
			return nil
		}
		fmt.Printf("%s:\t%s\n", info.Name, val)
		return nil
	}

	printHelp([]string{"help", "register"})
	return nil
}

func (s *session) handleRegisterWrite(args []string) error {
	if len(args) != 4 {
		printHelp([]string{"help", "register"})
		return nil
	}
	info, ok := catalog.ByName(args[2])
	if !ok {
		return sdberr.Newf(sdberr.NotFound, "no such register %q", args[2])
	}
	val, err := parseRegisterValue(info, args[3])
	if err != nil {
		return err
	}
	return s.target.Inferior().Registers().Write(info.ID, val)
}

func parseRegisterValue(info catalog.Info, text string) (registers.Value, error) {
	switch info.Format {
	case catalog.FormatUint, catalog.FormatInt:
		n, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 64)
		if err != nil {
			return registers.Value{}, sdberr.New(sdberr.InvalidArgument, "invalid format")
		}
		return registers.ValueFromUint64(n, info.Size), nil
	case catalog.FormatLongDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return registers.Value{}, sdberr.New(sdberr.InvalidArgument, "invalid format")
		}
		return registers.ValueFromLongDouble(f), nil
	case catalog.FormatVector:
		return parseVector(text)
	default:
		return registers.Value{}, sdberr.New(sdberr.InvalidArgument, "invalid format")
	}
}

// parseVector parses a "[0x12,0x34,...]" byte-list literal, the same shape
// original_source's sdb::parse_vector accepts.
func parseVector(text string) (registers.Value, error) {
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	parts := strings.Split(text, ",")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(p), "0x"))
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return registers.Value{}, sdberr.New(sdberr.InvalidArgument, "invalid format")
		}
		out = append(out, byte(n))
	}
	return registers.ValueFromBytes(out), nil
}

func parseHexAddr(s string) (addr.VirtAddr, error) {
	s = strings.TrimPrefix(s, "0x")
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return addr.VirtAddr{}, sdberr.New(sdberr.InvalidArgument, "invalid address format")
	}
	return addr.NewVirtAddr(n), nil
}

func (s *session) handleBreakpointCommand(args []string) error {
	if len(args) < 2 {
		printHelp([]string{"help", "breakpoint"})
		return nil
	}
	command := args[1]
	sites := s.target.Inferior().BreakpointSites()

	if isPrefix(command, "list") {
		if sites.Empty() {
			fmt.Println("no breakpoints set")
			return nil
		}
		fmt.Println("current breakpoints:")
		sites.ForEach(func(site *stoppoint.BreakpointSite) {
			if site.IsInternal() {
				return
			}
			state := "disabled"
			if site.IsEnabled() {
				state = "enabled"
			}
			fmt.Printf("%d: address = %#x, %s\n", site.ID(), site.Address(), state)
		})
		return nil
	}

	if len(args) < 3 {
		printHelp([]string{"help", "breakpoint"})
		return nil
	}

	if isPrefix(command, "set") {
		a, err := parseHexAddr(args[2])
		if err != nil {
			fmt.Println("breakpoint command expects address in hexadecimal, prefixed with '0x'")
			return nil
		}
		bp, err := s.target.Inferior().CreateBreakpointSite(a, false, false)
		if err != nil {
			return err
		}
		return bp.Enable()
	}

	id, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println("command expects breakpoint id")
		return nil
	}

	switch {
	case isPrefix(command, "enable"):
		bp, err := sites.GetByID(stoppoint.ID(id))
		if err != nil {
			return err
		}
		return bp.Enable()
	case isPrefix(command, "disable"):
		bp, err := sites.GetByID(stoppoint.ID(id))
		if err != nil {
			return err
		}
		return bp.Disable()
	case isPrefix(command, "delete"):
		return sites.RemoveByID(stoppoint.ID(id))
	}
	return nil
}

func (s *session) handleWatchpointCommand(args []string) error {
	if len(args) < 2 {
		printHelp([]string{"help", "watchpoint"})
		return nil
	}
	command := args[1]
	points := s.target.Inferior().Watchpoints()

	if isPrefix(command, "list") {
		if points.Empty() {
			fmt.Println("no watchpoints set")
			return nil
		}
		fmt.Println("current watchpoints:")
		points.ForEach(func(wp *stoppoint.Watchpoint) {
			state := "disabled"
			if wp.IsEnabled() {
				state = "enabled"
			}
			fmt.Printf("%d: address = %#x, %s\n", wp.ID(), wp.Address(), state)
		})
		return nil
	}

	if isPrefix(command, "set") {
		if len(args) != 5 {
			printHelp([]string{"help", "watchpoint"})
			return nil
		}
		a, err := parseHexAddr(args[2])
		if err != nil {
			fmt.Println("watchpoint command expects address in hexadecimal, prefixed with '0x'")
			return nil
		}
		mode, err := parseWatchpointMode(args[3])
		if err != nil {
			return err
		}
		size, err := strconv.Atoi(args[4])
		if err != nil {
			return sdberr.New(sdberr.InvalidArgument, "invalid watchpoint size")
		}
		wp, err := s.target.Inferior().CreateWatchpoint(a, mode, size)
		if err != nil {
			return err
		}
		return wp.Enable()
	}

	if len(args) < 3 {
		printHelp([]string{"help", "watchpoint"})
		return nil
	}
	id, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println("command expects watchpoint id")
		return nil
	}
	if isPrefix(command, "delete") {
		return points.RemoveByID(stoppoint.ID(id))
	}
	return nil
}

func parseWatchpointMode(s string) (stoppoint.Mode, error) {
	switch s {
	case "write":
		return stoppoint.ModeWrite, nil
	case "rw", "read_write":
		return stoppoint.ModeReadWrite, nil
	case "execute":
		return stoppoint.ModeExecute, nil
	default:
		return 0, sdberr.Newf(sdberr.InvalidArgument, "invalid watchpoint mode %q", s)
	}
}

func (s *session) handleMemoryCommand(args []string) error {
	if len(args) < 3 {
		printHelp([]string{"help", "memory"})
		return nil
	}
	switch {
	case isPrefix(args[1], "read"):
		return s.handleMemoryRead(args)
	case isPrefix(args[1], "write"):
		return s.handleMemoryWrite(args)
	default:
		printHelp([]string{"help", "memory"})
		return nil
	}
}

func (s *session) handleMemoryRead(args []string) error {
	a, err := parseHexAddr(args[2])
	if err != nil {
		return sdberr.New(sdberr.InvalidArgument, "invalid address format")
	}
	nBytes := 32
	if len(args) == 4 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return sdberr.New(sdberr.InvalidArgument, "invalid number of bytes")
		}
		nBytes = n
	}

	data, err := s.target.Inferior().ReadMemory(a, nBytes)
	if err != nil {
		return err
	}
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Printf("%#016x: % x\n", a.Addr()+uint64(i), data[i:end])
	}
	return nil
}

func (s *session) handleMemoryWrite(args []string) error {
	if len(args) != 4 {
		printHelp([]string{"help", "memory"})
		return nil
	}
	a, err := parseHexAddr(args[2])
	if err != nil {
		return sdberr.New(sdberr.InvalidArgument, "invalid address format")
	}
	val, err := parseVector(args[3])
	if err != nil {
		return err
	}
	return s.target.Inferior().WriteMemory(a, val.Bytes())
}

func (s *session) handleDisassembleCommand(args []string) error {
	pc, err := s.target.Inferior().GetPC()
	if err != nil {
		return err
	}
	n := 5
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[1]); err == nil {
			n = v
		}
	}
	d := disasm.New(s.target.Inferior())
	insts, err := d.Disassemble(n, pc)
	if err != nil {
		return err
	}
	for _, in := range insts {
		fmt.Println(disasm.FormatInstruction(in))
	}
	return nil
}
