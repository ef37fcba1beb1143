package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gosdb/sdb/inferior"
	"github.com/gosdb/sdb/target"
)

// session is the shell's REPL state: the target being debugged and the
// readline instance driving input, grounded on
// original_source/tools/sdb.cpp's main_loop and handle_command.
type session struct {
	target *target.Target
	rl     *readline.Instance
}

func newSession(t *target.Target) *session { return &session{target: t} }

func (s *session) runREPL() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "sdb> ",
		HistoryFile: "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	s.rl = rl

	var lastLine string
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if lastLine == "" {
				continue
			}
			trimmed = lastLine
		} else {
			lastLine = trimmed
		}

		if err := s.handleCommand(trimmed); err != nil {
			fmt.Println(err)
		}
	}
}

func isPrefix(of, full string) bool {
	return len(of) <= len(full) && strings.HasPrefix(full, of)
}

func (s *session) handleCommand(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	command := args[0]

	switch {
	case isPrefix(command, "continue"):
		if err := s.target.Inferior().Resume(); err != nil {
			return err
		}
		reason, err := s.target.Inferior().WaitOnSignal()
		if err != nil {
			return err
		}
		printStopReason(s.target.Inferior(), reason)
	case isPrefix(command, "step"):
		reason, err := s.target.Inferior().StepInstruction()
		if err != nil {
			return err
		}
		printStopReason(s.target.Inferior(), reason)
	case isPrefix(command, "register"):
		return s.handleRegisterCommand(args)
	case isPrefix(command, "breakpoint"):
		return s.handleBreakpointCommand(args)
	case isPrefix(command, "watchpoint"):
		return s.handleWatchpointCommand(args)
	case isPrefix(command, "memory"):
		return s.handleMemoryCommand(args)
	case isPrefix(command, "disassemble"):
		return s.handleDisassembleCommand(args)
	case isPrefix(command, "help"):
		printHelp(args)
	default:
		fmt.Println("unknown command")
	}
	return nil
}

func printStopReason(inf *inferior.Inferior, reason inferior.StopReason) {
	pc, _ := inf.GetPC()
	switch reason.State {
	case inferior.Stopped:
		fmt.Printf("Process %d stopped with signal %d at %s\n", inf.Pid(), reason.Info, pc)
	case inferior.Running:
		fmt.Println("running")
	case inferior.Exited:
		fmt.Printf("Process %d exited with status %d\n", inf.Pid(), reason.Info)
	case inferior.Terminated:
		fmt.Printf("Process %d terminated with signal %d\n", inf.Pid(), reason.Info)
	}
}

func printHelp(args []string) {
	if len(args) == 1 {
		fmt.Print(`Available commands:
breakpoint  - Commands for operating on breakpoints
watchpoint  - Commands for operating on watchpoints
continue    - Resume the process
memory      - Commands for operating on memory
register    - Commands for operating on registers
step        - Step over a single instruction
disassemble - Disassemble instructions
`)
		return
	}
	switch {
	case isPrefix(args[1], "register"):
		fmt.Print(`Available commands:
read
read <register>
read all
write <register> <value>
`)
	case isPrefix(args[1], "breakpoint"):
		fmt.Print(`Available commands:
list
delete <id>
disable <id>
enable <id>
set <address>
`)
	case isPrefix(args[1], "watchpoint"):
		fmt.Print(`Available commands:
list
delete <id>
set <address> <write|rw|execute> <size>
`)
	case isPrefix(args[1], "memory"):
		fmt.Print(`Available commands:
read <address>
read <address> <number of bytes>
write <address> <bytes>
`)
	default:
		fmt.Println("no help available on that")
	}
}
