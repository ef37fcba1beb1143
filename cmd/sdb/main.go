// Command sdb is the interactive shell: attach to or launch a process,
// then drive it with breakpoint/watchpoint/register/memory/disassembly
// commands read from a chzyer/readline-backed REPL. Grounded on
// original_source/tools/sdb.cpp's command loop and command grammar. Cobra
// defines only the root command and its flags; the REPL's commands are
// dispatched by prefix matching in session.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gosdb/sdb/internal/logging"
	"github.com/gosdb/sdb/target"
)

var errLog = logging.New("sdb")

func main() {
	var attachPid int

	root := &cobra.Command{
		Use:   "sdb <program> [args...]",
		Short: "a native x86-64 Linux source-level debugger",
		Long:  "sdb launches or attaches to a process and lets you inspect and control its execution.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(attachPid, args)
		},
	}
	root.Flags().IntVarP(&attachPid, "pid", "p", 0, "attach to an already-running process by pid")
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		errLog.Print(err)
		os.Exit(1)
	}
}

func run(pid int, args []string) error {
	var tgt *target.Target
	var err error

	switch {
	case pid != 0:
		tgt, err = target.Attach(pid)
	case len(args) > 0:
		tgt, err = target.Launch(args[0], args[1:], nil)
	default:
		return fmt.Errorf("usage: sdb <program> [args...]  or  sdb --pid <pid>")
	}
	if err != nil {
		return err
	}
	defer tgt.Detach()

	sess := newSession(tgt)
	return sess.runREPL()
}
