package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joss/aegis/internal/sandbox"
)

// sandboxExecCmd is the hidden confinement helper. The shell tool and the
// subagent supervisor re-exec our own binary through it so both
// restrictions and the wall-clock ceiling live inside the child, applied
// before the payload runs and inherited by everything it starts.
func sandboxExecCmd() *cobra.Command {
	var writable []string
	var timeoutSecs int

	cmd := &cobra.Command{
		Use:    "sandbox-exec -- <argv...>",
		Short:  "Run a command under filesystem and syscall restriction",
		Hidden: true,
		Args:   cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			spec := sandbox.ExecSpec{
				Writable: writable,
				Timeout:  time.Duration(timeoutSecs) * time.Second,
				Argv:     args,
			}
			os.Exit(sandbox.Confine(spec, sandbox.New()))
		},
	}
	cmd.Flags().StringArrayVar(&writable, "writable", nil, "Path granted write access (repeatable)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Wall-clock ceiling in seconds, 0 disables")
	return cmd
}
