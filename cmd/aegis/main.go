// Package main provides the aegis CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/aegis/internal/autonomy"
)

var (
	version = "0.1.0"
	pretty  = true

	autonomyFlag string
	rulesFlag    string
	sessionFlag  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aegis [prompt...]",
		Short: "Autonomous agent runtime with a graduated trust model",
		Long: `aegis runs a locally hosted language model against this machine
under a graduated, auditable trust model.

Usage modes:
  aegis                      Interactive session (REPL on a terminal,
                             whole stdin as one prompt otherwise)
  aegis <prompt...>          Run one prompt and exit
  aegis <command>            Run a specific aegis command (see below)

The autonomy level bounds what the model can touch:
  none       no tools at all
  observe    read-only tools inside the workspace
  workspace  read and write inside the workspace
  home       workspace plus home directory and web fetches
  full       unsandboxed shell, no path confinement

The --autonomy flag (or AEGIS_AUTONOMY) overrides the configured level
for this session only; it is never written back.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(args) > 0 {
				return rt.RunOnce(cmd.Context(), strings.Join(args, " "))
			}
			return rt.RunInteractive(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Additional policy rule file")
	rootCmd.Flags().StringVar(&autonomyFlag, "autonomy", "",
		"Session autonomy level ("+strings.Join(autonomy.LevelNames(), "|")+")")
	rootCmd.Flags().StringVar(&sessionFlag, "session", "", "Resume an existing session by id")

	rootCmd.AddCommand(
		policyCmd(),
		auditCmd(),
		sessionsCmd(),
		sandboxExecCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("aegis %s\n", version)
		},
	}
}
