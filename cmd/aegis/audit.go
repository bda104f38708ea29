package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/aegis/internal/audit"
	"github.com/joss/aegis/internal/render"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit journal inspection",
		Long: `Read the append-only audit journal back.

Every tool and shell decision lands in the journal before its handler
runs, so the log is a reliable precondition trail for anything the agent
did or tried to do.`,
	}

	cmd.AddCommand(auditTailCmd(), auditPathCmd())
	return cmd
}

func auditTailCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the newest journal records",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := audit.Open()
			if err != nil {
				return err
			}
			defer journal.Close()

			records, err := journal.Tail(lines)
			if err != nil {
				return err
			}
			fmt.Print(render.New(pretty).AuditLines(records))
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of records to show")
	return cmd
}

func auditPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the active journal file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			journal, err := audit.Open()
			if err != nil {
				return err
			}
			defer journal.Close()

			fmt.Println(journal.Path())
			return nil
		},
	}
}
