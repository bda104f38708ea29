package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/aegis/internal/config"
	"github.com/joss/aegis/internal/render"
	"github.com/joss/aegis/internal/session"
	"github.com/joss/aegis/internal/storage"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session store inspection",
		Long: `List and inspect stored agent sessions.

Every conversation turn is persisted; compaction folds old turns into a
single summary row when a session outgrows the context window.`,
	}

	cmd.AddCommand(sessionsListCmd(), sessionsShowCmd(), sessionsCompactCmd())
	return cmd
}

// openStore opens the session database read-write. Callers own Close.
func openStore() (*storage.Storage, error) {
	return storage.New(config.GetPaths().Data)
}

func sessionsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Print(render.New(pretty).Sessions(sessions))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session with its history and usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msgs, err := store.GetMessages(cmd.Context(), sess.ID)
			if err != nil {
				return err
			}
			usage, err := store.GetUsage(cmd.Context(), sess.ID)
			if err != nil {
				return err
			}
			fmt.Print(render.New(pretty).SessionDetail(sess, msgs, usage))
			return nil
		},
	}
}

func sessionsCompactCmd() *cobra.Command {
	var keepLast int

	cmd := &cobra.Command{
		Use:   "compact <id>",
		Short: "Fold old history into one summary message",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			folded, err := session.NewCompactor(store).Compact(cmd.Context(), args[0], keepLast)
			if err != nil {
				return err
			}
			fmt.Printf("Compacted %d messages\n", folded)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", session.DefaultKeepLast, "Newest messages left untouched")
	return cmd
}
