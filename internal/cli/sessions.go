package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-attention/pkg/history"
	"github.com/teslashibe/go-attention/pkg/session"
)

var (
	sessionsLimit int

	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List finished sessions from history",
		Args:  cobra.NoArgs,
		RunE:  runSessions,
	}
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "maximum sessions to list (0 for all)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintln(out, "History is disabled (history.backend: none)")
		return nil
	}
	defer store.Close()

	sums, err := store.List(ctx, sessionsLimit)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tTOTAL\tATTENTIVE\tDISTRACTED\tDROWSY")
	for _, s := range sums {
		total := s.Total()
		fmt.Fprintf(tw, "%s\t%s\t%ss\t%s\t%s\t%s\n",
			s.SessionID,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			session.FormatSeconds(total),
			share(s.Attentive, total),
			share(s.Distracted, total),
			share(s.Drowsy, total),
		)
	}
	return tw.Flush()
}

func share(secs, total float64) string {
	if total == 0 {
		return session.FormatPercent(0)
	}
	return session.FormatPercent(secs / total * 100)
}
