package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/errs"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Run and inspect panelist evaluations",
}

var panelRunCmd = &cobra.Command{
	Use:   "run <job-id> <model-id>",
	Short: "Run one panelist model over an evaluation",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		args := cmd.Flags().Args()
		row, err := svcs.Panels.Start(ctx, args[0], args[1])
		if err != nil {
			return errs.Wrap(err, "run panelist")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "panelist %s: %s\n", row.ModelID, row.Status)
		if row.Score != nil {
			fmt.Fprintf(out, "score: %d  anps: %d\n", *row.Score, *row.ANPS)
		}
		if row.ErrorText != nil {
			fmt.Fprintf(out, "error: %s\n", *row.ErrorText)
		}
		return nil
	}),
}

var panelStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show every panelist's progress for an evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		rows, err := svcs.Panels.ListStatuses(ctx, cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "list panel statuses")
		}

		out := cmd.OutOrStdout()
		for _, row := range rows {
			line := fmt.Sprintf("%-20s %s", row.ModelID, row.Status)
			if row.Score != nil {
				line += fmt.Sprintf("  score=%d anps=%d", *row.Score, *row.ANPS)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(panelCmd)
	panelCmd.AddCommand(panelRunCmd, panelStatusCmd)
}
