package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/errs"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Inspect and adjust credit accounts",
}

var creditsBalanceCmd = &cobra.Command{
	Use:   "balance <user-id>",
	Short: "Show a user's credit balance",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID := cmd.Flags().Args()[0]
		balance, err := svcs.Credits.GetBalance(ctx, userID)
		if err != nil {
			return errs.Wrap(err, "get balance")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", userID, balance)
		return nil
	}),
}

var creditsSetCmd = &cobra.Command{
	Use:   "set <user-id> <balance>",
	Short: "Administratively override a user's balance",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		args := cmd.Flags().Args()
		target, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return errs.Wrap(err, "parse balance")
		}

		balance, err := svcs.Credits.SetBalance(ctx, args[0], target)
		if err != nil {
			return errs.Wrap(err, "set balance")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", args[0], balance)
		return nil
	}),
}

var creditsHistoryCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "List a user's credit transactions",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		txs, err := svcs.Credits.ListTransactions(ctx, cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "list transactions")
		}

		out := cmd.OutOrStdout()
		for _, tx := range txs {
			fmt.Fprintf(out, "%s  %+d  %-10s balance=%d  %s\n",
				tx.CreatedAt, tx.Amount, tx.Kind, tx.BalanceAfter, tx.Description)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(creditsCmd)
	creditsCmd.AddCommand(creditsBalanceCmd, creditsSetCmd, creditsHistoryCmd)
}
