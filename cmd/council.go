package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"axcouncil/internal/bootstrap/logging"
	domaincouncil "axcouncil/internal/domain/council"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

var councilCmd = &cobra.Command{
	Use:   "council",
	Short: "Aggregate and inspect council consensus",
}

var councilAggregateCmd = &cobra.Command{
	Use:   "aggregate <job-id>",
	Short: "Fold finished panelist verdicts into the consensus",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		result, err := svcs.Councils.Aggregate(ctx, cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "aggregate council")
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCouncil(result))
		return nil
	}),
}

var councilShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show the stored consensus for an evaluation",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		result, err := svcs.Councils.GetResult(ctx, cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "get council result")
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCouncil(result))
		return nil
	}),
}

func renderCouncil(result ports.CouncilResult) string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	agreementStyle := lipgloss.NewStyle().Bold(true).Foreground(agreementColor(result.Agreement))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Council consensus "+result.EvaluationID) + "\n")
	b.WriteString(fmt.Sprintf("score %d  anps %d  agreement %s\n",
		result.Score, result.ANPS, agreementStyle.Render(result.Agreement)))
	b.WriteString(dimStyle.Render("computed at "+result.ComputedAt) + "\n")

	var scores map[string]int
	if err := jsonDecode(result.ModelScoresJSON, &scores); err == nil && len(scores) > 0 {
		b.WriteString(sectionStyle.Render("Panelists") + "\n")
		ids := make([]string, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			b.WriteString(fmt.Sprintf("  %-20s %d\n", id, scores[id]))
		}
	}

	var recommendations []string
	if err := jsonDecode(result.RecommendationsJSON, &recommendations); err == nil && len(recommendations) > 0 {
		b.WriteString(sectionStyle.Render("Recommendations") + "\n")
		for _, rec := range recommendations {
			b.WriteString("  - " + rec + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func jsonDecode(raw string, into any) error {
	return json.Unmarshal([]byte(raw), into)
}

func agreementColor(agreement string) lipgloss.Color {
	switch domaincouncil.Agreement(agreement) {
	case domaincouncil.AgreementHigh:
		return lipgloss.Color("42")
	case domaincouncil.AgreementMedium:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("203")
	}
}

func init() {
	rootCmd.AddCommand(councilCmd)
	councilCmd.AddCommand(councilAggregateCmd, councilShowCmd)
}
