package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"axcouncil/internal/bootstrap/logging"
	domaineval "axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
	evaluationuc "axcouncil/internal/usecase/evaluation"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage evaluation jobs",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an evaluation job and optionally dispatch it",
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		subjectURL, _ := cmd.Flags().GetString("url")
		ageRange, _ := cmd.Flags().GetString("age-range")
		gender, _ := cmd.Flags().GetString("gender")
		location, _ := cmd.Flags().GetString("location")
		occupation, _ := cmd.Flags().GetString("occupation")
		interests, _ := cmd.Flags().GetStringSlice("interest")
		userID, _ := cmd.Flags().GetString("user")
		dispatch, _ := cmd.Flags().GetBool("dispatch")

		input := evaluationuc.CreateJobInput{
			SubjectURL: subjectURL,
			Audience: domaineval.TargetAudience{
				AgeRange:   ageRange,
				Gender:     gender,
				Location:   location,
				Occupation: occupation,
				Interests:  interests,
			},
		}
		if userID != "" {
			input.UserID = &userID
		}

		job, err := svcs.Evaluations.CreateJob(ctx, input)
		if err != nil {
			return errs.Wrap(err, "create job")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job created: %s (%s)\n", job.JobID, job.SubjectURL)

		if dispatch {
			if err := svcs.Evaluations.Dispatch(ctx, job.JobID); err != nil {
				return errs.Wrap(err, "dispatch job")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job dispatched: %s\n", job.JobID)
		}
		return nil
	}),
}

var jobShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one evaluation job",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		job, err := svcs.Evaluations.GetJob(ctx, cmd.Flags().Args()[0])
		if err != nil {
			return errs.Wrap(err, "get job")
		}
		printJob(cmd, job)
		return nil
	}),
}

var jobDispatchCmd = &cobra.Command{
	Use:   "dispatch <job-id>",
	Short: "Hand a pending job to the scrape worker",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		jobID := cmd.Flags().Args()[0]
		if err := svcs.Evaluations.Dispatch(ctx, jobID); err != nil {
			return errs.Wrap(err, "dispatch job")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job dispatched: %s\n", jobID)
		return nil
	}),
}

var jobClaimCmd = &cobra.Command{
	Use:   "claim <job-id>",
	Short: "Attach a user to an anonymous job",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, svcs *appServices) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return errors.New("--user is required")
		}

		job, err := svcs.Evaluations.Claim(ctx, cmd.Flags().Args()[0], userID)
		if err != nil {
			return errs.Wrap(err, "claim job")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s claimed by %s\n", job.JobID, userID)
		return nil
	}),
}

func printJob(cmd *cobra.Command, job ports.EvaluationJob) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job:     %s\n", job.JobID)
	fmt.Fprintf(out, "subject: %s\n", job.SubjectURL)
	fmt.Fprintf(out, "status:  %s\n", job.Status)
	if job.UserID != nil {
		fmt.Fprintf(out, "user:    %s\n", *job.UserID)
	}
	if job.ErrorText != nil {
		fmt.Fprintf(out, "error:   %s\n", *job.ErrorText)
	}
	if job.CompletedAt != nil {
		fmt.Fprintf(out, "done at: %s\n", *job.CompletedAt)
	}
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobCreateCmd, jobShowCmd, jobDispatchCmd, jobClaimCmd)

	jobCreateCmd.Flags().String("url", "", "Subject site URL")
	jobCreateCmd.Flags().String("age-range", "", "Audience age range, e.g. 25-40")
	jobCreateCmd.Flags().String("gender", "", "Audience gender")
	jobCreateCmd.Flags().String("location", "", "Audience location")
	jobCreateCmd.Flags().String("occupation", "", "Audience occupation")
	jobCreateCmd.Flags().StringSlice("interest", nil, "Audience interest (repeatable)")
	jobCreateCmd.Flags().String("user", "", "Owning user id (omit for anonymous)")
	jobCreateCmd.Flags().Bool("dispatch", false, "Dispatch to the scrape worker immediately")
	_ = jobCreateCmd.MarkFlagRequired("url")

	jobClaimCmd.Flags().String("user", "", "Claiming user id")
	_ = jobClaimCmd.MarkFlagRequired("user")
}
