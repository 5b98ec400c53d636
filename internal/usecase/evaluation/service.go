package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"axcouncil/internal/bootstrap/logging"
	domaineval "axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

// Service is the evaluation job orchestrator: it owns job creation,
// dispatch to the external scrape worker, and the status state machine
// the worker reports back into.
type Service struct {
	jobs       ports.JobRepository
	dispatcher ports.Dispatcher
}

func NewService(jobs ports.JobRepository, dispatcher ports.Dispatcher) *Service {
	return &Service{
		jobs:       jobs,
		dispatcher: dispatcher,
	}
}

type CreateJobInput struct {
	SubjectURL string
	Audience   domaineval.TargetAudience
	UserID     *string
}

// CreateJob validates and persists a new pending job. The scrape work is
// not awaited; callers dispatch separately and poll for status.
func (s *Service) CreateJob(ctx context.Context, input CreateJobInput) (ports.EvaluationJob, error) {
	if ctx == nil {
		return ports.EvaluationJob{}, errors.New("context is required")
	}
	if s.jobs == nil {
		return ports.EvaluationJob{}, errors.New("job repository is required")
	}

	subjectURL, err := domaineval.NormalizeSubjectURL(input.SubjectURL)
	if err != nil {
		return ports.EvaluationJob{}, err
	}
	if input.Audience.Empty() {
		return ports.EvaluationJob{}, domaineval.ErrAudienceRequired
	}

	audienceJSON, err := json.Marshal(input.Audience)
	if err != nil {
		return ports.EvaluationJob{}, errs.Wrap(err, "marshal audience")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	job := ports.EvaluationJob{
		JobID:        uuid.NewString(),
		SubjectURL:   subjectURL,
		AudienceJSON: string(audienceJSON),
		UserID:       input.UserID,
		Status:       domaineval.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return ports.EvaluationJob{}, errs.Wrap(err, "persist evaluation job")
	}

	logging.Info(ctx, "evaluation job created",
		slog.String("job_id", job.JobID),
		slog.String("subject_url", subjectURL),
	)
	return job, nil
}

// Dispatch hands the job to the external worker. On failure the job row
// stays pending so the caller can retry the dispatch.
func (s *Service) Dispatch(ctx context.Context, jobID string) error {
	if s.dispatcher == nil {
		return errors.New("dispatcher is required")
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	var audience domaineval.TargetAudience
	if err := json.Unmarshal([]byte(job.AudienceJSON), &audience); err != nil {
		return errs.Wrap(err, "unmarshal stored audience")
	}

	if err := s.dispatcher.Dispatch(ctx, ports.DispatchRequest{
		JobID:      job.JobID,
		SubjectURL: job.SubjectURL,
		Audience:   audience,
	}); err != nil {
		logging.Warn(ctx, "job dispatch failed",
			slog.String("job_id", jobID),
			slog.Any("err", errs.Loggable(err)),
		)
		return fmt.Errorf("%w: %v", domaineval.ErrDispatchFailed, err)
	}

	logging.Info(ctx, "job dispatched", slog.String("job_id", jobID))
	return nil
}

type ReportStatusInput struct {
	Status     domaineval.Status
	ResultJSON *string
	ErrorText  *string
}

// ReportStatus applies one worker-reported transition. Moves the state
// machine only along pending->processing->{completed,failed} (plus
// pending->failed); anything else fails with ErrInvalidTransition and
// leaves the stored row untouched.
func (s *Service) ReportStatus(ctx context.Context, jobID string, input ReportStatusInput) (ports.EvaluationJob, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return ports.EvaluationJob{}, err
	}

	to := input.Status
	if !domaineval.CanTransition(job.Status, to) {
		return ports.EvaluationJob{}, fmt.Errorf("%w: %s -> %s", domaineval.ErrInvalidTransition, job.Status, to)
	}
	if to == domaineval.StatusCompleted && input.ResultJSON == nil {
		return ports.EvaluationJob{}, errs.Wrap(domaineval.ErrInvalidTransition, "completed requires a result")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	transition := ports.JobTransition{
		From:       job.Status,
		To:         to,
		ResultJSON: input.ResultJSON,
		ErrorText:  input.ErrorText,
		UpdatedAt:  now,
	}
	if to.Terminal() {
		transition.CompletedAt = &now
	}

	applied, err := s.jobs.TransitionJob(ctx, jobID, transition)
	if err != nil {
		return ports.EvaluationJob{}, errs.Wrap(err, "apply status transition")
	}
	if !applied {
		// A concurrent reporter moved the job first; the stored state wins.
		return ports.EvaluationJob{}, fmt.Errorf("%w: job %s no longer %s", domaineval.ErrInvalidTransition, jobID, job.Status)
	}

	logging.Info(ctx, "job status reported",
		slog.String("job_id", jobID),
		slog.String("from", string(job.Status)),
		slog.String("to", string(to)),
	)
	return s.jobs.GetJob(ctx, jobID)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (ports.EvaluationJob, error) {
	return s.jobs.GetJob(ctx, jobID)
}

// Claim attaches a user to an anonymous job, once. No credit is charged;
// anonymous evaluations stay free after claiming.
func (s *Service) Claim(ctx context.Context, jobID string, userID string) (ports.EvaluationJob, error) {
	if userID == "" {
		return ports.EvaluationJob{}, errors.New("user id is required")
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return ports.EvaluationJob{}, err
	}
	if job.UserID != nil {
		return ports.EvaluationJob{}, domaineval.ErrAlreadyClaimed
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	claimed, err := s.jobs.ClaimJob(ctx, jobID, userID, now)
	if err != nil {
		return ports.EvaluationJob{}, errs.Wrap(err, "claim job")
	}
	if !claimed {
		return ports.EvaluationJob{}, domaineval.ErrAlreadyClaimed
	}

	logging.Info(ctx, "job claimed", slog.String("job_id", jobID), slog.String("user_id", userID))
	return s.jobs.GetJob(ctx, jobID)
}
