package panel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"axcouncil/internal/bootstrap/config"
	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
	ledgeruc "axcouncil/internal/usecase/ledger"
)

// Service coordinates one panelist model's pass over an evaluation:
// admit, ask the provider, persist the verdict, bill the owner.
type Service struct {
	jobs     ports.JobRepository
	panels   ports.PanelRepository
	roster   config.Roster
	provider ports.OpinionProvider
	credits  *ledgeruc.Service
}

func NewService(jobs ports.JobRepository, panels ports.PanelRepository, roster config.Roster, provider ports.OpinionProvider, credits *ledgeruc.Service) *Service {
	return &Service{
		jobs:     jobs,
		panels:   panels,
		roster:   roster,
		provider: provider,
		credits:  credits,
	}
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Start runs one panelist over one evaluation. A provider or parse
// failure is recorded as the panelist's failed verdict, not surfaced as
// an error; only infrastructure trouble is.
func (s *Service) Start(ctx context.Context, evaluationID, modelID string) (ports.PanelEvaluation, error) {
	job, err := s.jobs.GetJob(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, evaluation.ErrJobNotFound) {
			return ports.PanelEvaluation{}, evaluation.ErrEvaluationNotFound
		}
		return ports.PanelEvaluation{}, err
	}

	panelist, ok := s.roster.Find(modelID)
	if !ok {
		return ports.PanelEvaluation{}, evaluation.ErrModelNotFound
	}

	admitted, err := s.panels.BeginProcessing(ctx, evaluationID, modelID, stamp())
	if err != nil {
		return ports.PanelEvaluation{}, errs.Wrap(err, "admit panel evaluation")
	}
	if !admitted {
		return ports.PanelEvaluation{}, evaluation.ErrAlreadyInProgress
	}

	raw, err := s.provider.GetOpinion(ctx, ports.OpinionRequest{
		Model:     panelist.ProviderModel,
		Subject:   subjectFor(job),
		MaxTokens: panelist.MaxTokens,
	})
	if err != nil {
		return s.fail(ctx, evaluationID, modelID, "provider call failed: "+err.Error())
	}

	opinion, err := parseOpinion(raw)
	if err != nil {
		return s.fail(ctx, evaluationID, modelID, "unparseable opinion: "+err.Error())
	}

	opinionJSON, err := json.Marshal(opinion)
	if err != nil {
		return ports.PanelEvaluation{}, errs.Wrap(err, "encode opinion")
	}

	now := stamp()
	row := ports.PanelEvaluation{
		EvaluationID: evaluationID,
		ModelID:      modelID,
		Status:       evaluation.StatusCompleted,
		Score:        &opinion.Score,
		ANPS:         &opinion.ANPS,
		OpinionJSON:  ptr(string(opinionJSON)),
		RawResponse:  &raw,
		UpdatedAt:    now,
		CompletedAt:  &now,
	}
	if err := s.panels.CompletePanel(ctx, row); err != nil {
		return ports.PanelEvaluation{}, errs.Wrap(err, "complete panel evaluation")
	}

	s.bill(ctx, job, modelID)

	stored, _, err := s.panels.GetPanel(ctx, evaluationID, modelID)
	if err != nil {
		return row, nil
	}
	return stored, nil
}

// subjectFor prefers the worker's scraped analysis payload; before the
// worker reports, the panelist gets only the URL.
func subjectFor(job ports.EvaluationJob) string {
	if job.ResultJSON != nil && *job.ResultJSON != "" {
		return *job.ResultJSON
	}
	return job.SubjectURL
}

func (s *Service) fail(ctx context.Context, evaluationID, modelID, reason string) (ports.PanelEvaluation, error) {
	logging.Warn(ctx, "panel evaluation failed",
		slog.String("evaluation_id", evaluationID),
		slog.String("model_id", modelID),
		slog.String("reason", reason),
	)
	if err := s.panels.FailPanel(ctx, evaluationID, modelID, reason, stamp()); err != nil {
		return ports.PanelEvaluation{}, errs.Wrap(err, "record panel failure")
	}
	row, _, err := s.panels.GetPanel(ctx, evaluationID, modelID)
	if err != nil {
		return ports.PanelEvaluation{}, err
	}
	return row, nil
}

// bill charges one credit per completed panelist verdict to the job's
// owner. An unclaimed job is free; a failed debit never unwinds the
// stored verdict.
func (s *Service) bill(ctx context.Context, job ports.EvaluationJob, modelID string) {
	if job.UserID == nil || *job.UserID == "" {
		return
	}
	if _, err := s.credits.Debit(ctx, *job.UserID, 1, "panel evaluation "+job.JobID+" by "+modelID); err != nil {
		logging.Warn(ctx, "panel billing failed",
			slog.String("evaluation_id", job.JobID),
			slog.String("user_id", *job.UserID),
			slog.Any("error", err),
		)
	}
}

// GetStatus reports one panelist's row, synthesizing a pending row when
// the panelist has not been started yet.
func (s *Service) GetStatus(ctx context.Context, evaluationID, modelID string) (ports.PanelEvaluation, error) {
	if _, ok := s.roster.Find(modelID); !ok {
		return ports.PanelEvaluation{}, evaluation.ErrModelNotFound
	}

	row, found, err := s.panels.GetPanel(ctx, evaluationID, modelID)
	if err != nil {
		return ports.PanelEvaluation{}, err
	}
	if !found {
		return ports.PanelEvaluation{
			EvaluationID: evaluationID,
			ModelID:      modelID,
			Status:       evaluation.StatusPending,
		}, nil
	}
	return row, nil
}

// ListStatuses reports every enabled panelist's row for the evaluation,
// pending placeholders included, in roster order.
func (s *Service) ListStatuses(ctx context.Context, evaluationID string) ([]ports.PanelEvaluation, error) {
	rows, err := s.panels.ListPanels(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	byModel := make(map[string]ports.PanelEvaluation, len(rows))
	for _, row := range rows {
		byModel[row.ModelID] = row
	}

	enabled := s.roster.Enabled()
	out := make([]ports.PanelEvaluation, 0, len(enabled))
	for _, m := range enabled {
		if row, ok := byModel[m.ID]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, ports.PanelEvaluation{
			EvaluationID: evaluationID,
			ModelID:      m.ID,
			Status:       evaluation.StatusPending,
		})
	}
	return out, nil
}

// AllTerminal reports whether every enabled panelist has reached a
// terminal state for the evaluation.
func (s *Service) AllTerminal(ctx context.Context, evaluationID string) (bool, error) {
	rows, err := s.ListStatuses(ctx, evaluationID)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if !row.Status.Terminal() {
			return false, nil
		}
	}
	return true, nil
}

func ptr[T any](v T) *T {
	return &v
}
