package council

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"axcouncil/internal/bootstrap/logging"
	domaincouncil "axcouncil/internal/domain/council"
	"axcouncil/internal/domain/evaluation"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
	paneluc "axcouncil/internal/usecase/panel"
)

// Service folds the panelists' verdicts into one stored consensus.
type Service struct {
	panels  *paneluc.Service
	results ports.CouncilRepository
}

func NewService(panels *paneluc.Service, results ports.CouncilRepository) *Service {
	return &Service{
		panels:  panels,
		results: results,
	}
}

// Aggregate computes and stores the consensus for an evaluation whose
// panelists have all finished. Re-running over unchanged verdicts
// returns the stored result untouched, so the computed-at stamp only
// moves when the inputs do.
func (s *Service) Aggregate(ctx context.Context, evaluationID string) (ports.CouncilResult, error) {
	rows, err := s.panels.ListStatuses(ctx, evaluationID)
	if err != nil {
		return ports.CouncilResult{}, err
	}

	opinions := make([]domaincouncil.Opinion, 0, len(rows))
	for _, row := range rows {
		if !row.Status.Terminal() {
			return ports.CouncilResult{}, domaincouncil.ErrIncomplete
		}
		if row.Status != evaluation.StatusCompleted {
			continue
		}
		opinions = append(opinions, opinionFrom(ctx, row))
	}

	consensus, err := domaincouncil.Aggregate(opinions)
	if err != nil {
		return ports.CouncilResult{}, err
	}

	recommendationsJSON, err := json.Marshal(consensus.Recommendations)
	if err != nil {
		return ports.CouncilResult{}, errs.Wrap(err, "encode recommendations")
	}
	modelScoresJSON, err := json.Marshal(consensus.ModelScores)
	if err != nil {
		return ports.CouncilResult{}, errs.Wrap(err, "encode model scores")
	}

	result := ports.CouncilResult{
		EvaluationID:        evaluationID,
		Score:               consensus.Score,
		ANPS:                consensus.ANPS,
		RecommendationsJSON: string(recommendationsJSON),
		ModelScoresJSON:     string(modelScoresJSON),
		Agreement:           string(consensus.Agreement),
	}

	existing, found, err := s.results.GetCouncilResult(ctx, evaluationID)
	if err != nil {
		return ports.CouncilResult{}, err
	}
	if found && sameResult(existing, result) {
		return existing, nil
	}

	result.ComputedAt = time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.results.SaveCouncilResult(ctx, result); err != nil {
		return ports.CouncilResult{}, errs.Wrap(err, "save council result")
	}

	logging.Info(ctx, "council consensus stored",
		slog.String("evaluation_id", evaluationID),
		slog.Int("score", result.Score),
		slog.Int("anps", result.ANPS),
		slog.String("agreement", result.Agreement),
		slog.Int("panelists", len(opinions)),
	)
	return result, nil
}

// opinionFrom rebuilds a completed panelist's opinion from its stored
// row. A row whose stored JSON no longer decodes contributes its score
// and ANPS without recommendations.
func opinionFrom(ctx context.Context, row ports.PanelEvaluation) domaincouncil.Opinion {
	opinion := domaincouncil.Opinion{ModelID: row.ModelID}
	if row.Score != nil {
		opinion.Score = *row.Score
	}
	if row.ANPS != nil {
		opinion.ANPS = *row.ANPS
	}
	if row.OpinionJSON == nil {
		return opinion
	}

	var stored struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(*row.OpinionJSON), &stored); err != nil {
		logging.Warn(ctx, "stored opinion no longer decodes",
			slog.String("evaluation_id", row.EvaluationID),
			slog.String("model_id", row.ModelID),
		)
		return opinion
	}
	opinion.Recommendations = stored.Recommendations
	return opinion
}

func sameResult(a, b ports.CouncilResult) bool {
	return a.Score == b.Score &&
		a.ANPS == b.ANPS &&
		a.Agreement == b.Agreement &&
		a.RecommendationsJSON == b.RecommendationsJSON &&
		a.ModelScoresJSON == b.ModelScoresJSON
}

var ErrResultNotFound = errors.New("council result not found")

func (s *Service) GetResult(ctx context.Context, evaluationID string) (ports.CouncilResult, error) {
	result, found, err := s.results.GetCouncilResult(ctx, evaluationID)
	if err != nil {
		return ports.CouncilResult{}, err
	}
	if !found {
		return ports.CouncilResult{}, ErrResultNotFound
	}
	return result, nil
}
