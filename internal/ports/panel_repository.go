package ports

import (
	"context"

	"axcouncil/internal/domain/evaluation"
)

// PanelEvaluation is one (evaluation, model) opinion row. Retries upsert
// over the same composite key.
type PanelEvaluation struct {
	EvaluationID string
	ModelID      string
	Status       evaluation.Status
	Score        *int
	ANPS         *int
	OpinionJSON  *string
	RawResponse  *string
	ErrorText    *string
	CreatedAt    string
	UpdatedAt    string
	CompletedAt  *string
}

// CouncilResult is the persisted consensus for one evaluation. Recompute
// overwrites in place; there is no row-level locking beyond that.
type CouncilResult struct {
	EvaluationID        string
	Score               int
	ANPS                int
	RecommendationsJSON string
	ModelScoresJSON     string
	Agreement           string
	ComputedAt          string
}

type PanelRepository interface {
	// BeginProcessing upserts the pair into processing unless the stored
	// row is already processing; reports whether the guard admitted it.
	BeginProcessing(ctx context.Context, evaluationID, modelID string, now string) (bool, error)

	CompletePanel(ctx context.Context, row PanelEvaluation) error
	FailPanel(ctx context.Context, evaluationID, modelID string, errorText string, now string) error

	GetPanel(ctx context.Context, evaluationID, modelID string) (PanelEvaluation, bool, error)
	ListPanels(ctx context.Context, evaluationID string) ([]PanelEvaluation, error)
}

type CouncilRepository interface {
	SaveCouncilResult(ctx context.Context, result CouncilResult) error
	GetCouncilResult(ctx context.Context, evaluationID string) (CouncilResult, bool, error)
}
