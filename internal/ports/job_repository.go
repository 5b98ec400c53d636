package ports

import (
	"context"

	"axcouncil/internal/domain/evaluation"
)

// EvaluationJob is the repository-facing row shape for a scrape+analysis
// job. Timestamps are RFC3339Nano strings, matching storage.
type EvaluationJob struct {
	JobID        string
	SubjectURL   string
	AudienceJSON string
	UserID       *string
	Status       evaluation.Status
	ResultJSON   *string
	ErrorText    *string
	CreatedAt    string
	UpdatedAt    string
	CompletedAt  *string
}

// JobTransition is one guarded status move. Result/ErrorText are only
// written when moving to completed/failed respectively.
type JobTransition struct {
	From        evaluation.Status
	To          evaluation.Status
	ResultJSON  *string
	ErrorText   *string
	UpdatedAt   string
	CompletedAt *string
}

type JobRepository interface {
	CreateJob(ctx context.Context, job EvaluationJob) error
	GetJob(ctx context.Context, jobID string) (EvaluationJob, error)

	// TransitionJob applies the move only when the stored status still
	// equals t.From; reports whether a row changed.
	TransitionJob(ctx context.Context, jobID string, t JobTransition) (bool, error)

	// ClaimJob attaches the user only while user_id is NULL; reports
	// whether the claim landed.
	ClaimJob(ctx context.Context, jobID string, userID string, updatedAt string) (bool, error)
}
