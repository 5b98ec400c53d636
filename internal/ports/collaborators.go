package ports

import (
	"context"

	"axcouncil/internal/domain/evaluation"
)

// DispatchRequest is the payload handed to the external scrape worker.
type DispatchRequest struct {
	JobID      string                     `json:"job_id"`
	SubjectURL string                     `json:"subject_url"`
	Audience   evaluation.TargetAudience  `json:"audience"`
}

// Dispatcher triggers the external scrape+analysis worker. The attempt is
// fire-and-forget and at-most-once; the caller retries on error.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) error
}

// OpinionRequest asks one panelist model for an agent-experience opinion.
type OpinionRequest struct {
	Model     string
	Subject   string
	MaxTokens int
}

// OpinionProvider calls the model-serving API. It returns the raw
// response text; parsing is the coordinator's job.
type OpinionProvider interface {
	GetOpinion(ctx context.Context, req OpinionRequest) (string, error)
}
