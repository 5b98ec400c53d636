package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domaineval "axcouncil/internal/domain/evaluation"
	"axcouncil/internal/ports"
	evaluationuc "axcouncil/internal/usecase/evaluation"
)

type evaluationView struct {
	JobID       string                    `json:"job_id"`
	SubjectURL  string                    `json:"subject_url"`
	Audience    domaineval.TargetAudience `json:"audience"`
	UserID      *string                   `json:"user_id,omitempty"`
	Status      string                    `json:"status"`
	Result      *string                   `json:"result,omitempty"`
	Error       *string                   `json:"error,omitempty"`
	CreatedAt   string                    `json:"created_at"`
	UpdatedAt   string                    `json:"updated_at"`
	CompletedAt *string                   `json:"completed_at,omitempty"`
}

func evaluationViewFrom(job ports.EvaluationJob) evaluationView {
	view := evaluationView{
		JobID:       job.JobID,
		SubjectURL:  job.SubjectURL,
		UserID:      job.UserID,
		Status:      string(job.Status),
		Result:      job.ResultJSON,
		Error:       job.ErrorText,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	}
	// Stored audience JSON is trusted; a decode miss leaves it empty.
	_ = jsonUnmarshal(job.AudienceJSON, &view.Audience)
	return view
}

type createEvaluationRequest struct {
	SubjectURL string                    `json:"subject_url"`
	Audience   domaineval.TargetAudience `json:"audience"`
	UserID     *string                   `json:"user_id,omitempty"`
	Dispatch   bool                      `json:"dispatch,omitempty"`
}

func (s *Server) createEvaluation(w http.ResponseWriter, r *http.Request) {
	var req createEvaluationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := s.evaluations.CreateJob(r.Context(), evaluationuc.CreateJobInput{
		SubjectURL: req.SubjectURL,
		Audience:   req.Audience,
		UserID:     req.UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Dispatch {
		if err := s.evaluations.Dispatch(r.Context(), job.JobID); err != nil {
			// The job row exists and stays pending; the caller can
			// re-dispatch, so surface the failure with the job attached.
			writeJSON(w, statusFor(err), map[string]any{
				"error":      err.Error(),
				"evaluation": evaluationViewFrom(job),
			})
			return
		}
	}
	writeJSON(w, http.StatusCreated, evaluationViewFrom(job))
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	job, err := s.evaluations.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationViewFrom(job))
}

func (s *Server) dispatchEvaluation(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.evaluations.Dispatch(r.Context(), jobID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "dispatched"})
}

type reportStatusRequest struct {
	Status string  `json:"status"`
	Result *string `json:"result,omitempty"`
	Error  *string `json:"error,omitempty"`
}

// reportStatus is the scrape worker's callback.
func (s *Server) reportStatus(w http.ResponseWriter, r *http.Request) {
	var req reportStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := domaineval.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := s.evaluations.ReportStatus(r.Context(), chi.URLParam(r, "jobID"), evaluationuc.ReportStatusInput{
		Status:     status,
		ResultJSON: req.Result,
		ErrorText:  req.Error,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationViewFrom(job))
}

type claimRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) claimEvaluation(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := s.evaluations.Claim(r.Context(), chi.URLParam(r, "jobID"), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationViewFrom(job))
}
