package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"axcouncil/internal/ports"
)

type panelView struct {
	EvaluationID string   `json:"evaluation_id"`
	ModelID      string   `json:"model_id"`
	Status       string   `json:"status"`
	Score        *int     `json:"score,omitempty"`
	ANPS         *int     `json:"anps,omitempty"`
	Opinion      *string  `json:"opinion,omitempty"`
	Error        *string  `json:"error,omitempty"`
	CompletedAt  *string  `json:"completed_at,omitempty"`
}

func panelViewFrom(row ports.PanelEvaluation) panelView {
	return panelView{
		EvaluationID: row.EvaluationID,
		ModelID:      row.ModelID,
		Status:       string(row.Status),
		Score:        row.Score,
		ANPS:         row.ANPS,
		Opinion:      row.OpinionJSON,
		Error:        row.ErrorText,
		CompletedAt:  row.CompletedAt,
	}
}

func (s *Server) startPanel(w http.ResponseWriter, r *http.Request) {
	row, err := s.panels.Start(r.Context(), chi.URLParam(r, "jobID"), chi.URLParam(r, "modelID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panelViewFrom(row))
}

func (s *Server) getPanelStatus(w http.ResponseWriter, r *http.Request) {
	row, err := s.panels.GetStatus(r.Context(), chi.URLParam(r, "jobID"), chi.URLParam(r, "modelID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panelViewFrom(row))
}

func (s *Server) listPanelStatuses(w http.ResponseWriter, r *http.Request) {
	rows, err := s.panels.ListStatuses(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]panelView, 0, len(rows))
	for _, row := range rows {
		views = append(views, panelViewFrom(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"panels": views})
}

type councilView struct {
	EvaluationID    string         `json:"evaluation_id"`
	Score           int            `json:"score"`
	ANPS            int            `json:"anps"`
	Recommendations []string       `json:"recommendations"`
	ModelScores     map[string]int `json:"model_scores"`
	Agreement       string         `json:"agreement"`
	ComputedAt      string         `json:"computed_at"`
}

func councilViewFrom(result ports.CouncilResult) councilView {
	view := councilView{
		EvaluationID: result.EvaluationID,
		Score:        result.Score,
		ANPS:         result.ANPS,
		Agreement:    result.Agreement,
		ComputedAt:   result.ComputedAt,
	}
	_ = jsonUnmarshal(result.RecommendationsJSON, &view.Recommendations)
	_ = jsonUnmarshal(result.ModelScoresJSON, &view.ModelScores)
	return view
}

func (s *Server) aggregateCouncil(w http.ResponseWriter, r *http.Request) {
	result, err := s.councils.Aggregate(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, councilViewFrom(result))
}

func (s *Server) getCouncilResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.councils.GetResult(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, councilViewFrom(result))
}
