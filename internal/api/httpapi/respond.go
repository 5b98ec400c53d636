package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"axcouncil/internal/bootstrap/logging"
	domaincouncil "axcouncil/internal/domain/council"
	domaineval "axcouncil/internal/domain/evaluation"
	domainledger "axcouncil/internal/domain/ledger"
	domainpromo "axcouncil/internal/domain/promo"
	billinguc "axcouncil/internal/usecase/billing"
	counciluc "axcouncil/internal/usecase/council"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is an internal error and its detail stays out of the
// response body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Error(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domaineval.ErrJobNotFound),
		errors.Is(err, domaineval.ErrEvaluationNotFound),
		errors.Is(err, domaineval.ErrModelNotFound),
		errors.Is(err, domainpromo.ErrCodeNotFound),
		errors.Is(err, counciluc.ErrResultNotFound):
		return http.StatusNotFound

	case errors.Is(err, domaineval.ErrSubjectURLRequired),
		errors.Is(err, domaineval.ErrInvalidSubjectURL),
		errors.Is(err, domaineval.ErrAudienceRequired),
		errors.Is(err, domaineval.ErrInvalidStatus),
		errors.Is(err, domainledger.ErrInvalidAmount),
		errors.Is(err, billinguc.ErrMissingExternalRef),
		errors.Is(err, billinguc.ErrMissingUser),
		errors.Is(err, domainpromo.ErrInvalidPercentage),
		errors.Is(err, domainpromo.ErrInvalidValue):
		return http.StatusBadRequest

	case errors.Is(err, domaineval.ErrInvalidTransition),
		errors.Is(err, domaineval.ErrAlreadyClaimed),
		errors.Is(err, domaineval.ErrAlreadyInProgress),
		errors.Is(err, domainpromo.ErrAlreadyRedeemed),
		errors.Is(err, domaincouncil.ErrIncomplete):
		return http.StatusConflict

	case errors.Is(err, domainpromo.ErrCodeInactive),
		errors.Is(err, domainpromo.ErrCodeExpired),
		errors.Is(err, domainpromo.ErrCodeExhausted),
		errors.Is(err, domainpromo.ErrBelowMinimumPurchase),
		errors.Is(err, domainledger.ErrInsufficientBalance),
		errors.Is(err, domaincouncil.ErrNoQuorum):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domainpromo.ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, domaineval.ErrDispatchFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

func jsonUnmarshal(raw string, into any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), into)
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}
