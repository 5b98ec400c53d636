package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	billinguc "axcouncil/internal/usecase/billing"
)

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	balance, err := s.credits.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "balance": balance})
}

type transactionView struct {
	Amount       int64   `json:"amount"`
	Kind         string  `json:"kind"`
	Description  string  `json:"description"`
	BalanceAfter int64   `json:"balance_after"`
	ExternalRef  *string `json:"external_ref,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	txs, err := s.credits.ListTransactions(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, transactionView{
			Amount:       tx.Amount,
			Kind:         string(tx.Kind),
			Description:  tx.Description,
			BalanceAfter: tx.BalanceAfter,
			ExternalRef:  tx.ExternalRef,
			CreatedAt:    tx.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "transactions": views})
}

type redeemVoucherRequest struct {
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

func (s *Server) redeemVoucher(w http.ResponseWriter, r *http.Request) {
	var req redeemVoucherRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// RealIP middleware has already unwrapped proxy headers.
	balance, err := s.promos.RedeemVoucher(r.Context(), req.Code, req.UserID, r.RemoteAddr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": req.UserID, "balance": balance})
}

type validateDiscountRequest struct {
	Code           string `json:"code"`
	PurchaseAmount *int64 `json:"purchase_amount,omitempty"`
}

func (s *Server) validateDiscount(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	discount, err := s.promos.ValidateDiscount(r.Context(), req.Code, req.PurchaseAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := map[string]any{
		"code":  discount.Code,
		"type":  string(discount.Type),
		"value": discount.Value,
	}
	if req.PurchaseAmount != nil {
		body["payable"] = s.promos.CalculateDiscount(discount, *req.PurchaseAmount)
	}
	writeJSON(w, http.StatusOK, body)
}

type paymentEventRequest struct {
	ExternalRef    string `json:"external_ref"`
	UserID         string `json:"user_id"`
	Credits        int64  `json:"credits"`
	PurchaseAmount int64  `json:"purchase_amount"`
	PaidAmount     int64  `json:"paid_amount"`
	DiscountCode   string `json:"discount_code,omitempty"`
	ReferralCode   string `json:"referral_code,omitempty"`
}

// paymentEvent is the payment provider's webhook. Duplicate deliveries
// are acknowledged with 200 so the provider stops retrying.
func (s *Server) paymentEvent(w http.ResponseWriter, r *http.Request) {
	var req paymentEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	processed, err := s.billing.Process(r.Context(), billinguc.PaymentEvent{
		ExternalRef:    req.ExternalRef,
		UserID:         req.UserID,
		Credits:        req.Credits,
		PurchaseAmount: req.PurchaseAmount,
		PaidAmount:     req.PaidAmount,
		DiscountCode:   req.DiscountCode,
		ReferralCode:   req.ReferralCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"external_ref": req.ExternalRef,
		"processed":    processed,
	})
}
