package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	billinguc "axcouncil/internal/usecase/billing"
	counciluc "axcouncil/internal/usecase/council"
	evaluationuc "axcouncil/internal/usecase/evaluation"
	ledgeruc "axcouncil/internal/usecase/ledger"
	paneluc "axcouncil/internal/usecase/panel"
	promouc "axcouncil/internal/usecase/promo"
)

// Server is the HTTP surface: the worker callback endpoints plus the
// client-facing evaluation, credit, and promotion operations.
type Server struct {
	evaluations *evaluationuc.Service
	panels      *paneluc.Service
	councils    *counciluc.Service
	credits     *ledgeruc.Service
	promos      *promouc.Service
	billing     *billinguc.Service
}

func NewServer(
	evaluations *evaluationuc.Service,
	panels *paneluc.Service,
	councils *counciluc.Service,
	credits *ledgeruc.Service,
	promos *promouc.Service,
	billing *billinguc.Service,
) *Server {
	return &Server{
		evaluations: evaluations,
		panels:      panels,
		councils:    councils,
		credits:     credits,
		promos:      promos,
		billing:     billing,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/evaluations", func(r chi.Router) {
			r.Post("/", s.createEvaluation)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", s.getEvaluation)
				r.Post("/status", s.reportStatus)
				r.Post("/claim", s.claimEvaluation)
				r.Post("/dispatch", s.dispatchEvaluation)

				r.Get("/panel", s.listPanelStatuses)
				r.Post("/panel/{modelID}", s.startPanel)
				r.Get("/panel/{modelID}", s.getPanelStatus)

				r.Post("/council", s.aggregateCouncil)
				r.Get("/council", s.getCouncilResult)
			})
		})

		r.Route("/credits/{userID}", func(r chi.Router) {
			r.Get("/", s.getBalance)
			r.Get("/transactions", s.listTransactions)
		})

		r.Post("/vouchers/redeem", s.redeemVoucher)
		r.Post("/discounts/validate", s.validateDiscount)
		r.Post("/payments/events", s.paymentEvent)
	})

	return r
}
