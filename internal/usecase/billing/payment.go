package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"axcouncil/internal/bootstrap/logging"
	domainledger "axcouncil/internal/domain/ledger"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
	ledgeruc "axcouncil/internal/usecase/ledger"
	promouc "axcouncil/internal/usecase/promo"
)

// Service ingests payment confirmation events from the payment provider.
type Service struct {
	ledgerRepo ports.LedgerRepository
	credits    *ledgeruc.Service
	promos     *promouc.Service
	uow        ports.UnitOfWork
}

func NewService(ledgerRepo ports.LedgerRepository, credits *ledgeruc.Service, promos *promouc.Service, uow ports.UnitOfWork) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		credits:    credits,
		promos:     promos,
		uow:        uow,
	}
}

// PaymentEvent is one confirmed purchase. ExternalRef is the provider's
// unique payment identifier and the idempotency key.
type PaymentEvent struct {
	ExternalRef    string
	UserID         string
	Credits        int64
	PurchaseAmount int64
	PaidAmount     int64
	DiscountCode   string
	ReferralCode   string
}

// Process credits the purchased pack and books promotion usage, exactly
// once per external reference. A duplicate delivery is acknowledged
// without any mutation.
var (
	ErrMissingExternalRef = errors.New("payment external reference is required")
	ErrMissingUser        = errors.New("payment user id is required")
)

func (s *Service) Process(ctx context.Context, event PaymentEvent) (bool, error) {
	if event.ExternalRef == "" {
		return false, ErrMissingExternalRef
	}
	if event.UserID == "" {
		return false, ErrMissingUser
	}
	if event.Credits <= 0 {
		return false, fmt.Errorf("%w: %d", domainledger.ErrInvalidAmount, event.Credits)
	}

	processed := false
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC().Format(time.RFC3339Nano)

		first, err := s.ledgerRepo.MarkPaymentProcessed(txCtx, event.ExternalRef, now)
		if err != nil {
			return err
		}
		if !first {
			logging.Info(ctx, "duplicate payment event ignored",
				slog.String("external_ref", event.ExternalRef))
			return nil
		}

		ref := event.ExternalRef
		if _, err := s.credits.Credit(txCtx, event.UserID, event.Credits,
			domainledger.KindPurchase, "credit pack purchase", &ref); err != nil {
			return errs.Wrap(err, "credit purchased pack")
		}

		if err := s.promos.RecordPurchaseUsage(txCtx, promouc.PurchaseUsageInput{
			UserID:         event.UserID,
			PurchaseAmount: event.PurchaseAmount,
			PaidAmount:     event.PaidAmount,
			DiscountCode:   event.DiscountCode,
			ReferralCode:   event.ReferralCode,
			ExternalRef:    &ref,
		}); err != nil {
			return errs.Wrap(err, "record promotion usage")
		}

		processed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if processed {
		logging.Info(ctx, "payment event processed",
			slog.String("external_ref", event.ExternalRef),
			slog.String("user_id", event.UserID),
			slog.Int64("credits", event.Credits),
		)
	}
	return processed, nil
}
