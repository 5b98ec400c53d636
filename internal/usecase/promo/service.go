package promo

import (
	"errors"
	"time"

	"axcouncil/internal/bootstrap/config"
	"axcouncil/internal/ports"
	ledgeruc "axcouncil/internal/usecase/ledger"
)

const maxCodeGenerationAttempts = 5

var errCodeGenerationExhausted = errors.New("could not generate a unique code")

// Service is the promotion engine: validation and redemption of discount
// codes, referral codes, and vouchers.
type Service struct {
	repo    ports.PromoRepository
	credits *ledgeruc.Service
	uow     ports.UnitOfWork
	limiter *rateLimiter
}

func NewService(repo ports.PromoRepository, credits *ledgeruc.Service, uow ports.UnitOfWork, cfg config.PromoConfig) *Service {
	window := time.Duration(cfg.RedeemWindowSeconds) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	maxAttempts := cfg.RedeemMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Service{
		repo:    repo,
		credits: credits,
		uow:     uow,
		limiter: newRateLimiter(window, maxAttempts),
	}
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func expired(expiresAt *string, now time.Time) bool {
	if expiresAt == nil || *expiresAt == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339Nano, *expiresAt)
	if err != nil {
		// An unparseable expiry blocks redemption rather than allowing it.
		return true
	}
	return now.After(t)
}

func exhausted(maxUses *int, currentUses int) bool {
	return maxUses != nil && currentUses >= *maxUses
}
