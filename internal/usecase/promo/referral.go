package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainpromo "axcouncil/internal/domain/promo"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

type CreateReferralInput struct {
	Code              string
	OwnerUserID       string
	DiscountPercent   int64
	CommissionPercent int64
	MaxUses           *int
	ExpiresAt         *string
}

func (s *Service) CreateReferral(ctx context.Context, input CreateReferralInput) (ports.ReferralCode, error) {
	if input.OwnerUserID == "" {
		return ports.ReferralCode{}, errors.New("referral owner is required")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return ports.ReferralCode{}, fmt.Errorf("%w: %d", domainpromo.ErrInvalidPercentage, input.DiscountPercent)
	}
	if input.CommissionPercent < 0 || input.CommissionPercent > 100 {
		return ports.ReferralCode{}, fmt.Errorf("%w: %d", domainpromo.ErrInvalidPercentage, input.CommissionPercent)
	}

	supplied := strings.TrimSpace(strings.ToUpper(input.Code))
	now := stamp()

	for attempt := 0; attempt < maxCodeGenerationAttempts; attempt++ {
		code := supplied
		if code == "" {
			generated, err := domainpromo.GenerateCode("REF")
			if err != nil {
				return ports.ReferralCode{}, errs.Wrap(err, "generate referral code")
			}
			code = generated
		}

		record := ports.ReferralCode{
			Code:              code,
			OwnerUserID:       input.OwnerUserID,
			DiscountPercent:   input.DiscountPercent,
			CommissionPercent: input.CommissionPercent,
			MaxUses:           input.MaxUses,
			ExpiresAt:         input.ExpiresAt,
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		id, created, err := s.repo.CreateReferral(ctx, record)
		if err != nil {
			return ports.ReferralCode{}, err
		}
		if created {
			record.ReferralID = id
			return record, nil
		}
		if supplied != "" {
			return ports.ReferralCode{}, errors.New("referral code already exists")
		}
	}
	return ports.ReferralCode{}, errCodeGenerationExhausted
}

func (s *Service) ValidateReferral(ctx context.Context, code string) (ports.ReferralCode, error) {
	referral, found, err := s.repo.GetReferralByCode(ctx, strings.TrimSpace(strings.ToUpper(code)))
	if err != nil {
		return ports.ReferralCode{}, err
	}
	if !found {
		return ports.ReferralCode{}, domainpromo.ErrCodeNotFound
	}
	if !referral.Active {
		return ports.ReferralCode{}, domainpromo.ErrCodeInactive
	}
	if expired(referral.ExpiresAt, time.Now().UTC()) {
		return ports.ReferralCode{}, domainpromo.ErrCodeExpired
	}
	if exhausted(referral.MaxUses, referral.CurrentUses) {
		return ports.ReferralCode{}, domainpromo.ErrCodeExhausted
	}
	return referral, nil
}

// CalculateReferralDiscount applies the buyer-facing percent-off. The
// commission percent is bookkeeping for the owner's payout, not a
// further discount.
func (s *Service) CalculateReferralDiscount(referral ports.ReferralCode, purchaseAmount int64) int64 {
	return domainpromo.ApplyDiscount(domainpromo.DiscountPercentage, referral.DiscountPercent, purchaseAmount)
}

func (s *Service) UpdateReferral(ctx context.Context, referralID uint64, update ports.ReferralUpdate) error {
	return s.repo.UpdateReferral(ctx, referralID, update)
}
