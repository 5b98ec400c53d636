package promo

import (
	"context"
	"log/slog"
	"strings"

	"axcouncil/internal/bootstrap/logging"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

type PurchaseUsageInput struct {
	UserID         string
	PurchaseAmount int64
	PaidAmount     int64
	DiscountCode   string
	ReferralCode   string
	ExternalRef    *string
}

// RecordPurchaseUsage books code usage after a confirmed payment.
// Referral codes take priority when both are supplied; the two families
// are mutually exclusive per purchase. Validation already happened at
// checkout, so a code that went inactive in between is logged and
// skipped rather than failing the payment flow.
func (s *Service) RecordPurchaseUsage(ctx context.Context, input PurchaseUsageInput) error {
	referralCode := strings.TrimSpace(strings.ToUpper(input.ReferralCode))
	discountCode := strings.TrimSpace(strings.ToUpper(input.DiscountCode))

	if referralCode != "" {
		return s.recordReferralUsage(ctx, referralCode, input)
	}
	if discountCode != "" {
		return s.recordDiscountUsage(ctx, discountCode, input)
	}
	return nil
}

func (s *Service) recordReferralUsage(ctx context.Context, code string, input PurchaseUsageInput) error {
	referral, found, err := s.repo.GetReferralByCode(ctx, code)
	if err != nil {
		return err
	}
	if !found {
		logging.Warn(ctx, "paid purchase referenced unknown referral code", slog.String("code", code))
		return nil
	}

	bumped, err := s.repo.IncrementReferralUses(ctx, referral.ReferralID, stamp())
	if err != nil {
		return err
	}
	if !bumped {
		logging.Warn(ctx, "referral code exhausted between checkout and payment", slog.String("code", code))
		return nil
	}

	commission := input.PurchaseAmount * referral.CommissionPercent / 100
	if err := s.repo.RecordReferralUsage(ctx, ports.ReferralUsage{
		ReferralID:       referral.ReferralID,
		UserID:           input.UserID,
		PurchaseAmount:   input.PurchaseAmount,
		DiscountedAmount: input.PaidAmount,
		CommissionAmount: commission,
		ExternalRef:      input.ExternalRef,
		CreatedAt:        stamp(),
	}); err != nil {
		return errs.Wrap(err, "record referral usage")
	}
	return nil
}

func (s *Service) recordDiscountUsage(ctx context.Context, code string, input PurchaseUsageInput) error {
	discount, found, err := s.repo.GetDiscountByCode(ctx, code)
	if err != nil {
		return err
	}
	if !found {
		logging.Warn(ctx, "paid purchase referenced unknown discount code", slog.String("code", code))
		return nil
	}

	bumped, err := s.repo.IncrementDiscountUses(ctx, discount.DiscountID, stamp())
	if err != nil {
		return err
	}
	if !bumped {
		logging.Warn(ctx, "discount code exhausted between checkout and payment", slog.String("code", code))
		return nil
	}

	if err := s.repo.RecordDiscountUsage(ctx, ports.DiscountUsage{
		DiscountID:       discount.DiscountID,
		UserID:           input.UserID,
		PurchaseAmount:   input.PurchaseAmount,
		DiscountedAmount: input.PaidAmount,
		ExternalRef:      input.ExternalRef,
		CreatedAt:        stamp(),
	}); err != nil {
		return errs.Wrap(err, "record discount usage")
	}
	return nil
}
