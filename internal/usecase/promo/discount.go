package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	domainpromo "axcouncil/internal/domain/promo"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

type CreateDiscountInput struct {
	Code        string
	Type        domainpromo.DiscountType
	Value       int64
	MinPurchase *int64
	MaxUses     *int
	ExpiresAt   *string
}

// CreateDiscount persists a new discount code, generating an
// unpredictable code when none is supplied and re-rolling on collision.
func (s *Service) CreateDiscount(ctx context.Context, input CreateDiscountInput) (ports.DiscountCode, error) {
	if err := domainpromo.ValidateValue(input.Type, input.Value); err != nil {
		return ports.DiscountCode{}, err
	}

	supplied := strings.TrimSpace(strings.ToUpper(input.Code))
	now := stamp()

	for attempt := 0; attempt < maxCodeGenerationAttempts; attempt++ {
		code := supplied
		if code == "" {
			generated, err := domainpromo.GenerateCode("")
			if err != nil {
				return ports.DiscountCode{}, errs.Wrap(err, "generate discount code")
			}
			code = generated
		}

		record := ports.DiscountCode{
			Code:        code,
			Type:        input.Type,
			Value:       input.Value,
			MinPurchase: input.MinPurchase,
			MaxUses:     input.MaxUses,
			ExpiresAt:   input.ExpiresAt,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		id, created, err := s.repo.CreateDiscount(ctx, record)
		if err != nil {
			return ports.DiscountCode{}, err
		}
		if created {
			record.DiscountID = id
			return record, nil
		}
		if supplied != "" {
			// Caller-supplied codes are not re-rolled.
			return ports.DiscountCode{}, errors.New("discount code already exists")
		}
	}
	return ports.DiscountCode{}, errCodeGenerationExhausted
}

// ValidateDiscount checks a code without mutating anything, so callers
// can probe a code before paying.
func (s *Service) ValidateDiscount(ctx context.Context, code string, purchaseAmount *int64) (ports.DiscountCode, error) {
	discount, found, err := s.repo.GetDiscountByCode(ctx, strings.TrimSpace(strings.ToUpper(code)))
	if err != nil {
		return ports.DiscountCode{}, err
	}
	if !found {
		return ports.DiscountCode{}, domainpromo.ErrCodeNotFound
	}
	if !discount.Active {
		return ports.DiscountCode{}, domainpromo.ErrCodeInactive
	}
	if expired(discount.ExpiresAt, time.Now().UTC()) {
		return ports.DiscountCode{}, domainpromo.ErrCodeExpired
	}
	if exhausted(discount.MaxUses, discount.CurrentUses) {
		return ports.DiscountCode{}, domainpromo.ErrCodeExhausted
	}
	if purchaseAmount != nil && discount.MinPurchase != nil && *purchaseAmount < *discount.MinPurchase {
		return ports.DiscountCode{}, domainpromo.ErrBelowMinimumPurchase
	}
	return discount, nil
}

// CalculateDiscount returns the amount payable after applying the code.
func (s *Service) CalculateDiscount(discount ports.DiscountCode, purchaseAmount int64) int64 {
	return domainpromo.ApplyDiscount(discount.Type, discount.Value, purchaseAmount)
}

func (s *Service) UpdateDiscount(ctx context.Context, discountID uint64, update ports.DiscountUpdate) error {
	return s.repo.UpdateDiscount(ctx, discountID, update)
}
