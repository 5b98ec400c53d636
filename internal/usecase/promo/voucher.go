package promo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"axcouncil/internal/bootstrap/logging"
	domainledger "axcouncil/internal/domain/ledger"
	domainpromo "axcouncil/internal/domain/promo"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

type CreateVoucherInput struct {
	Code      string
	Credits   int64
	MaxUses   *int
	ExpiresAt *string
}

func (s *Service) CreateVoucher(ctx context.Context, input CreateVoucherInput) (ports.Voucher, error) {
	if input.Credits <= 0 {
		return ports.Voucher{}, fmt.Errorf("%w: %d", domainpromo.ErrInvalidValue, input.Credits)
	}

	supplied := strings.TrimSpace(strings.ToUpper(input.Code))
	now := stamp()

	for attempt := 0; attempt < maxCodeGenerationAttempts; attempt++ {
		code := supplied
		if code == "" {
			generated, err := domainpromo.GenerateCode("VCH")
			if err != nil {
				return ports.Voucher{}, errs.Wrap(err, "generate voucher code")
			}
			code = generated
		}

		record := ports.Voucher{
			Code:      code,
			Credits:   input.Credits,
			MaxUses:   input.MaxUses,
			ExpiresAt: input.ExpiresAt,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		id, created, err := s.repo.CreateVoucher(ctx, record)
		if err != nil {
			return ports.Voucher{}, err
		}
		if created {
			record.VoucherID = id
			return record, nil
		}
		if supplied != "" {
			return ports.Voucher{}, errors.New("voucher code already exists")
		}
	}
	return ports.Voucher{}, errCodeGenerationExhausted
}

// RedeemVoucher grants the voucher's credits to the user, all-or-nothing:
// the redemption row, the use-counter bump, and the ledger credit commit
// together or not at all. The counter bump is conditioned on uses
// remaining inside the statement so concurrent redeemers cannot exceed
// max_uses, and the (voucher, user) unique index blocks re-redemption.
func (s *Service) RedeemVoucher(ctx context.Context, code string, userID string, clientKey string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if !s.limiter.Allow(clientKey, time.Now()) {
		return 0, domainpromo.ErrRateLimited
	}

	normalized := strings.TrimSpace(strings.ToUpper(code))

	var balance int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		voucher, found, err := s.repo.GetVoucherByCode(txCtx, normalized)
		if err != nil {
			return err
		}
		if !found {
			return domainpromo.ErrCodeNotFound
		}
		if !voucher.Active {
			return domainpromo.ErrCodeInactive
		}
		if expired(voucher.ExpiresAt, time.Now().UTC()) {
			return domainpromo.ErrCodeExpired
		}

		inserted, err := s.repo.InsertVoucherRedemption(txCtx, ports.VoucherRedemption{
			VoucherID: voucher.VoucherID,
			UserID:    userID,
			Credits:   voucher.Credits,
			CreatedAt: stamp(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return domainpromo.ErrAlreadyRedeemed
		}

		bumped, err := s.repo.IncrementVoucherUses(txCtx, voucher.VoucherID, stamp())
		if err != nil {
			return err
		}
		if !bumped {
			return domainpromo.ErrCodeExhausted
		}

		newBalance, err := s.credits.Credit(txCtx, userID, voucher.Credits,
			domainledger.KindBonus, "voucher "+voucher.Code, nil)
		if err != nil {
			return err
		}
		balance = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.Info(ctx, "voucher redeemed",
		slog.String("code", normalized),
		slog.String("user_id", userID),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

func (s *Service) UpdateVoucher(ctx context.Context, voucherID uint64, update ports.VoucherUpdate) error {
	return s.repo.UpdateVoucher(ctx, voucherID, update)
}
