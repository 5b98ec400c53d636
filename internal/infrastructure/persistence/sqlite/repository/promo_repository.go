package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"axcouncil/internal/domain/promo"
	"axcouncil/internal/errs"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/ports"
)

type PromoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) CreateDiscount(ctx context.Context, code ports.DiscountCode) (uint64, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, false, err
	}

	row := model.DiscountCode{
		Code:        code.Code,
		Type:        string(code.Type),
		Value:       code.Value,
		MinPurchase: code.MinPurchase,
		MaxUses:     code.MaxUses,
		CurrentUses: code.CurrentUses,
		ExpiresAt:   code.ExpiresAt,
		Active:      code.Active,
		CreatedAt:   code.CreatedAt,
		UpdatedAt:   code.UpdatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return 0, false, errs.Wrap(result.Error, "insert discount code")
	}
	return row.DiscountID, result.RowsAffected > 0, nil
}

func (r *PromoRepository) CreateReferral(ctx context.Context, code ports.ReferralCode) (uint64, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, false, err
	}

	row := model.ReferralCode{
		Code:              code.Code,
		OwnerUserID:       code.OwnerUserID,
		DiscountPercent:   code.DiscountPercent,
		CommissionPercent: code.CommissionPercent,
		MaxUses:           code.MaxUses,
		CurrentUses:       code.CurrentUses,
		ExpiresAt:         code.ExpiresAt,
		Active:            code.Active,
		CreatedAt:         code.CreatedAt,
		UpdatedAt:         code.UpdatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return 0, false, errs.Wrap(result.Error, "insert referral code")
	}
	return row.ReferralID, result.RowsAffected > 0, nil
}

func (r *PromoRepository) CreateVoucher(ctx context.Context, code ports.Voucher) (uint64, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, false, err
	}

	row := model.Voucher{
		Code:        code.Code,
		Credits:     code.Credits,
		MaxUses:     code.MaxUses,
		CurrentUses: code.CurrentUses,
		ExpiresAt:   code.ExpiresAt,
		Active:      code.Active,
		CreatedAt:   code.CreatedAt,
		UpdatedAt:   code.UpdatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return 0, false, errs.Wrap(result.Error, "insert voucher")
	}
	return row.VoucherID, result.RowsAffected > 0, nil
}

func (r *PromoRepository) GetDiscountByCode(ctx context.Context, code string) (ports.DiscountCode, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DiscountCode{}, false, err
	}

	var row model.DiscountCode
	if err := db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DiscountCode{}, false, nil
		}
		return ports.DiscountCode{}, false, errs.Wrap(err, "query discount code")
	}
	return mapDiscount(row), true, nil
}

func (r *PromoRepository) GetReferralByCode(ctx context.Context, code string) (ports.ReferralCode, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ReferralCode{}, false, err
	}

	var row model.ReferralCode
	if err := db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ReferralCode{}, false, nil
		}
		return ports.ReferralCode{}, false, errs.Wrap(err, "query referral code")
	}
	return mapReferral(row), true, nil
}

func (r *PromoRepository) GetVoucherByCode(ctx context.Context, code string) (ports.Voucher, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Voucher{}, false, err
	}

	var row model.Voucher
	if err := db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Voucher{}, false, nil
		}
		return ports.Voucher{}, false, errs.Wrap(err, "query voucher")
	}
	return mapVoucher(row), true, nil
}

func (r *PromoRepository) UpdateDiscount(ctx context.Context, discountID uint64, update ports.DiscountUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if update.Value != nil {
		updates["value"] = *update.Value
	}
	if update.MinPurchase != nil {
		updates["min_purchase"] = *update.MinPurchase
	}
	if update.MaxUses != nil {
		updates["max_uses"] = *update.MaxUses
	}
	if update.ExpiresAt != nil {
		updates["expires_at"] = *update.ExpiresAt
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}
	if len(updates) == 0 {
		return nil
	}

	if err := db.Model(&model.DiscountCode{}).
		Where("discount_id = ?", discountID).
		Updates(updates).Error; err != nil {
		return errs.Wrap(err, "update discount code")
	}
	return nil
}

func (r *PromoRepository) UpdateReferral(ctx context.Context, referralID uint64, update ports.ReferralUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if update.DiscountPercent != nil {
		updates["discount_percent"] = *update.DiscountPercent
	}
	if update.CommissionPercent != nil {
		updates["commission_percent"] = *update.CommissionPercent
	}
	if update.MaxUses != nil {
		updates["max_uses"] = *update.MaxUses
	}
	if update.ExpiresAt != nil {
		updates["expires_at"] = *update.ExpiresAt
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}
	if len(updates) == 0 {
		return nil
	}

	if err := db.Model(&model.ReferralCode{}).
		Where("referral_id = ?", referralID).
		Updates(updates).Error; err != nil {
		return errs.Wrap(err, "update referral code")
	}
	return nil
}

func (r *PromoRepository) UpdateVoucher(ctx context.Context, voucherID uint64, update ports.VoucherUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if update.Credits != nil {
		updates["credits"] = *update.Credits
	}
	if update.MaxUses != nil {
		updates["max_uses"] = *update.MaxUses
	}
	if update.ExpiresAt != nil {
		updates["expires_at"] = *update.ExpiresAt
	}
	if update.Active != nil {
		updates["active"] = *update.Active
	}
	if len(updates) == 0 {
		return nil
	}

	if err := db.Model(&model.Voucher{}).
		Where("voucher_id = ?", voucherID).
		Updates(updates).Error; err != nil {
		return errs.Wrap(err, "update voucher")
	}
	return nil
}

// The counter bump is conditioned on uses remaining inside the statement
// itself so concurrent redeemers cannot push current_uses past max_uses.
func (r *PromoRepository) IncrementDiscountUses(ctx context.Context, discountID uint64, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.DiscountCode{}).
		Where("discount_id = ? AND (max_uses IS NULL OR current_uses < max_uses)", discountID).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   updatedAt,
		})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "increment discount uses")
	}
	return result.RowsAffected > 0, nil
}

func (r *PromoRepository) IncrementReferralUses(ctx context.Context, referralID uint64, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.ReferralCode{}).
		Where("referral_id = ? AND (max_uses IS NULL OR current_uses < max_uses)", referralID).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   updatedAt,
		})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "increment referral uses")
	}
	return result.RowsAffected > 0, nil
}

func (r *PromoRepository) IncrementVoucherUses(ctx context.Context, voucherID uint64, updatedAt string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Model(&model.Voucher{}).
		Where("voucher_id = ? AND (max_uses IS NULL OR current_uses < max_uses)", voucherID).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   updatedAt,
		})
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "increment voucher uses")
	}
	return result.RowsAffected > 0, nil
}

func (r *PromoRepository) RecordDiscountUsage(ctx context.Context, usage ports.DiscountUsage) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.DiscountUsage{
		DiscountID:       usage.DiscountID,
		UserID:           usage.UserID,
		PurchaseAmount:   usage.PurchaseAmount,
		DiscountedAmount: usage.DiscountedAmount,
		ExternalRef:      usage.ExternalRef,
		CreatedAt:        usage.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert discount usage")
	}
	return nil
}

func (r *PromoRepository) RecordReferralUsage(ctx context.Context, usage ports.ReferralUsage) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.ReferralUsage{
		ReferralID:       usage.ReferralID,
		UserID:           usage.UserID,
		PurchaseAmount:   usage.PurchaseAmount,
		DiscountedAmount: usage.DiscountedAmount,
		CommissionAmount: usage.CommissionAmount,
		ExternalRef:      usage.ExternalRef,
		CreatedAt:        usage.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert referral usage")
	}
	return nil
}

func (r *PromoRepository) InsertVoucherRedemption(ctx context.Context, redemption ports.VoucherRedemption) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.VoucherRedemption{
		VoucherID: redemption.VoucherID,
		UserID:    redemption.UserID,
		Credits:   redemption.Credits,
		CreatedAt: redemption.CreatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "voucher_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert voucher redemption")
	}
	return result.RowsAffected > 0, nil
}

func (r *PromoRepository) CountVoucherRedemptions(ctx context.Context, voucherID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.VoucherRedemption{}).
		Where("voucher_id = ?", voucherID).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count voucher redemptions")
	}
	return count, nil
}

func mapDiscount(row model.DiscountCode) ports.DiscountCode {
	return ports.DiscountCode{
		DiscountID:  row.DiscountID,
		Code:        row.Code,
		Type:        promo.DiscountType(row.Type),
		Value:       row.Value,
		MinPurchase: row.MinPurchase,
		MaxUses:     row.MaxUses,
		CurrentUses: row.CurrentUses,
		ExpiresAt:   row.ExpiresAt,
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapReferral(row model.ReferralCode) ports.ReferralCode {
	return ports.ReferralCode{
		ReferralID:        row.ReferralID,
		Code:              row.Code,
		OwnerUserID:       row.OwnerUserID,
		DiscountPercent:   row.DiscountPercent,
		CommissionPercent: row.CommissionPercent,
		MaxUses:           row.MaxUses,
		CurrentUses:       row.CurrentUses,
		ExpiresAt:         row.ExpiresAt,
		Active:            row.Active,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func mapVoucher(row model.Voucher) ports.Voucher {
	return ports.Voucher{
		VoucherID:   row.VoucherID,
		Code:        row.Code,
		Credits:     row.Credits,
		MaxUses:     row.MaxUses,
		CurrentUses: row.CurrentUses,
		ExpiresAt:   row.ExpiresAt,
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
