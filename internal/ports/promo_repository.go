package ports

import (
	"context"

	"axcouncil/internal/domain/promo"
)

type DiscountCode struct {
	DiscountID  uint64
	Code        string
	Type        promo.DiscountType
	Value       int64
	MinPurchase *int64
	MaxUses     *int
	CurrentUses int
	ExpiresAt   *string
	Active      bool
	CreatedAt   string
	UpdatedAt   string
}

type ReferralCode struct {
	ReferralID        uint64
	Code              string
	OwnerUserID       string
	DiscountPercent   int64
	CommissionPercent int64
	MaxUses           *int
	CurrentUses       int
	ExpiresAt         *string
	Active            bool
	CreatedAt         string
	UpdatedAt         string
}

type Voucher struct {
	VoucherID   uint64
	Code        string
	Credits     int64
	MaxUses     *int
	CurrentUses int
	ExpiresAt   *string
	Active      bool
	CreatedAt   string
	UpdatedAt   string
}

type DiscountUsage struct {
	UsageID          uint64
	DiscountID       uint64
	UserID           string
	PurchaseAmount   int64
	DiscountedAmount int64
	ExternalRef      *string
	CreatedAt        string
}

type ReferralUsage struct {
	UsageID          uint64
	ReferralID       uint64
	UserID           string
	PurchaseAmount   int64
	DiscountedAmount int64
	CommissionAmount int64
	ExternalRef      *string
	CreatedAt        string
}

type VoucherRedemption struct {
	RedemptionID uint64
	VoucherID    uint64
	UserID       string
	Credits      int64
	CreatedAt    string
}

// Optional-field updates: a nil pointer means "leave unchanged".
type DiscountUpdate struct {
	Value       *int64
	MinPurchase *int64
	MaxUses     *int
	ExpiresAt   *string
	Active      *bool
}

type ReferralUpdate struct {
	DiscountPercent   *int64
	CommissionPercent *int64
	MaxUses           *int
	ExpiresAt         *string
	Active            *bool
}

type VoucherUpdate struct {
	Credits   *int64
	MaxUses   *int
	ExpiresAt *string
	Active    *bool
}

type PromoRepository interface {
	// Create* insert a new code; created=false reports a code collision
	// so the caller can re-roll.
	CreateDiscount(ctx context.Context, code DiscountCode) (uint64, bool, error)
	CreateReferral(ctx context.Context, code ReferralCode) (uint64, bool, error)
	CreateVoucher(ctx context.Context, code Voucher) (uint64, bool, error)

	GetDiscountByCode(ctx context.Context, code string) (DiscountCode, bool, error)
	GetReferralByCode(ctx context.Context, code string) (ReferralCode, bool, error)
	GetVoucherByCode(ctx context.Context, code string) (Voucher, bool, error)

	UpdateDiscount(ctx context.Context, discountID uint64, update DiscountUpdate) error
	UpdateReferral(ctx context.Context, referralID uint64, update ReferralUpdate) error
	UpdateVoucher(ctx context.Context, voucherID uint64, update VoucherUpdate) error

	// Increment*Uses bump the use counter only while uses remain; false
	// means the code is exhausted.
	IncrementDiscountUses(ctx context.Context, discountID uint64, updatedAt string) (bool, error)
	IncrementReferralUses(ctx context.Context, referralID uint64, updatedAt string) (bool, error)
	IncrementVoucherUses(ctx context.Context, voucherID uint64, updatedAt string) (bool, error)

	RecordDiscountUsage(ctx context.Context, usage DiscountUsage) error
	RecordReferralUsage(ctx context.Context, usage ReferralUsage) error

	// InsertVoucherRedemption enforces the (voucher, user) uniqueness;
	// false means this user already redeemed this voucher.
	InsertVoucherRedemption(ctx context.Context, redemption VoucherRedemption) (bool, error)

	CountVoucherRedemptions(ctx context.Context, voucherID uint64) (int64, error)
}
