package model

type DiscountCode struct {
	DiscountID  uint64  `gorm:"column:discount_id;primaryKey;autoIncrement"`
	Code        string  `gorm:"column:code;type:text;not null;uniqueIndex"`
	Type        string  `gorm:"column:type;type:text;not null"`
	Value       int64   `gorm:"column:value;not null"`
	MinPurchase *int64  `gorm:"column:min_purchase"`
	MaxUses     *int    `gorm:"column:max_uses"`
	CurrentUses int     `gorm:"column:current_uses;not null;default:0"`
	ExpiresAt   *string `gorm:"column:expires_at;type:text"`
	Active      bool    `gorm:"column:active;not null;default:1"`
	CreatedAt   string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt   string  `gorm:"column:updated_at;type:text;not null"`
}

func (DiscountCode) TableName() string {
	return "discount_codes"
}

type DiscountUsage struct {
	UsageID          uint64  `gorm:"column:usage_id;primaryKey;autoIncrement"`
	DiscountID       uint64  `gorm:"column:discount_id;not null;index"`
	UserID           string  `gorm:"column:user_id;type:text;not null"`
	PurchaseAmount   int64   `gorm:"column:purchase_amount;not null"`
	DiscountedAmount int64   `gorm:"column:discounted_amount;not null"`
	ExternalRef      *string `gorm:"column:external_ref;type:text"`
	CreatedAt        string  `gorm:"column:created_at;type:text;not null"`
}

func (DiscountUsage) TableName() string {
	return "discount_usages"
}

type ReferralCode struct {
	ReferralID        uint64  `gorm:"column:referral_id;primaryKey;autoIncrement"`
	Code              string  `gorm:"column:code;type:text;not null;uniqueIndex"`
	OwnerUserID       string  `gorm:"column:owner_user_id;type:text;not null;index"`
	DiscountPercent   int64   `gorm:"column:discount_percent;not null"`
	CommissionPercent int64   `gorm:"column:commission_percent;not null"`
	MaxUses           *int    `gorm:"column:max_uses"`
	CurrentUses       int     `gorm:"column:current_uses;not null;default:0"`
	ExpiresAt         *string `gorm:"column:expires_at;type:text"`
	Active            bool    `gorm:"column:active;not null;default:1"`
	CreatedAt         string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt         string  `gorm:"column:updated_at;type:text;not null"`
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}

type ReferralUsage struct {
	UsageID          uint64  `gorm:"column:usage_id;primaryKey;autoIncrement"`
	ReferralID       uint64  `gorm:"column:referral_id;not null;index"`
	UserID           string  `gorm:"column:user_id;type:text;not null"`
	PurchaseAmount   int64   `gorm:"column:purchase_amount;not null"`
	DiscountedAmount int64   `gorm:"column:discounted_amount;not null"`
	CommissionAmount int64   `gorm:"column:commission_amount;not null"`
	ExternalRef      *string `gorm:"column:external_ref;type:text"`
	CreatedAt        string  `gorm:"column:created_at;type:text;not null"`
}

func (ReferralUsage) TableName() string {
	return "referral_usages"
}

type Voucher struct {
	VoucherID   uint64  `gorm:"column:voucher_id;primaryKey;autoIncrement"`
	Code        string  `gorm:"column:code;type:text;not null;uniqueIndex"`
	Credits     int64   `gorm:"column:credits;not null"`
	MaxUses     *int    `gorm:"column:max_uses"`
	CurrentUses int     `gorm:"column:current_uses;not null;default:0"`
	ExpiresAt   *string `gorm:"column:expires_at;type:text"`
	Active      bool    `gorm:"column:active;not null;default:1"`
	CreatedAt   string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt   string  `gorm:"column:updated_at;type:text;not null"`
}

func (Voucher) TableName() string {
	return "vouchers"
}

// VoucherRedemption blocks re-redemption via the (voucher, user) unique
// index.
type VoucherRedemption struct {
	RedemptionID uint64 `gorm:"column:redemption_id;primaryKey;autoIncrement"`
	VoucherID    uint64 `gorm:"column:voucher_id;not null;uniqueIndex:idx_voucher_user"`
	UserID       string `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_voucher_user"`
	Credits      int64  `gorm:"column:credits;not null"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
}

func (VoucherRedemption) TableName() string {
	return "voucher_redemptions"
}
