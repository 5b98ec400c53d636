package model

type CreditAccount struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	Balance   int64  `gorm:"column:balance;not null;default:0"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (CreditAccount) TableName() string {
	return "credit_accounts"
}

type CreditTransaction struct {
	TransactionID uint64  `gorm:"column:transaction_id;primaryKey;autoIncrement"`
	UserID        string  `gorm:"column:user_id;type:text;not null;index"`
	Amount        int64   `gorm:"column:amount;not null"`
	Kind          string  `gorm:"column:kind;type:text;not null"`
	Description   string  `gorm:"column:description;type:text;not null"`
	BalanceAfter  int64   `gorm:"column:balance_after;not null"`
	ExternalRef   *string `gorm:"column:external_ref;type:text"`
	CreatedAt     string  `gorm:"column:created_at;type:text;not null"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// PaymentEvent deduplicates payment confirmations by external reference.
type PaymentEvent struct {
	PaymentEventID uint64 `gorm:"column:payment_event_id;primaryKey;autoIncrement"`
	ExternalRef    string `gorm:"column:external_ref;type:text;not null;uniqueIndex"`
	ProcessedAt    string `gorm:"column:processed_at;type:text;not null"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
