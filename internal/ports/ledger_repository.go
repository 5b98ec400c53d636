package ports

import (
	"context"

	"axcouncil/internal/domain/ledger"
)

type CreditAccount struct {
	UserID    string
	Balance   int64
	CreatedAt string
	UpdatedAt string
}

type CreditTransaction struct {
	TransactionID uint64
	UserID        string
	Amount        int64
	Kind          ledger.TransactionKind
	Description   string
	BalanceAfter  int64
	ExternalRef   *string
	CreatedAt     string
}

type LedgerRepository interface {
	GetAccount(ctx context.Context, userID string) (CreditAccount, bool, error)

	// CreateAccount inserts the account if absent; reports whether this
	// call created it (lazy seeding races resolve to one winner).
	CreateAccount(ctx context.Context, account CreditAccount) (bool, error)

	// AdjustBalance applies delta in one conditional update. When
	// requireAtLeast is non-nil the update only lands while
	// balance >= *requireAtLeast. Returns the post-update balance.
	AdjustBalance(ctx context.Context, userID string, delta int64, requireAtLeast *int64, updatedAt string) (int64, bool, error)

	AppendTransaction(ctx context.Context, tx CreditTransaction) error
	ListTransactions(ctx context.Context, userID string) ([]CreditTransaction, error)
	SumTransactions(ctx context.Context, userID string) (int64, error)

	// MarkPaymentProcessed records an external payment reference; false
	// means the reference was already processed (duplicate delivery).
	MarkPaymentProcessed(ctx context.Context, externalRef string, now string) (bool, error)
}
