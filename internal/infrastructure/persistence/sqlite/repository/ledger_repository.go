package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"axcouncil/internal/domain/ledger"
	"axcouncil/internal/errs"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/ports"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetAccount(ctx context.Context, userID string) (ports.CreditAccount, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.CreditAccount{}, false, err
	}

	var row model.CreditAccount
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CreditAccount{}, false, nil
		}
		return ports.CreditAccount{}, false, errs.Wrap(err, "query credit account")
	}
	return mapAccount(row), true, nil
}

func (r *LedgerRepository) CreateAccount(ctx context.Context, account ports.CreditAccount) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.CreditAccount{
		UserID:    account.UserID,
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert credit account")
	}
	return result.RowsAffected > 0, nil
}

// AdjustBalance applies the delta with a single conditional UPDATE so a
// debit guard and the decrement happen in one atomic step. The post-update
// balance read relies on the caller holding a transaction when it matters.
func (r *LedgerRepository) AdjustBalance(ctx context.Context, userID string, delta int64, requireAtLeast *int64, updatedAt string) (int64, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, false, err
	}

	query := db.Model(&model.CreditAccount{}).Where("user_id = ?", userID)
	if requireAtLeast != nil {
		query = query.Where("balance >= ?", *requireAtLeast)
	}
	result := query.Updates(map[string]any{
		"balance":    gorm.Expr("balance + ?", delta),
		"updated_at": updatedAt,
	})
	if result.Error != nil {
		return 0, false, errs.Wrap(result.Error, "adjust credit balance")
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}

	var row model.CreditAccount
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return 0, false, errs.Wrap(err, "reload credit account")
	}
	return row.Balance, true, nil
}

func (r *LedgerRepository) AppendTransaction(ctx context.Context, tx ports.CreditTransaction) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.CreditTransaction{
		UserID:       tx.UserID,
		Amount:       tx.Amount,
		Kind:         string(tx.Kind),
		Description:  tx.Description,
		BalanceAfter: tx.BalanceAfter,
		ExternalRef:  tx.ExternalRef,
		CreatedAt:    tx.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append credit transaction")
	}
	return nil
}

func (r *LedgerRepository) ListTransactions(ctx context.Context, userID string) ([]ports.CreditTransaction, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.CreditTransaction
	if err := db.
		Where("user_id = ?", userID).
		Order("transaction_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query credit transactions")
	}

	items := make([]ports.CreditTransaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CreditTransaction{
			TransactionID: row.TransactionID,
			UserID:        row.UserID,
			Amount:        row.Amount,
			Kind:          ledger.TransactionKind(row.Kind),
			Description:   row.Description,
			BalanceAfter:  row.BalanceAfter,
			ExternalRef:   row.ExternalRef,
			CreatedAt:     row.CreatedAt,
		})
	}
	return items, nil
}

func (r *LedgerRepository) SumTransactions(ctx context.Context, userID string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var sum *int64
	if err := db.Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("sum(amount)").
		Scan(&sum).Error; err != nil {
		return 0, errs.Wrap(err, "sum credit transactions")
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *LedgerRepository) MarkPaymentProcessed(ctx context.Context, externalRef string, now string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.PaymentEvent{
		ExternalRef: externalRef,
		ProcessedAt: now,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_ref"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "insert payment event")
	}
	return result.RowsAffected > 0, nil
}

func mapAccount(row model.CreditAccount) ports.CreditAccount {
	return ports.CreditAccount{
		UserID:    row.UserID,
		Balance:   row.Balance,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
