package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"axcouncil/internal/ports"
)

// dbFromContext prefers the transaction handle placed in context by the
// unit of work, falling back to the repository's own connection.
func dbFromContext(ctx context.Context, fallback *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return fallback.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}
