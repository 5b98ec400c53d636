package repository

import (
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"axcouncil/internal/infrastructure/persistence/sqlite/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "axcouncil.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(
		&model.EvaluationJob{},
		&model.PanelEvaluation{},
		&model.CouncilResult{},
		&model.CreditAccount{},
		&model.CreditTransaction{},
		&model.PaymentEvent{},
		&model.DiscountCode{},
		&model.DiscountUsage{},
		&model.ReferralCode{},
		&model.ReferralUsage{},
		&model.Voucher{},
		&model.VoucherRedemption{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func ptr[T any](v T) *T {
	return &v
}
