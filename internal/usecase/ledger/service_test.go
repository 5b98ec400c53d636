package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"axcouncil/internal/bootstrap/config"
	domainledger "axcouncil/internal/domain/ledger"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/infrastructure/persistence/sqlite/repository"
	"axcouncil/internal/infrastructure/persistence/sqlite/uow"
)

func setupService(t *testing.T, cfg config.CreditsConfig) (*Service, *repository.LedgerRepository) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "axcouncil.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.CreditAccount{}, &model.CreditTransaction{}, &model.PaymentEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	repo := repository.NewLedgerRepository(db)
	return NewService(repo, uow.NewUnitOfWork(db), cfg), repo
}

func TestSignupGrantSeedsAccount(t *testing.T) {
	svc, repo := setupService(t, config.CreditsConfig{SignupGrant: 3})
	ctx := context.Background()

	balance, err := svc.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 3 {
		t.Fatalf("balance = %d, want 3", balance)
	}

	txs, err := repo.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Kind != domainledger.KindBonus || txs[0].Amount != 3 {
		t.Fatalf("seed transaction = %+v", txs)
	}
}

func TestAdminPrincipalSeedsBonus(t *testing.T) {
	svc, _ := setupService(t, config.CreditsConfig{SignupGrant: 3, AdminBonus: 1000, AdminPrincipal: "admin"})

	balance, err := svc.GetBalance(context.Background(), "admin")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 1000 {
		t.Fatalf("balance = %d, want 1000", balance)
	}
}

func TestCreditAndDebit(t *testing.T) {
	svc, _ := setupService(t, config.CreditsConfig{SignupGrant: 0})
	ctx := context.Background()

	balance, err := svc.Credit(ctx, "user-1", 10, domainledger.KindPurchase, "pack", nil)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 10 {
		t.Fatalf("balance after credit = %d", balance)
	}

	balance, err = svc.Debit(ctx, "user-1", 4, "evaluation")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 6 {
		t.Fatalf("balance after debit = %d", balance)
	}

	if _, err := svc.Debit(ctx, "user-1", 7, "too much"); !errors.Is(err, domainledger.ErrInsufficientBalance) {
		t.Fatalf("overdraft err = %v", err)
	}
	if balance, _ = svc.GetBalance(ctx, "user-1"); balance != 6 {
		t.Fatalf("balance changed by rejected debit: %d", balance)
	}
}

func TestDebitRejectsBadAmounts(t *testing.T) {
	svc, _ := setupService(t, config.CreditsConfig{SignupGrant: 5})
	ctx := context.Background()

	if _, err := svc.Debit(ctx, "user-1", 0, "zero"); !errors.Is(err, domainledger.ErrInvalidAmount) {
		t.Fatalf("zero amount err = %v", err)
	}
	if _, err := svc.Debit(ctx, "user-1", -2, "negative"); !errors.Is(err, domainledger.ErrInvalidAmount) {
		t.Fatalf("negative amount err = %v", err)
	}
}

// Racing debits against one account must never drive the balance
// negative: exactly balance/amount of them may land.
func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc, repo := setupService(t, config.CreditsConfig{SignupGrant: 5})
	ctx := context.Background()

	if _, err := svc.GetBalance(ctx, "user-1"); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(ctx, "user-1", 1, "race"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded > 5 {
		t.Fatalf("%d debits landed, at most 5 may", succeeded)
	}
	balance, err := svc.GetBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
	if balance != 5-int64(succeeded) {
		t.Fatalf("balance = %d with %d successful debits", balance, succeeded)
	}

	sum, err := repo.SumTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("sum transactions: %v", err)
	}
	if sum != balance {
		t.Fatalf("transaction sum %d != balance %d", sum, balance)
	}
}

func TestSetBalanceLogsDelta(t *testing.T) {
	svc, repo := setupService(t, config.CreditsConfig{SignupGrant: 3})
	ctx := context.Background()

	balance, err := svc.SetBalance(ctx, "user-1", 50)
	if err != nil {
		t.Fatalf("set balance: %v", err)
	}
	if balance != 50 {
		t.Fatalf("balance = %d, want 50", balance)
	}

	sum, err := repo.SumTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("sum transactions: %v", err)
	}
	if sum != 50 {
		t.Fatalf("transaction sum = %d, want 50", sum)
	}

	// Setting the current value appends nothing.
	txs, _ := repo.ListTransactions(ctx, "user-1")
	before := len(txs)
	if _, err := svc.SetBalance(ctx, "user-1", 50); err != nil {
		t.Fatalf("set same balance: %v", err)
	}
	txs, _ = repo.ListTransactions(ctx, "user-1")
	if len(txs) != before {
		t.Fatalf("no-op override appended a transaction")
	}
}
