package promo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"axcouncil/internal/bootstrap/config"
	domainpromo "axcouncil/internal/domain/promo"
	"axcouncil/internal/infrastructure/persistence/sqlite/model"
	"axcouncil/internal/infrastructure/persistence/sqlite/repository"
	"axcouncil/internal/infrastructure/persistence/sqlite/uow"
	"axcouncil/internal/ports"
	ledgeruc "axcouncil/internal/usecase/ledger"
)

type harness struct {
	svc     *Service
	repo    *repository.PromoRepository
	credits *ledgeruc.Service
}

func setupHarness(t *testing.T) harness {
	t.Helper()
	return setupHarnessCfg(t, config.PromoConfig{})
}

func setupHarnessCfg(t *testing.T, cfg config.PromoConfig) harness {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "axcouncil.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&model.CreditAccount{},
		&model.CreditTransaction{},
		&model.DiscountCode{},
		&model.DiscountUsage{},
		&model.ReferralCode{},
		&model.ReferralUsage{},
		&model.Voucher{},
		&model.VoucherRedemption{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	repo := repository.NewPromoRepository(db)
	unit := uow.NewUnitOfWork(db)
	credits := ledgeruc.NewService(repository.NewLedgerRepository(db), unit, config.CreditsConfig{})
	return harness{
		svc:     NewService(repo, credits, unit, cfg),
		repo:    repo,
		credits: credits,
	}
}

func futureStamp() *string {
	s := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339Nano)
	return &s
}

func pastStamp() *string {
	s := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano)
	return &s
}

func TestCreateDiscountGeneratesCode(t *testing.T) {
	h := setupHarness(t)

	discount, err := h.svc.CreateDiscount(context.Background(), CreateDiscountInput{
		Type:  domainpromo.DiscountPercentage,
		Value: 20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(discount.Code) != 10 {
		t.Fatalf("generated code %q, want length 10", discount.Code)
	}
	if strings.ContainsAny(discount.Code, "0O1IL") {
		t.Fatalf("code %q contains ambiguous characters", discount.Code)
	}
	if !discount.Active {
		t.Fatal("new code must be active")
	}
}

func TestCreateDiscountRejectsSuppliedDuplicate(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Code: "save20", Type: domainpromo.DiscountPercentage, Value: 20}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Codes are stored uppercased, so the duplicate check is case-blind.
	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Code: "SAVE20", Type: domainpromo.DiscountPercentage, Value: 30}); err == nil {
		t.Fatal("duplicate supplied code accepted")
	}
}

func TestCreateDiscountValidatesValue(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Type: domainpromo.DiscountPercentage, Value: 120}); !errors.Is(err, domainpromo.ErrInvalidPercentage) {
		t.Fatalf("percentage 120: err = %v", err)
	}
	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Type: domainpromo.DiscountFixed, Value: -5}); !errors.Is(err, domainpromo.ErrInvalidValue) {
		t.Fatalf("fixed -5: err = %v", err)
	}
}

func TestValidateDiscount(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	minPurchase := int64(100)
	created, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{
		Code:        "SAVE20",
		Type:        domainpromo.DiscountPercentage,
		Value:       20,
		MinPurchase: &minPurchase,
		ExpiresAt:   futureStamp(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Lookup is case-insensitive and validation mutates nothing.
	discount, err := h.svc.ValidateDiscount(ctx, "save20", ptr(int64(150)))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if discount.DiscountID != created.DiscountID {
		t.Fatalf("wrong code returned: %+v", discount)
	}
	if got := h.svc.CalculateDiscount(discount, 150); got != 120 {
		t.Fatalf("payable = %d, want 120 after 20%%", got)
	}

	if _, err := h.svc.ValidateDiscount(ctx, "SAVE20", ptr(int64(50))); !errors.Is(err, domainpromo.ErrBelowMinimumPurchase) {
		t.Fatalf("below minimum: err = %v", err)
	}
	if _, err := h.svc.ValidateDiscount(ctx, "NOPE", nil); !errors.Is(err, domainpromo.ErrCodeNotFound) {
		t.Fatalf("unknown: err = %v", err)
	}

	inactive := false
	if err := h.svc.UpdateDiscount(ctx, created.DiscountID, ports.DiscountUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := h.svc.ValidateDiscount(ctx, "SAVE20", nil); !errors.Is(err, domainpromo.ErrCodeInactive) {
		t.Fatalf("inactive: err = %v", err)
	}
}

func TestValidateDiscountExpiredAndExhausted(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Code: "OLD", Type: domainpromo.DiscountFixed, Value: 10, ExpiresAt: pastStamp()}); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := h.svc.ValidateDiscount(ctx, "OLD", nil); !errors.Is(err, domainpromo.ErrCodeExpired) {
		t.Fatalf("expired: err = %v", err)
	}

	maxUses := 1
	used, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Code: "ONCE", Type: domainpromo.DiscountFixed, Value: 10, MaxUses: &maxUses})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if bumped, err := h.repo.IncrementDiscountUses(ctx, used.DiscountID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil || !bumped {
		t.Fatalf("bump uses: bumped=%v err=%v", bumped, err)
	}
	if _, err := h.svc.ValidateDiscount(ctx, "ONCE", nil); !errors.Is(err, domainpromo.ErrCodeExhausted) {
		t.Fatalf("exhausted: err = %v", err)
	}
}

func TestReferralLifecycle(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	referral, err := h.svc.CreateReferral(ctx, CreateReferralInput{
		OwnerUserID:       "owner-1",
		DiscountPercent:   10,
		CommissionPercent: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(referral.Code, "REF") {
		t.Fatalf("generated code %q lacks REF prefix", referral.Code)
	}

	validated, err := h.svc.ValidateReferral(ctx, referral.Code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := h.svc.CalculateReferralDiscount(validated, 200); got != 180 {
		t.Fatalf("payable = %d, want 180 after 10%%", got)
	}

	if _, err := h.svc.CreateReferral(ctx, CreateReferralInput{OwnerUserID: "owner-1", DiscountPercent: 101}); !errors.Is(err, domainpromo.ErrInvalidPercentage) {
		t.Fatalf("bad percent: err = %v", err)
	}
	if _, err := h.svc.CreateReferral(ctx, CreateReferralInput{DiscountPercent: 10}); err == nil {
		t.Fatal("missing owner accepted")
	}
}

func TestRecordPurchaseUsagePrefersReferral(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateReferral(ctx, CreateReferralInput{Code: "REFFRIEND", OwnerUserID: "owner-1", DiscountPercent: 10, CommissionPercent: 5}); err != nil {
		t.Fatalf("create referral: %v", err)
	}
	if _, err := h.svc.CreateDiscount(ctx, CreateDiscountInput{Code: "SAVE20", Type: domainpromo.DiscountPercentage, Value: 20}); err != nil {
		t.Fatalf("create discount: %v", err)
	}

	ref := "pay-1"
	err := h.svc.RecordPurchaseUsage(ctx, PurchaseUsageInput{
		UserID:         "buyer-1",
		PurchaseAmount: 200,
		PaidAmount:     180,
		DiscountCode:   "SAVE20",
		ReferralCode:   "reffriend",
		ExternalRef:    &ref,
	})
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}

	bumpedReferral, _, err := h.repo.GetReferralByCode(ctx, "REFFRIEND")
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if bumpedReferral.CurrentUses != 1 {
		t.Fatalf("referral uses = %d, want 1", bumpedReferral.CurrentUses)
	}
	unusedDiscount, _, err := h.repo.GetDiscountByCode(ctx, "SAVE20")
	if err != nil {
		t.Fatalf("get discount: %v", err)
	}
	if unusedDiscount.CurrentUses != 0 {
		t.Fatalf("discount uses = %d, referral must win", unusedDiscount.CurrentUses)
	}
}

func TestRecordPurchaseUsageSkipsUnknownCode(t *testing.T) {
	h := setupHarness(t)

	// A code that vanished between checkout and payment must not fail
	// the payment flow.
	err := h.svc.RecordPurchaseUsage(context.Background(), PurchaseUsageInput{
		UserID:         "buyer-1",
		PurchaseAmount: 100,
		PaidAmount:     100,
		DiscountCode:   "GONE",
	})
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
}

func TestRedeemVoucherGrantsCredits(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	voucher, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Credits: 25})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}
	if !strings.HasPrefix(voucher.Code, "VCH") {
		t.Fatalf("generated code %q lacks VCH prefix", voucher.Code)
	}

	balance, err := h.svc.RedeemVoucher(ctx, strings.ToLower(voucher.Code), "user-1", "client-1")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if balance != 25 {
		t.Fatalf("balance = %d, want 25", balance)
	}

	// Same user, same voucher: once only.
	if _, err := h.svc.RedeemVoucher(ctx, voucher.Code, "user-1", "client-1"); !errors.Is(err, domainpromo.ErrAlreadyRedeemed) {
		t.Fatalf("second redemption: err = %v", err)
	}
	if got, _ := h.credits.GetBalance(ctx, "user-1"); got != 25 {
		t.Fatalf("balance after rejected redemption = %d", got)
	}
}

func TestRedeemVoucherHonorsMaxUses(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	maxUses := 2
	voucher, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Code: "TEAMVCH", Credits: 10, MaxUses: &maxUses})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}

	for i := 0; i < 2; i++ {
		user := fmt.Sprintf("user-%d", i)
		if _, err := h.svc.RedeemVoucher(ctx, "TEAMVCH", user, user); err != nil {
			t.Fatalf("redeem %s: %v", user, err)
		}
	}
	if _, err := h.svc.RedeemVoucher(ctx, "TEAMVCH", "user-late", "user-late"); !errors.Is(err, domainpromo.ErrCodeExhausted) {
		t.Fatalf("over max uses: err = %v", err)
	}

	count, err := h.repo.CountVoucherRedemptions(ctx, voucher.VoucherID)
	if err != nil {
		t.Fatalf("count redemptions: %v", err)
	}
	if count != 2 {
		t.Fatalf("redemptions = %d, want 2", count)
	}

	// The rejected attempt granted nothing.
	if balance, _ := h.credits.GetBalance(ctx, "user-late"); balance != 0 {
		t.Fatalf("late user balance = %d", balance)
	}
}

func TestRedeemVoucherConcurrently(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	maxUses := 3
	if _, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Code: "RACEVCH", Credits: 10, MaxUses: &maxUses}); err != nil {
		t.Fatalf("create voucher: %v", err)
	}

	const redeemers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < redeemers; i++ {
		user := fmt.Sprintf("user-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.svc.RedeemVoucher(ctx, "RACEVCH", user, user); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded > maxUses {
		t.Fatalf("%d redemptions landed, max %d allowed", succeeded, maxUses)
	}

	voucher, _, err := h.repo.GetVoucherByCode(ctx, "RACEVCH")
	if err != nil {
		t.Fatalf("get voucher: %v", err)
	}
	if voucher.CurrentUses != succeeded {
		t.Fatalf("uses = %d with %d successful redemptions", voucher.CurrentUses, succeeded)
	}
}

func TestRedeemVoucherRateLimited(t *testing.T) {
	h := setupHarnessCfg(t, config.PromoConfig{RedeemWindowSeconds: 60, RedeemMaxAttempts: 2})
	ctx := context.Background()

	if _, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Code: "LIMITVCH", Credits: 5}); err != nil {
		t.Fatalf("create voucher: %v", err)
	}

	// Failed lookups count as attempts for the same client key.
	for i := 0; i < 2; i++ {
		if _, err := h.svc.RedeemVoucher(ctx, "WRONG", "user-1", "throttled-client"); !errors.Is(err, domainpromo.ErrCodeNotFound) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
	}
	if _, err := h.svc.RedeemVoucher(ctx, "LIMITVCH", "user-1", "throttled-client"); !errors.Is(err, domainpromo.ErrRateLimited) {
		t.Fatalf("throttled attempt: err = %v", err)
	}

	// Other clients are unaffected.
	if _, err := h.svc.RedeemVoucher(ctx, "LIMITVCH", "user-2", "other-client"); err != nil {
		t.Fatalf("other client: %v", err)
	}
}

func TestRedeemVoucherExpiredAndInactive(t *testing.T) {
	h := setupHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Code: "OLDVCH", Credits: 5, ExpiresAt: pastStamp()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.RedeemVoucher(ctx, "OLDVCH", "user-1", "c1"); !errors.Is(err, domainpromo.ErrCodeExpired) {
		t.Fatalf("expired: err = %v", err)
	}

	voucher, err := h.svc.CreateVoucher(ctx, CreateVoucherInput{Code: "OFFVCH", Credits: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive := false
	if err := h.svc.UpdateVoucher(ctx, voucher.VoucherID, ports.VoucherUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := h.svc.RedeemVoucher(ctx, "OFFVCH", "user-1", "c2"); !errors.Is(err, domainpromo.ErrCodeInactive) {
		t.Fatalf("inactive: err = %v", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
