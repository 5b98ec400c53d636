package repository

import (
	"context"
	"testing"

	"axcouncil/internal/domain/promo"
	"axcouncil/internal/ports"
)

func createTestVoucher(t *testing.T, repo *PromoRepository, code string, maxUses *int) uint64 {
	t.Helper()

	now := nowStamp()
	id, created, err := repo.CreateVoucher(context.Background(), ports.Voucher{
		Code:      code,
		Credits:   10,
		MaxUses:   maxUses,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil || !created {
		t.Fatalf("create voucher: created=%v err=%v", created, err)
	}
	return id
}

func TestCreateDiscountCodeCollision(t *testing.T) {
	repo := NewPromoRepository(setupDB(t))
	ctx := context.Background()
	now := nowStamp()

	code := ports.DiscountCode{
		Code:      "SPRING20",
		Type:      promo.DiscountPercentage,
		Value:     20,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, created, err := repo.CreateDiscount(ctx, code); err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	if _, created, err := repo.CreateDiscount(ctx, code); err != nil || created {
		t.Fatalf("duplicate create: created=%v err=%v", created, err)
	}
}

func TestIncrementVoucherUsesStopsAtMax(t *testing.T) {
	repo := NewPromoRepository(setupDB(t))
	ctx := context.Background()
	id := createTestVoucher(t, repo, "WELCOME", ptr(2))

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementVoucherUses(ctx, id, nowStamp())
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := repo.IncrementVoucherUses(ctx, id, nowStamp())
	if err != nil {
		t.Fatalf("third increment: %v", err)
	}
	if ok {
		t.Fatal("use counter exceeded max_uses")
	}

	voucher, found, err := repo.GetVoucherByCode(ctx, "WELCOME")
	if err != nil || !found {
		t.Fatalf("get voucher: found=%v err=%v", found, err)
	}
	if voucher.CurrentUses != 2 {
		t.Fatalf("current uses = %d, want 2", voucher.CurrentUses)
	}
}

func TestIncrementWithoutMaxUsesIsUnbounded(t *testing.T) {
	repo := NewPromoRepository(setupDB(t))
	ctx := context.Background()
	id := createTestVoucher(t, repo, "OPENENDED", nil)

	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementVoucherUses(ctx, id, nowStamp())
		if err != nil || !ok {
			t.Fatalf("increment %d: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestInsertVoucherRedemptionUniquePerUser(t *testing.T) {
	repo := NewPromoRepository(setupDB(t))
	ctx := context.Background()
	id := createTestVoucher(t, repo, "ONCEEACH", nil)

	ok, err := repo.InsertVoucherRedemption(ctx, ports.VoucherRedemption{
		VoucherID: id, UserID: "u1", Credits: 10, CreatedAt: nowStamp(),
	})
	if err != nil || !ok {
		t.Fatalf("first redemption: ok=%v err=%v", ok, err)
	}

	ok, err = repo.InsertVoucherRedemption(ctx, ports.VoucherRedemption{
		VoucherID: id, UserID: "u1", Credits: 10, CreatedAt: nowStamp(),
	})
	if err != nil {
		t.Fatalf("repeat redemption: %v", err)
	}
	if ok {
		t.Fatal("same user redeemed the same voucher twice")
	}

	// A different user is fine.
	ok, err = repo.InsertVoucherRedemption(ctx, ports.VoucherRedemption{
		VoucherID: id, UserID: "u2", Credits: 10, CreatedAt: nowStamp(),
	})
	if err != nil || !ok {
		t.Fatalf("other user redemption: ok=%v err=%v", ok, err)
	}

	count, err := repo.CountVoucherRedemptions(ctx, id)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestUpdateDiscountPartialFields(t *testing.T) {
	repo := NewPromoRepository(setupDB(t))
	ctx := context.Background()
	now := nowStamp()

	id, created, err := repo.CreateDiscount(ctx, ports.DiscountCode{
		Code:      "PARTIAL",
		Type:      promo.DiscountFixed,
		Value:     500,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	if err := repo.UpdateDiscount(ctx, id, ports.DiscountUpdate{Active: ptr(false)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, found, err := repo.GetDiscountByCode(ctx, "PARTIAL")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Active {
		t.Fatal("active flag not updated")
	}
	if got.Value != 500 {
		t.Fatalf("value changed unexpectedly: %d", got.Value)
	}
}
