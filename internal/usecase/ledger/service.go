package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"axcouncil/internal/bootstrap/config"
	"axcouncil/internal/bootstrap/logging"
	domainledger "axcouncil/internal/domain/ledger"
	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

// Service is the credit ledger: atomic balance mutation over an
// append-only transaction log. The log's running sum always equals the
// account balance.
type Service struct {
	repo ports.LedgerRepository
	uow  ports.UnitOfWork
	cfg  config.CreditsConfig
}

func NewService(repo ports.LedgerRepository, uow ports.UnitOfWork, cfg config.CreditsConfig) *Service {
	return &Service{
		repo: repo,
		uow:  uow,
		cfg:  cfg,
	}
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ensureAccount lazily creates the account on first touch, seeding the
// configured signup grant (or the admin bonus for the configured
// administrative principal) together with its bonus log entry.
func (s *Service) ensureAccount(ctx context.Context, userID string) (ports.CreditAccount, error) {
	account, found, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return ports.CreditAccount{}, err
	}
	if found {
		return account, nil
	}

	seed := s.cfg.SignupGrant
	description := "signup grant"
	if s.cfg.AdminPrincipal != "" && userID == s.cfg.AdminPrincipal {
		seed = s.cfg.AdminBonus
		description = "administrator bonus"
	}

	now := stamp()
	created, err := s.repo.CreateAccount(ctx, ports.CreditAccount{
		UserID:    userID,
		Balance:   seed,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return ports.CreditAccount{}, errs.Wrap(err, "create credit account")
	}
	if created && seed > 0 {
		if err := s.repo.AppendTransaction(ctx, ports.CreditTransaction{
			UserID:       userID,
			Amount:       seed,
			Kind:         domainledger.KindBonus,
			Description:  description,
			BalanceAfter: seed,
			CreatedAt:    now,
		}); err != nil {
			return ports.CreditAccount{}, errs.Wrap(err, "append seed transaction")
		}
	}

	account, _, err = s.repo.GetAccount(ctx, userID)
	if err != nil {
		return ports.CreditAccount{}, err
	}
	return account, nil
}

func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}

	var balance int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.ensureAccount(txCtx, userID)
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	return balance, err
}

// Credit appends a positive-amount transaction and bumps the balance in
// one transaction.
func (s *Service) Credit(ctx context.Context, userID string, amount int64, kind domainledger.TransactionKind, description string, externalRef *string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", domainledger.ErrInvalidAmount, amount)
	}
	if !kind.Valid() {
		return 0, fmt.Errorf("invalid transaction kind %q", kind)
	}

	var balance int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ensureAccount(txCtx, userID); err != nil {
			return err
		}

		newBalance, ok, err := s.repo.AdjustBalance(txCtx, userID, amount, nil, stamp())
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("credit update affected no rows")
		}

		if err := s.repo.AppendTransaction(txCtx, ports.CreditTransaction{
			UserID:       userID,
			Amount:       amount,
			Kind:         kind,
			Description:  description,
			BalanceAfter: newBalance,
			ExternalRef:  externalRef,
			CreatedAt:    stamp(),
		}); err != nil {
			return err
		}
		balance = newBalance
		return nil
	})
	return balance, err
}

// Debit checks and decrements the balance in a single conditional update
// so racing debits can never drive the balance negative.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, description string) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", domainledger.ErrInvalidAmount, amount)
	}

	var balance int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ensureAccount(txCtx, userID); err != nil {
			return err
		}

		newBalance, ok, err := s.repo.AdjustBalance(txCtx, userID, -amount, &amount, stamp())
		if err != nil {
			return err
		}
		if !ok {
			return domainledger.ErrInsufficientBalance
		}

		if err := s.repo.AppendTransaction(txCtx, ports.CreditTransaction{
			UserID:       userID,
			Amount:       -amount,
			Kind:         domainledger.KindDeduction,
			Description:  description,
			BalanceAfter: newBalance,
			CreatedAt:    stamp(),
		}); err != nil {
			return err
		}
		balance = newBalance
		return nil
	})
	return balance, err
}

// SetBalance is an administrative override. The logged amount is the
// delta to the target, keeping the running-sum invariant intact.
func (s *Service) SetBalance(ctx context.Context, userID string, target int64) (int64, error) {
	if userID == "" {
		return 0, errors.New("user id is required")
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: %d", domainledger.ErrInvalidAmount, target)
	}

	var balance int64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.ensureAccount(txCtx, userID)
		if err != nil {
			return err
		}

		delta := target - account.Balance
		if delta == 0 {
			balance = account.Balance
			return nil
		}

		newBalance, ok, err := s.repo.AdjustBalance(txCtx, userID, delta, nil, stamp())
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("set balance affected no rows")
		}

		if err := s.repo.AppendTransaction(txCtx, ports.CreditTransaction{
			UserID:       userID,
			Amount:       delta,
			Kind:         domainledger.KindBonus,
			Description:  "administrative balance override",
			BalanceAfter: newBalance,
			CreatedAt:    stamp(),
		}); err != nil {
			return err
		}
		balance = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.Info(ctx, "balance override applied",
		slog.String("user_id", userID),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID string) ([]ports.CreditTransaction, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return s.repo.ListTransactions(ctx, userID)
}
