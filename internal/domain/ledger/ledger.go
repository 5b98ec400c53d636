package ledger

import "errors"

// TransactionKind is the business reason recorded with each ledger entry.
type TransactionKind string

const (
	KindPurchase  TransactionKind = "purchase"
	KindBonus     TransactionKind = "bonus"
	KindDeduction TransactionKind = "deduction"
	KindRefund    TransactionKind = "refund"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient credit balance")
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindPurchase, KindBonus, KindDeduction, KindRefund:
		return true
	default:
		return false
	}
}
