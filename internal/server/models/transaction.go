package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tells apart ordinary sales from wallet movements.
type TransactionKind string

const (
	KindSale     TransactionKind = "sale"
	KindDeposit  TransactionKind = "deposit"
	KindWithdraw TransactionKind = "withdraw"
	KindBuy      TransactionKind = "buy"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindSale, KindDeposit, KindWithdraw, KindBuy:
		return true
	}
	return false
}

// IsWalletAction reports whether rows of this kind show up in the wallet
// history.
func (k TransactionKind) IsWalletAction() bool {
	return k == KindDeposit || k == KindWithdraw || k == KindBuy
}

// Transaction is one ledger row. Profit is never stored on the struct;
// it is always Revenue - Cost.
type Transaction struct {
	ID             string
	UserID         string
	Date           time.Time
	Customer       string
	Item           string
	PaymentMethod  string
	Revenue        decimal.Decimal
	Cost           decimal.Decimal
	Notes          string
	Kind           TransactionKind
	IdempotencyKey string
	CreatedAt      time.Time
}

func (t *Transaction) Profit() decimal.Decimal {
	return t.Revenue.Sub(t.Cost)
}

// Day truncates tm to a calendar day in UTC.
func Day(tm time.Time) time.Time {
	y, m, d := tm.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
