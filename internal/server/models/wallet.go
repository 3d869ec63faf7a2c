package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletAction is a display-only view of a deposit, withdrawal or purchase.
// It is projected from the ledger and never stored separately.
type WalletAction struct {
	Timestamp time.Time
	Type      string
	Amount    decimal.Decimal
	Note      string
}

const (
	WalletActionDeposit  = "Deposit"
	WalletActionWithdraw = "Withdraw"
	WalletActionBuy      = "Buy"
)

// WalletActionFromTransaction projects t; ok is false for plain sales.
func WalletActionFromTransaction(t *Transaction) (WalletAction, bool) {
	a := WalletAction{Timestamp: t.CreatedAt, Note: t.Notes}

	switch t.Kind {
	case KindDeposit:
		a.Type = WalletActionDeposit
		a.Amount = t.Revenue
	case KindWithdraw:
		a.Type = WalletActionWithdraw
		a.Amount = t.Cost
	case KindBuy:
		a.Type = WalletActionBuy
		a.Amount = t.Cost
		if a.Note == "" {
			a.Note = t.Item
		}
	default:
		return WalletAction{}, false
	}

	if a.Timestamp.IsZero() {
		a.Timestamp = t.Date
	}
	return a, true
}

// Reconciliation compares the stored balance with the ledger sum.
type Reconciliation struct {
	UserID       string
	Stored       decimal.Decimal
	LedgerProfit decimal.Decimal
	Drift        decimal.Decimal
}

func (r Reconciliation) Balanced() bool {
	return r.Drift.IsZero()
}
