package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/services"
	"github.com/shopspring/decimal"
)

const recentActions = 10

func (a *App) Balance(ctx context.Context, _ []string) error {
	balance, err := a.svc.Wallet.Balance(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	a.printf("Balance: $%s\n", balance.StringFixed(2))

	actions, err := a.svc.Wallet.RecentActions(ctx, a.session.UserID, recentActions)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	a.println("Recent wallet actions:")
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, act := range actions {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", act.Timestamp.Format(time.DateTime), act.Type, act.Amount.StringFixed(2), act.Note)
	}
	return tw.Flush()
}

func (a *App) Deposit(ctx context.Context, args []string) error {
	raw, err := a.argOrPrompt(args, 0, "Amount to deposit (USD):")
	if err != nil {
		return err
	}
	amount, err := services.ParseAmount(raw)
	if err != nil {
		return err
	}

	r, err := a.svc.Wallet.Deposit(ctx, a.session.UserID, amount, "", "")
	if err != nil {
		return err
	}
	a.printf("Deposited $%s. New balance: $%s\n", amount.StringFixed(2), r.Balance.StringFixed(2))
	return nil
}

func (a *App) Withdraw(ctx context.Context, args []string) error {
	raw, err := a.argOrPrompt(args, 0, "Amount to withdraw (USD):")
	if err != nil {
		return err
	}
	amount, err := services.ParseAmount(raw)
	if err != nil {
		return err
	}

	r, err := a.svc.Wallet.Withdraw(ctx, a.session.UserID, amount, "", "")
	if err != nil {
		return err
	}
	a.printf("Withdrew $%s. New balance: $%s\n", amount.StringFixed(2), r.Balance.StringFixed(2))
	return nil
}

// Record asks for every ledger field in turn. Blank numbers count as zero
// and a blank date means today.
func (a *App) Record(ctx context.Context, _ []string) error {
	var in services.TransactionInput

	prompts := []struct {
		label string
		dst   *string
	}{
		{"Customer:", &in.Customer},
		{"Item:", &in.Item},
		{"Payment method (" + strings.Join(services.PaymentMethods, "/") + "):", &in.PaymentMethod},
		{"Notes:", &in.Notes},
	}

	date, err := GetSimpleText(a.reader, "Date (YYYY-MM-DD, blank for today):", a.out)
	if err != nil {
		return err
	}
	if date != "" {
		in.Date, err = time.Parse(common.DateLayout, date)
		if err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", common.ErrorValidation)
		}
	}

	for _, p := range prompts {
		if *p.dst, err = GetSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}

	if in.Revenue, err = a.promptAmount("Revenue (USD):"); err != nil {
		return err
	}
	if in.Cost, err = a.promptAmount("Cost (USD):"); err != nil {
		return err
	}

	r, err := a.svc.Wallet.RecordTransaction(ctx, a.session.UserID, in)
	if err != nil {
		return err
	}
	a.printf("Recorded %s (profit $%s). New balance: $%s\n",
		r.Transaction.ID, r.Transaction.Profit().StringFixed(2), r.Balance.StringFixed(2))
	return nil
}

func (a *App) promptAmount(prompt string) (decimal.Decimal, error) {
	raw, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return decimal.Zero, err
	}
	return services.ParseAmount(raw)
}

func (a *App) List(ctx context.Context, _ []string) error {
	txs, err := a.svc.Wallet.ListTransactions(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		a.println("No transactions recorded.")
		return nil
	}
	return a.printTransactions(txs)
}

func (a *App) printTransactions(txs []*models.Transaction) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tITEM\tPAYMENT\tREVENUE\tCOST\tPROFIT")
	for _, t := range txs {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(common.DateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, date, t.Customer, t.Item, t.PaymentMethod,
			t.Revenue.StringFixed(2), t.Cost.StringFixed(2), t.Profit().StringFixed(2))
	}
	return tw.Flush()
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, 0, "Transaction ID:")
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: transaction id is required", common.ErrorValidation)
	}

	balance, err := a.svc.Wallet.DeleteTransaction(ctx, a.session.UserID, id)
	if err != nil {
		return err
	}
	a.printf("Deleted %s. New balance: $%s\n", id, balance.StringFixed(2))
	return nil
}

func (a *App) Reconcile(ctx context.Context, _ []string) error {
	r, err := a.svc.Wallet.Reconcile(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	a.printf("Stored balance: $%s\nLedger profit:  $%s\n", r.Stored.StringFixed(2), r.LedgerProfit.StringFixed(2))
	if r.Balanced() {
		a.println("Balance matches the ledger.")
	} else {
		a.printf("Drift: $%s\n", r.Drift.StringFixed(2))
	}
	return nil
}
