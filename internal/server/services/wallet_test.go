package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/metrics"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertBalance(t *testing.T, s *WalletService, userID, want string) {
	t.Helper()
	got, err := s.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, dec(want).Equal(got), "balance: want %s, got %s", want, got)
}

func assertReconciled(t *testing.T, s *WalletService, userID string) {
	t.Helper()
	r, err := s.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, r.Balanced(), "drift %s", r.Drift)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, dec("12.5").Equal(d))

	d, err = ParseAmount("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseAmount("abc")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNormalizePaymentMethod(t *testing.T) {
	m, err := NormalizePaymentMethod(" gcash ")
	require.NoError(t, err)
	assert.Equal(t, "GCASH", m)

	m, err = NormalizePaymentMethod("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = NormalizePaymentMethod("barter")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	r, err := s.Deposit(ctx, u.ID, dec("100.004"), "float", "")
	require.NoError(t, err)
	assert.False(t, r.Replayed)
	assert.Equal(t, models.KindDeposit, r.Transaction.Kind)
	assert.Equal(t, "Deposit", r.Transaction.Customer)
	assert.Equal(t, "Deposit", r.Transaction.Item)
	assert.True(t, dec("100").Equal(r.Transaction.Revenue))
	assert.True(t, r.Transaction.Cost.IsZero())
	assert.Equal(t, models.Day(fixedNow), r.Transaction.Date)
	assert.NotEmpty(t, r.Transaction.ID)
	assert.True(t, dec("100").Equal(r.Balance))

	assertBalance(t, s, u.ID, "100")
	assertReconciled(t, s, u.ID)
}

func TestDeposit_RejectsNonPositive(t *testing.T) {
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	for _, a := range []string{"0", "-5", "0.001"} {
		_, err := s.Deposit(context.Background(), u.ID, dec(a), "", "")
		assert.ErrorIs(t, err, common.ErrorValidation, a)
	}
	assertBalance(t, s, u.ID, "0")
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	_, err := s.Deposit(ctx, u.ID, dec("50"), "", "")
	require.NoError(t, err)

	r, err := s.Withdraw(ctx, u.ID, dec("20"), "rent", "")
	require.NoError(t, err)
	assert.Equal(t, models.KindWithdraw, r.Transaction.Kind)
	assert.True(t, dec("20").Equal(r.Transaction.Cost))
	assert.True(t, r.Transaction.Revenue.IsZero())
	assertBalance(t, s, u.ID, "30")

	_, err = s.Withdraw(ctx, u.ID, dec("30.01"), "", "")
	assert.ErrorIs(t, err, common.ErrorInsufficientBalance)

	_, err = s.Withdraw(ctx, u.ID, dec("30"), "", "")
	require.NoError(t, err)
	assertBalance(t, s, u.ID, "0")

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 3, "failed withdrawal leaves no row")
	assertReconciled(t, s, u.ID)
}

func TestRecordTransaction(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	r, err := s.RecordTransaction(ctx, u.ID, TransactionInput{
		Customer: "ACME", Item: "Widget", PaymentMethod: "cash",
		Revenue: dec("100"), Cost: dec("40"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindSale, r.Transaction.Kind)
	assert.Equal(t, "CASH", r.Transaction.PaymentMethod)
	assert.Equal(t, models.Day(fixedNow), r.Transaction.Date, "date defaults to today")
	assert.True(t, dec("60").Equal(r.Transaction.Profit()))
	assertBalance(t, s, u.ID, "60")

	_, err = s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "Loss", Revenue: dec("10"), Cost: dec("100")})
	require.NoError(t, err)
	assertBalance(t, s, u.ID, "-30")
	assertReconciled(t, s, u.ID)
}

func TestRecordTransaction_Validation(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	cases := []TransactionInput{
		{Revenue: dec("1")},
		{Item: "x", Revenue: dec("-1")},
		{Item: "x", Cost: dec("-1")},
		{Item: "x", PaymentMethod: "cheque"},
	}
	for _, in := range cases {
		_, err := s.RecordTransaction(ctx, u.ID, in)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
}

func TestRecordTransaction_RequiresUser(t *testing.T) {
	m := newMemoryManager(t)
	s := newWallet(m)

	_, err := s.RecordTransaction(context.Background(), "", TransactionInput{Item: "x"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.RecordTransaction(context.Background(), "ghost", TransactionInput{Item: "x"})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestBuyItem(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")
	p := addProduct(t, m, "Coffee Beans", "12.50", 3)

	_, err := s.Deposit(ctx, u.ID, dec("30"), "", "")
	require.NoError(t, err)

	r, err := s.BuyItem(ctx, u.ID, "coffee beans", 2, "")
	require.NoError(t, err)
	assert.Equal(t, models.KindBuy, r.Transaction.Kind)
	assert.Equal(t, "Coffee Beans", r.Transaction.Item)
	assert.True(t, dec("25").Equal(r.Transaction.Cost))
	assert.True(t, dec("5").Equal(r.Balance))
	require.NotNil(t, r.Product)
	assert.Equal(t, 5, r.Product.Stock)

	stored, err := m.Products(nil).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
	assertReconciled(t, s, u.ID)
}

func TestBuyItem_InsufficientBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")
	p := addProduct(t, m, "Laptop", "999", 1)

	_, err := s.BuyItem(ctx, u.ID, p.ID, 1, "")
	assert.ErrorIs(t, err, common.ErrorInsufficientBalance)

	stored, err := m.Products(nil).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)
	assertBalance(t, s, u.ID, "0")
}

func TestBuyItem_Validation(t *testing.T) {
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	_, err := s.BuyItem(context.Background(), u.ID, "anything", 0, "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.BuyItem(context.Background(), u.ID, "missing", 1, "")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIdempotentDeposit(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	first, err := s.Deposit(ctx, u.ID, dec("10"), "", "key-1")
	require.NoError(t, err)

	again, err := s.Deposit(ctx, u.ID, dec("10"), "", "key-1")
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Transaction.ID, again.Transaction.ID)
	assertBalance(t, s, u.ID, "10")

	_, err = s.Withdraw(ctx, u.ID, dec("1"), "", "key-1")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	other := addUser(t, m, "bob")
	_, err = s.Deposit(ctx, other.ID, dec("5"), "", "key-1")
	require.NoError(t, err, "keys are scoped per user")
	assertBalance(t, s, other.ID, "5")
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")
	other := addUser(t, m, "bob")

	r, err := s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "Widget", Revenue: dec("100"), Cost: dec("30")})
	require.NoError(t, err)

	_, err = s.DeleteTransaction(ctx, other.ID, r.Transaction.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	bal, err := s.DeleteTransaction(ctx, u.ID, r.Transaction.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	assertBalance(t, s, u.ID, "0")

	_, err = s.DeleteTransaction(ctx, u.ID, r.Transaction.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assertReconciled(t, s, u.ID)
}

func TestListTransactions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	_, err := s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "old", Date: fixedNow.AddDate(0, 0, -3)})
	require.NoError(t, err)
	_, err = s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "first today"})
	require.NoError(t, err)
	_, err = s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "second today"})
	require.NoError(t, err)

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "second today", txs[0].Item)
	assert.Equal(t, "first today", txs[1].Item)
	assert.Equal(t, "old", txs[2].Item)

	_, err = s.ListTransactions(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRecentActions(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")
	addProduct(t, m, "Tea", "2", 0)

	_, err := s.Deposit(ctx, u.ID, dec("10"), "", "")
	require.NoError(t, err)
	_, err = s.RecordTransaction(ctx, u.ID, TransactionInput{Item: "sale", Revenue: dec("1")})
	require.NoError(t, err)
	_, err = s.Withdraw(ctx, u.ID, dec("3"), "atm", "")
	require.NoError(t, err)
	_, err = s.BuyItem(ctx, u.ID, "Tea", 1, "")
	require.NoError(t, err)

	all, err := s.RecentActions(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.WalletActionBuy, all[0].Type)
	assert.Equal(t, models.WalletActionWithdraw, all[1].Type)
	assert.Equal(t, "atm", all[1].Note)
	assert.Equal(t, models.WalletActionDeposit, all[2].Type)

	two, err := s.RecentActions(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestReconcile_ReportsDrift(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	_, err := s.Deposit(ctx, u.ID, dec("10"), "", "")
	require.NoError(t, err)
	require.NoError(t, m.Users(nil).UpdateBalance(ctx, u.ID, dec("12")))

	r, err := s.Reconcile(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, r.Balanced())
	assert.True(t, dec("2").Equal(r.Drift))
	assert.True(t, dec("10").Equal(r.LedgerProfit))
}

func TestConcurrentDeposits_KeepLedgerInvariant(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Deposit(ctx, u.ID, dec("2"), "", "")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.Withdraw(ctx, u.ID, dec("1"), "", "")
			if errors.Is(err, common.ErrorInsufficientBalance) {
				err = nil
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assertReconciled(t, s, u.ID)
	bal, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, bal.IsNegative())
}

func TestReconcile_BalancedWhileDepositsRun(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	s := newWallet(m)
	u := addUser(t, m, "alice")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := s.Deposit(ctx, u.ID, dec("1"), "", ""); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	drifted := 0
	for i := 0; i < 200; i++ {
		r, err := s.Reconcile(ctx, u.ID)
		require.NoError(t, err)
		if !r.Balanced() {
			drifted++
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, drifted)
	assertReconciled(t, s, u.ID)
}

func TestReconcile_UnknownUser(t *testing.T) {
	s := newWallet(newMemoryManager(t))

	_, err := s.Reconcile(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = s.Reconcile(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestWalletOperations_AreCounted(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager(t)
	mt := metrics.New()
	s := newWallet(m)
	s.metrics = mt
	u := addUser(t, m, "alice")

	_, err := s.Deposit(ctx, u.ID, dec("1"), "", "")
	require.NoError(t, err)
	_, err = s.Withdraw(ctx, u.ID, dec("5"), "", "")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(mt.Registry(), "trackify_wallet_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one ok series for deposit, one error series for withdraw")
}
