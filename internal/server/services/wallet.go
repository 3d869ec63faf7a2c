package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/metrics"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

const (
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpRecord   = "record"
	OpBuy      = "buy"
	OpDelete   = "delete"
)

// PaymentMethods lists the accepted payment method labels.
var PaymentMethods = []string{"CASH", "PAYPAL", "GCASH", "CARD"}

// ParseAmount reads a decimal amount typed by a user. Blank input is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", common.ErrorValidation, s)
	}
	return d, nil
}

// NormalizePaymentMethod upper-cases m and checks it against
// PaymentMethods. Blank input stays blank.
func NormalizePaymentMethod(m string) (string, error) {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return "", nil
	}
	for _, pm := range PaymentMethods {
		if pm == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown payment method %q", common.ErrorValidation, m)
}

// TransactionInput is what a user fills in when recording a sale.
type TransactionInput struct {
	Date           time.Time
	Customer       string
	Item           string
	PaymentMethod  string
	Revenue        decimal.Decimal
	Cost           decimal.Decimal
	Notes          string
	IdempotencyKey string
}

// Receipt is the outcome of a balance mutation. Replayed is set when an
// idempotency key matched an earlier row and nothing was written.
type Receipt struct {
	Transaction *models.Transaction
	Balance     decimal.Decimal
	Replayed    bool
	Product     *models.Product
}

// WalletService owns every change to a user's balance. Each mutation
// appends exactly one ledger row and updates the balance in the same
// database transaction.
type WalletService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewWalletService(m repomanager.RepositoryManager, logger logging.Logger, mt *metrics.Metrics) *WalletService {
	return &WalletService{
		repomanager: m,
		logger:      logger.With("module", "wallet"),
		metrics:     mt,
		now:         time.Now,
	}
}

func (s *WalletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, note, idempotencyKey string) (*Receipt, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", common.ErrorValidation)
	}

	return s.apply(ctx, mutation{
		op:             OpDeposit,
		kind:           models.KindDeposit,
		userID:         userID,
		idempotencyKey: idempotencyKey,
		build: func(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.Transaction, error) {
			return &models.Transaction{
				Date:     models.Day(s.now()),
				Customer: "Deposit",
				Item:     "Deposit",
				Revenue:  amount,
				Cost:     decimal.Zero,
				Notes:    note,
			}, nil
		},
	})
}

func (s *WalletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, note, idempotencyKey string) (*Receipt, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", common.ErrorValidation)
	}

	return s.apply(ctx, mutation{
		op:             OpWithdraw,
		kind:           models.KindWithdraw,
		userID:         userID,
		idempotencyKey: idempotencyKey,
		build: func(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.Transaction, error) {
			if user.Balance.LessThan(amount) {
				return nil, common.ErrorInsufficientBalance
			}
			return &models.Transaction{
				Date:     models.Day(s.now()),
				Customer: "Withdraw",
				Item:     "Withdraw",
				Revenue:  decimal.Zero,
				Cost:     amount,
				Notes:    note,
			}, nil
		},
	})
}

// RecordTransaction stores a sale and credits its profit, which may be
// negative, to the balance.
func (s *WalletService) RecordTransaction(ctx context.Context, userID string, in TransactionInput) (*Receipt, error) {
	in.Customer = strings.TrimSpace(in.Customer)
	in.Item = strings.TrimSpace(in.Item)
	if in.Customer == "" && in.Item == "" {
		return nil, fmt.Errorf("%w: customer or item is required", common.ErrorValidation)
	}
	if in.Revenue.IsNegative() || in.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: revenue and cost must not be negative", common.ErrorValidation)
	}
	method, err := NormalizePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	return s.apply(ctx, mutation{
		op:             OpRecord,
		kind:           models.KindSale,
		userID:         userID,
		idempotencyKey: in.IdempotencyKey,
		build: func(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.Transaction, error) {
			return &models.Transaction{
				Date:          models.Day(date),
				Customer:      in.Customer,
				Item:          in.Item,
				PaymentMethod: method,
				Revenue:       in.Revenue.Round(2),
				Cost:          in.Cost.Round(2),
				Notes:         strings.TrimSpace(in.Notes),
			}, nil
		},
	})
}

// BuyItem purchases quantity units of a product, found by ID or by name,
// paying from the wallet and adding the units to stock.
func (s *WalletService) BuyItem(ctx context.Context, userID, product string, quantity int, idempotencyKey string) (*Receipt, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrorValidation)
	}
	if strings.TrimSpace(product) == "" {
		return nil, fmt.Errorf("%w: product is required", common.ErrorValidation)
	}

	var bought *models.Product
	r, err := s.apply(ctx, mutation{
		op:             OpBuy,
		kind:           models.KindBuy,
		userID:         userID,
		idempotencyKey: idempotencyKey,
		build: func(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.Transaction, error) {
			repo := s.repomanager.Products(tx)

			p, err := findProduct(ctx, repo, product)
			if err != nil {
				return nil, err
			}

			cost := p.PriceUSD.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
			if user.Balance.LessThan(cost) {
				return nil, common.ErrorInsufficientBalance
			}
			if err := repo.AdjustStock(ctx, p.ID, quantity); err != nil {
				return nil, fmt.Errorf("error updating stock: %w", err)
			}
			p.Stock += quantity
			bought = p

			return &models.Transaction{
				Date:     models.Day(s.now()),
				Customer: "Buy",
				Item:     p.Name,
				Revenue:  decimal.Zero,
				Cost:     cost,
				Notes:    fmt.Sprintf("%d x %s @ %s", quantity, p.Name, p.PriceUSD.StringFixed(2)),
			}, nil
		},
	})
	if err != nil {
		return nil, err
	}
	r.Product = bought
	return r, nil
}

// DeleteTransaction removes one of the user's rows and reverses its effect
// on the balance. Rows of other users are reported as not found.
func (s *WalletService) DeleteTransaction(ctx context.Context, userID, txID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, common.ErrorUnauthorized
	}

	var balance decimal.Decimal
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := lockUser(ctx, users, userID)
		if err != nil {
			return err
		}

		txs := s.repomanager.Transactions(tx)
		t, err := txs.GetByID(ctx, txID)
		if err != nil {
			return fmt.Errorf("error loading transaction: %w", err)
		}
		if t.UserID != user.ID {
			return fmt.Errorf("error loading transaction: %w", common.ErrorNotFound)
		}

		if err := txs.Delete(ctx, t.ID); err != nil {
			return fmt.Errorf("error deleting transaction: %w", err)
		}

		balance = user.Balance.Sub(t.Profit())
		if err := users.UpdateBalance(ctx, user.ID, balance); err != nil {
			return fmt.Errorf("error updating balance: %w", err)
		}
		return nil
	})

	s.metrics.WalletOperation(OpDelete, err)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info(ctx, "transaction deleted", "user_id", userID, "tx_id", txID, "balance", balance.StringFixed(2))
	return balance, nil
}

// ListTransactions returns the user's ledger newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	txs, err := s.repomanager.Transactions(s.repomanager.DB()).ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}

func (s *WalletService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, common.ErrorUnauthorized
	}
	u, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return decimal.Zero, common.ErrorUnauthorized
		}
		return decimal.Zero, fmt.Errorf("error loading user: %w", err)
	}
	return u.Balance, nil
}

// RecentActions projects the newest deposits, withdrawals and purchases.
// A non-positive limit returns all of them.
func (s *WalletService) RecentActions(ctx context.Context, userID string, limit int) ([]models.WalletAction, error) {
	txs, err := s.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	actions := make([]models.WalletAction, 0)
	for _, t := range txs {
		if limit > 0 && len(actions) == limit {
			break
		}
		if a, ok := models.WalletActionFromTransaction(t); ok {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

// Reconcile compares the stored balance with the sum of ledger profits.
// Both are read under the user lock so a concurrent mutation cannot show up
// in one and not the other.
func (s *WalletService) Reconcile(ctx context.Context, userID string) (models.Reconciliation, error) {
	if userID == "" {
		return models.Reconciliation{}, common.ErrorUnauthorized
	}

	var r models.Reconciliation
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := lockUser(ctx, s.repomanager.Users(tx), userID)
		if err != nil {
			return err
		}

		sum, err := s.repomanager.Transactions(tx).SumProfitForUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("error summing ledger: %w", err)
		}

		r = models.Reconciliation{
			UserID:       user.ID,
			Stored:       user.Balance,
			LedgerProfit: sum,
			Drift:        user.Balance.Sub(sum),
		}
		return nil
	})
	if err != nil {
		return models.Reconciliation{}, err
	}

	if !r.Balanced() {
		s.logger.Warn(ctx, "balance drift detected", "user_id", userID, "drift", r.Drift.StringFixed(2))
	}
	return r, nil
}

type mutation struct {
	op             string
	kind           models.TransactionKind
	userID         string
	idempotencyKey string
	// build runs with the user row locked and returns the row to append.
	build func(ctx context.Context, tx dbx.DBTX, user *models.User) (*models.Transaction, error)
}

func (s *WalletService) apply(ctx context.Context, mu mutation) (*Receipt, error) {
	if mu.userID == "" {
		return nil, common.ErrorUnauthorized
	}
	key := strings.TrimSpace(mu.idempotencyKey)

	var r *Receipt
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := lockUser(ctx, users, mu.userID)
		if err != nil {
			return err
		}

		txs := s.repomanager.Transactions(tx)
		if key != "" {
			prev, err := txs.GetByIdempotencyKey(ctx, user.ID, key)
			switch {
			case err == nil:
				if prev.Kind != mu.kind {
					return fmt.Errorf("%w: idempotency key %q already used for a %s", common.ErrorAlreadyExists, key, prev.Kind)
				}
				r = &Receipt{Transaction: prev, Balance: user.Balance, Replayed: true}
				return nil
			case !errors.Is(err, common.ErrorNotFound):
				return fmt.Errorf("error checking idempotency key: %w", err)
			}
		}

		t, err := mu.build(ctx, tx, user)
		if err != nil {
			return err
		}
		t.UserID = user.ID
		t.Kind = mu.kind
		t.IdempotencyKey = key

		created, err := txs.Create(ctx, t)
		if err != nil {
			return fmt.Errorf("error creating transaction: %w", err)
		}

		balance := user.Balance.Add(created.Profit())
		if err := users.UpdateBalance(ctx, user.ID, balance); err != nil {
			return fmt.Errorf("error updating balance: %w", err)
		}

		r = &Receipt{Transaction: created, Balance: balance}
		return nil
	})

	s.metrics.WalletOperation(mu.op, err)
	if err != nil {
		if !isClientError(err) {
			s.logger.Error(ctx, "wallet operation failed", "op", mu.op, "user_id", mu.userID, "err", err)
		}
		return nil, err
	}

	if !r.Replayed {
		s.logger.Info(ctx, "wallet operation applied",
			"op", mu.op, "user_id", mu.userID, "tx_id", r.Transaction.ID, "balance", r.Balance.StringFixed(2))
	}
	return r, nil
}

type userLocker interface {
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
}

func lockUser(ctx context.Context, repo userLocker, userID string) (*models.User, error) {
	user, err := repo.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error locking user: %w", err)
	}
	return user, nil
}

type productFinder interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
}

func findProduct(ctx context.Context, repo productFinder, ref string) (*models.Product, error) {
	ref = strings.TrimSpace(ref)
	p, err := repo.GetByID(ctx, ref)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading product: %w", err)
	}
	p, err = repo.GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("error loading product %q: %w", ref, err)
	}
	return p, nil
}

func isClientError(err error) bool {
	for _, target := range []error{
		common.ErrorValidation,
		common.ErrorNotFound,
		common.ErrorUnauthorized,
		common.ErrorInsufficientBalance,
		common.ErrorAlreadyExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
