package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectTransaction = `SELECT id, user_id, date, customer, item, payment_method, revenue, cost, notes, kind, idempotency_key, created_at
		 FROM transactions`

const newestFirst = ` ORDER BY date DESC, created_at DESC`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t    models.Transaction
		kind string
		key  sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Date, &t.Customer, &t.Item, &t.PaymentMethod,
		&t.Revenue, &t.Cost, &t.Notes, &kind, &key, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Kind = models.TransactionKind(kind)
	t.IdempotencyKey = key.String
	return &t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if t.ID != "" && !dbx.IsUUID(t.ID) {
		return nil, fmt.Errorf("%w: transaction id %q", common.ErrorValidation, t.ID)
	}

	query :=
		`INSERT INTO transactions (id, user_id, date, customer, item, payment_method, revenue, cost, notes, kind, idempotency_key)
		 VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.Date, t.Customer, t.Item, t.PaymentMethod,
		t.Revenue, t.Cost, t.Notes, string(t.Kind), t.IdempotencyKey,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return nil, common.ErrorAlreadyExists
		case dbx.IsForeignKeyViolation(err):
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	if !dbx.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectTransaction+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Transaction, error) {
	if !dbx.IsUUID(userID) || key == "" {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectTransaction+` WHERE user_id = $1 AND idempotency_key = $2`, userID, key)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if !dbx.IsUUID(userID) {
		return []*models.Transaction{}, nil
	}
	return r.list(ctx, selectTransaction+` WHERE user_id = $1`+newestFirst, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	return r.list(ctx, selectTransaction+newestFirst)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SumProfitForUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	if !dbx.IsUUID(userID) {
		return decimal.Zero, nil
	}

	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(revenue - cost), 0) FROM transactions WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return sum, nil
}
