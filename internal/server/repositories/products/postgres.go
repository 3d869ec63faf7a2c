package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/dbx"
	"github.com/dmitrijs2005/trackify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProduct = `SELECT id, sku, name, category, price_usd, stock, created_at FROM products`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.PriceUSD, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO products (sku, name, category, price_usd, stock)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, p.SKU, p.Name, p.Category, p.PriceUSD, p.Stock).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	if !dbx.IsUUID(p.ID) {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE products SET sku = $1, name = $2, category = $3, price_usd = $4, stock = $5
		 WHERE id = $6`

	return r.exec(ctx, query, p.SKU, p.Name, p.Category, p.PriceUSD, p.Stock, p.ID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if !dbx.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, selectProduct+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	p, err := r.getOne(ctx, selectProduct+` WHERE name = $1 ORDER BY created_at LIMIT 1`, name)
	if !errors.Is(err, common.ErrorNotFound) {
		return p, err
	}
	return r.getOne(ctx, selectProduct+` WHERE lower(name) = lower($1) ORDER BY created_at LIMIT 1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectProduct+` ORDER BY name, created_at`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetStock(ctx context.Context, id string, stock int) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	return r.exec(ctx, `UPDATE products SET stock = $1 WHERE id = $2`, stock, id)
}

// AdjustStock adds delta in a single conditional statement, so concurrent
// decrements cannot take the stock below zero.
func (r *PostgresRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}

	err := r.exec(ctx, `UPDATE products SET stock = stock + $1 WHERE id = $2 AND stock + $1 >= 0`, delta, id)
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	var stock int
	if err := r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return fmt.Errorf("%w: only %d in stock", common.ErrorValidation, stock)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !dbx.IsUUID(id) {
		return common.ErrorNotFound
	}
	return r.exec(ctx, `DELETE FROM products WHERE id = $1`, id)
}

// exec runs a single-row statement; no affected row means not found.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
