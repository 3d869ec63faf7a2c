package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string
	SKU       string
	Name      string
	Category  string
	PriceUSD  decimal.Decimal
	Stock     int
	CreatedAt time.Time
}
