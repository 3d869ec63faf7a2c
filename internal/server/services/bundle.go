package services

import (
	"context"

	"github.com/dmitrijs2005/trackify/internal/currency"
	"github.com/shopspring/decimal"
)

// Converter is the part of currency.Converter the front ends use.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal) currency.Conversion
}

// Bundle groups the services shared by the HTTP API and the terminal client.
type Bundle struct {
	Users     *UserService
	Wallet    *WalletService
	Products  *ProductService
	Reports   *ReportService
	Converter Converter
}
