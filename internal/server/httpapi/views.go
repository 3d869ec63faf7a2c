package httpapi

import (
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/report"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/services"
)

type transactionView struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Customer      string    `json:"customer"`
	Item          string    `json:"item"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Revenue       string    `json:"revenue"`
	Cost          string    `json:"cost"`
	Profit        string    `json:"profit"`
	Notes         string    `json:"notes,omitempty"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

func newTransactionView(t *models.Transaction) transactionView {
	return transactionView{
		ID:            t.ID,
		Date:          t.Date.Format(common.DateLayout),
		Customer:      t.Customer,
		Item:          t.Item,
		PaymentMethod: t.PaymentMethod,
		Revenue:       t.Revenue.StringFixed(2),
		Cost:          t.Cost.StringFixed(2),
		Profit:        t.Profit().StringFixed(2),
		Notes:         t.Notes,
		Kind:          string(t.Kind),
		CreatedAt:     t.CreatedAt,
	}
}

func newTransactionViews(txs []*models.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, newTransactionView(t))
	}
	return out
}

type receiptView struct {
	Transaction transactionView `json:"transaction"`
	Balance     string          `json:"balance"`
	Replayed    bool            `json:"replayed,omitempty"`
	Product     *productView    `json:"product,omitempty"`
}

func newReceiptView(r *services.Receipt) receiptView {
	v := receiptView{
		Transaction: newTransactionView(r.Transaction),
		Balance:     r.Balance.StringFixed(2),
		Replayed:    r.Replayed,
	}
	if r.Product != nil {
		pv := newProductView(r.Product)
		v.Product = &pv
	}
	return v
}

type productView struct {
	ID       string `json:"id"`
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	PriceUSD string `json:"price_usd"`
	Stock    int    `json:"stock"`
}

func newProductView(p *models.Product) productView {
	return productView{
		ID:       p.ID,
		SKU:      p.SKU,
		Name:     p.Name,
		Category: p.Category,
		PriceUSD: p.PriceUSD.StringFixed(2),
		Stock:    p.Stock,
	}
}

type actionView struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Amount    string    `json:"amount"`
	Note      string    `json:"note,omitempty"`
}

type summaryView struct {
	Count         int    `json:"count"`
	Revenue       string `json:"revenue"`
	Cost          string `json:"cost"`
	Profit        string `json:"profit"`
	WeeklyProfit  string `json:"weekly_profit"`
	MonthlyProfit string `json:"monthly_profit"`
}

func newSummaryView(s report.Summary) summaryView {
	return summaryView{
		Count:         s.Count,
		Revenue:       s.Revenue.StringFixed(2),
		Cost:          s.Cost.StringFixed(2),
		Profit:        s.Profit.StringFixed(2),
		WeeklyProfit:  s.WeeklyProfit.StringFixed(2),
		MonthlyProfit: s.MonthlyProfit.StringFixed(2),
	}
}
