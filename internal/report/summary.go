package report

import (
	"time"

	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/shopspring/decimal"
)

// Summary holds the dashboard KPIs of a set of transactions.
type Summary struct {
	Count         int
	Revenue       decimal.Decimal
	Cost          decimal.Decimal
	Profit        decimal.Decimal
	WeeklyProfit  decimal.Decimal
	MonthlyProfit decimal.Decimal
}

// Summarize totals txs relative to now. The weekly window covers the
// seven days before today plus today; the monthly one is the current
// calendar month. Rows dated in the future count only toward the totals.
func Summarize(txs []*models.Transaction, now time.Time) Summary {
	today := models.Day(now)
	weekStart := today.AddDate(0, 0, -7)

	s := Summary{
		Revenue:       decimal.Zero,
		Cost:          decimal.Zero,
		WeeklyProfit:  decimal.Zero,
		MonthlyProfit: decimal.Zero,
	}

	for _, t := range txs {
		s.Count++
		s.Revenue = s.Revenue.Add(t.Revenue)
		s.Cost = s.Cost.Add(t.Cost)

		if t.Date.IsZero() {
			continue
		}
		day := models.Day(t.Date)

		if !day.After(today) && !day.Before(weekStart) {
			s.WeeklyProfit = s.WeeklyProfit.Add(t.Profit())
		}
		if day.Year() == today.Year() && day.Month() == today.Month() {
			s.MonthlyProfit = s.MonthlyProfit.Add(t.Profit())
		}
	}

	s.Profit = s.Revenue.Sub(s.Cost)
	return s
}
