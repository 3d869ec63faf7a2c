// Package report renders ledger rows as CSV exports, PDF statements and
// KPI summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
)

// CSVHeader is the column layout of every export.
var CSVHeader = []string{"Date", "Customer", "Item", "Payment Method", "Revenue", "Cost", "Profit", "Notes"}

const userIDColumn = "UserId"

// WriteCSV writes one row per transaction in the given order. withUserID
// appends a trailing UserId column, used for multi-user exports.
func WriteCSV(w io.Writer, txs []*models.Transaction, withUserID bool) error {
	cw := csv.NewWriter(w)

	header := CSVHeader
	if withUserID {
		header = append(append([]string{}, CSVHeader...), userIDColumn)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	for _, t := range txs {
		record := []string{
			formatDate(t),
			t.Customer,
			t.Item,
			t.PaymentMethod,
			t.Revenue.StringFixed(2),
			t.Cost.StringFixed(2),
			t.Profit().StringFixed(2),
			t.Notes,
		}
		if withUserID {
			record = append(record, t.UserID)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv row %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *models.Transaction) string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format(common.DateLayout)
}
