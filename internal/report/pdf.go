package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

// Statement is the input of StatementPDF.
type Statement struct {
	UserName     string
	Balance      decimal.Decimal
	GeneratedAt  time.Time
	Summary      Summary
	Transactions []*models.Transaction
}

const maxStatementRows = 500

var (
	statementCols    = []float64{24, 34, 40, 26, 26, 26}
	statementHeaders = []string{"DATE", "CUSTOMER", "ITEM", "REVENUE", "COST", "PROFIT"}
)

// StatementPDF renders an A4 statement: KPI boxes followed by the
// transaction table, newest first as given.
func StatementPDF(st Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetTitle("Trackify statement", true)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Trackify Statement")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "User: "+st.UserName)
	pdf.Ln(5)
	pdf.Cell(0, 6, "Generated: "+st.GeneratedAt.Format(common.TimestampLayout))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Wallet balance (USD): "+st.Balance.StringFixed(2))
	pdf.Ln(10)

	writeKPIs(pdf, st.Summary)
	pdf.Ln(6)

	writeTableHeader(pdf)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)

	for i, t := range st.Transactions {
		if i >= maxStatementRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("%d more rows omitted", len(st.Transactions)-maxStatementRows), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			writeTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		cells := []string{
			formatDate(t),
			trimTo(t.Customer, 20),
			trimTo(t.Item, 24),
			t.Revenue.StringFixed(2),
			t.Cost.StringFixed(2),
			t.Profit().StringFixed(2),
		}
		for c, v := range cells {
			align := "L"
			if c >= 3 {
				align = "R"
			}
			ln := 0
			if c == len(cells)-1 {
				ln = 1
			}
			pdf.CellFormat(statementCols[c], 7, v, "1", ln, align, false, 0, "")
		}
	}

	if len(st.Transactions) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 8, "No transactions recorded.", "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeKPIs(pdf *gofpdf.Fpdf, s Summary) {
	labels := []string{"Revenue", "Cost", "Profit", "Last 7 days", "This month"}
	values := []decimal.Decimal{s.Revenue, s.Cost, s.Profit, s.WeeklyProfit, s.MonthlyProfit}
	w := 182.0 / float64(len(labels))

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)
	for i, l := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(w, 8, l, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	for i, v := range values {
		ln := 0
		if i == len(values)-1 {
			ln = 1
		}
		pdf.CellFormat(w, 8, v.StringFixed(2), "1", ln, "C", false, 0, "")
	}
}

func writeTableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(20, 20, 20)
	for i, h := range statementHeaders {
		ln := 0
		if i == len(statementHeaders)-1 {
			ln = 1
		}
		pdf.CellFormat(statementCols[i], 8, h, "1", ln, "C", true, 0, "")
	}
}

func trimTo(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
