package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/filex"
	"github.com/dmitrijs2005/trackify/internal/server/services"
)

func (a *App) Convert(ctx context.Context, args []string) error {
	raw, err := a.argOrPrompt(args, 0, "Amount in USD:")
	if err != nil {
		return err
	}
	amount, err := services.ParseAmount(raw)
	if err != nil {
		return err
	}

	c := a.svc.Converter.Convert(ctx, amount)
	a.printf("%s %s = %s %s\n", c.Amount.StringFixed(2), c.From, c.Result.StringFixed(2), c.To)
	if !c.Live {
		a.println("(offline rate)")
	}
	return nil
}

func (a *App) Summary(ctx context.Context, _ []string) error {
	s, err := a.svc.Reports.Summary(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	a.printf("Transactions:   %d\n", s.Count)
	a.printf("Revenue:        $%s\n", s.Revenue.StringFixed(2))
	a.printf("Cost:           $%s\n", s.Cost.StringFixed(2))
	a.printf("Profit:         $%s\n", s.Profit.StringFixed(2))
	a.printf("Weekly profit:  $%s\n", s.WeeklyProfit.StringFixed(2))
	a.printf("Monthly profit: $%s\n", s.MonthlyProfit.StringFixed(2))
	return nil
}

// Export writes the ledger as CSV under ./exports. "export all" dumps every
// user's rows with a trailing UserId column.
func (a *App) Export(ctx context.Context, args []string) error {
	var buf bytes.Buffer
	name := a.defaultFileName("transactions", "csv")

	if len(args) > 0 && strings.EqualFold(args[0], "all") {
		name = a.defaultFileName("all_transactions", "csv")
		if err := a.svc.Reports.ExportAllCSV(ctx, &buf); err != nil {
			return err
		}
	} else {
		if len(args) > 0 {
			name = args[0]
		}
		if err := a.svc.Reports.ExportCSV(ctx, a.session.UserID, &buf); err != nil {
			return err
		}
	}

	return a.save(name, buf.Bytes())
}

func (a *App) Statement(ctx context.Context, args []string) error {
	name := a.defaultFileName("statement", "pdf")
	if len(args) > 0 {
		name = args[0]
	}

	body, err := a.svc.Reports.StatementPDF(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	return a.save(name, body)
}

func (a *App) Archive(ctx context.Context, args []string) error {
	format := services.FormatPDF
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	key, err := a.svc.Reports.Archive(ctx, a.session.UserID, format)
	if err != nil {
		return err
	}
	a.printf("Archived as %s\n", key)

	url, err := a.svc.Reports.DownloadURL(ctx, key)
	if err != nil {
		return err
	}
	if url != "" {
		a.printf("Download: %s\n", url)
	}
	return nil
}

func (a *App) defaultFileName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, a.session.UserName, a.now().Format("20060102_150405"), ext)
}

func (a *App) save(name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: file name is required", common.ErrorValidation)
	}
	path, err := filex.WriteInSubDir(exportDir, name, data)
	if err != nil {
		return err
	}
	a.printf("Saved %s\n", path)
	return nil
}
