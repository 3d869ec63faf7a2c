package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/report"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
)

// ErrArchiveDisabled is returned by Archive when no object store is set up.
var ErrArchiveDisabled = errors.New("report archive is not configured")

// Archiver stores a rendered report and returns its object key.
type Archiver interface {
	Upload(ctx context.Context, userID, ext, contentType string, body []byte) (string, error)
}

// Report formats accepted by ReportService.Render and Archive.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type ReportService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	archiver    Archiver
	now         func() time.Time
}

// NewReportService builds the service; archiver may be nil.
func NewReportService(m repomanager.RepositoryManager, logger logging.Logger, archiver Archiver) *ReportService {
	return &ReportService{
		repomanager: m,
		logger:      logger.With("module", "reports"),
		archiver:    archiver,
		now:         time.Now,
	}
}

func (s *ReportService) Summary(ctx context.Context, userID string) (report.Summary, error) {
	txs, err := s.ledger(ctx, userID)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(txs, s.now()), nil
}

// ExportCSV writes the user's ledger, newest first.
func (s *ReportService) ExportCSV(ctx context.Context, userID string, w io.Writer) error {
	txs, err := s.ledger(ctx, userID)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, txs, false)
}

// ExportAllCSV writes every user's rows with a trailing UserId column.
func (s *ReportService) ExportAllCSV(ctx context.Context, w io.Writer) error {
	txs, err := s.repomanager.Transactions(s.repomanager.DB()).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("error listing transactions: %w", err)
	}
	return report.WriteCSV(w, txs, true)
}

func (s *ReportService) StatementPDF(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	txs, err := s.ledger(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return report.StatementPDF(report.Statement{
		UserName:     user.UserName,
		Balance:      user.Balance,
		GeneratedAt:  now,
		Summary:      report.Summarize(txs, now),
		Transactions: txs,
	})
}

// Render produces the report body and its content type.
func (s *ReportService) Render(ctx context.Context, userID, format string) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		if err := s.ExportCSV(ctx, userID, &buf); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	case FormatPDF:
		b, err := s.StatementPDF(ctx, userID)
		if err != nil {
			return nil, "", err
		}
		return b, "application/pdf", nil
	default:
		return nil, "", fmt.Errorf("%w: unknown report format %q", common.ErrorValidation, format)
	}
}

// Archive renders the report and uploads it, returning the object key.
func (s *ReportService) Archive(ctx context.Context, userID, format string) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}

	body, contentType, err := s.Render(ctx, userID, format)
	if err != nil {
		return "", err
	}

	key, err := s.archiver.Upload(ctx, userID, format, contentType, body)
	if err != nil {
		s.logger.Error(ctx, "report upload failed", "user_id", userID, "err", err)
		return "", fmt.Errorf("error archiving report: %w", err)
	}

	s.logger.Info(ctx, "report archived", "user_id", userID, "key", key, "bytes", len(body))
	return key, nil
}

// DownloadURL returns a temporary link to an archived report, or an empty
// string when the archiver cannot presign.
func (s *ReportService) DownloadURL(ctx context.Context, key string) (string, error) {
	l, ok := s.archiver.(linker)
	if !ok {
		return "", nil
	}
	return l.DownloadURL(ctx, key)
}

type linker interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

func (s *ReportService) ledger(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	txs, err := s.repomanager.Transactions(s.repomanager.DB()).ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}
