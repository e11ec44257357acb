package reportService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
)

// FilePrefix starts every report file name.
const FilePrefix = "portfolio-report-"

type PortfolioReader interface {
	GetPortfolioReport(ctx context.Context, portfolioID string) (model.PortfolioReport, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

type Export struct {
	FileName string
	File     []byte
	Link     string // empty when no cloud storage is configured
}

type ReportService struct {
	portfolios PortfolioReader
	generator  ReportGenerator
	storage    CloudStorage
}

// New builds the service; storage may be nil, then exports are only returned as bytes.
func New(portfolios PortfolioReader, generator ReportGenerator, storage CloudStorage) *ReportService {
	return &ReportService{
		portfolios: portfolios,
		generator:  generator,
		storage:    storage,
	}
}

func (s *ReportService) ExportPortfolio(ctx context.Context, portfolioID string) (export Export, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ReportService.ExportPortfolio"

	slog.Debug("ExportPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	defer func() {
		if err != nil {
			slog.Error("ExportPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ExportPortfolio completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("file", export.FileName))
		}
	}()

	report, err := s.portfolios.GetPortfolioReport(ctx, portfolioID)
	if err != nil {
		return Export{}, err
	}

	file, ext, err := s.generator.Generate(ctx, report)
	if err != nil {
		return Export{}, fmt.Errorf("generate report: %w", err)
	}

	export = Export{
		FileName: fmt.Sprintf("%s%s-%s%s", FilePrefix, report.Portfolio.ID, report.GeneratedAt.Format("20060102-150405"), ext),
		File:     file,
	}

	if s.storage == nil {
		return export, nil
	}

	export.Link, err = s.storage.UploadFile(ctx, bytes.NewReader(file), export.FileName)
	if err != nil {
		return Export{}, fmt.Errorf("upload report: %w", err)
	}

	return export, nil
}

// CleanupOldReports removes expired uploads. It is meant to run as a scheduled job.
func (s *ReportService) CleanupOldReports(ctx context.Context) error {
	if s.storage == nil {
		return errors.New("cloud storage is not configured")
	}

	ctx, cancel := context.WithTimeout(utils.WithRequestID(ctx), 5*time.Minute)
	defer cancel()

	return s.storage.DeleteOldFiles(ctx)
}
