package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet      = "Summary"
	HoldingsSheet     = "Holdings"
	TransactionsSheet = "Transactions"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", report.Portfolio.ID))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, "", err
	}

	if err = f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, "", err
	}
	if err = fillSummary(f, report, headerStyle); err != nil {
		return nil, "", fmt.Errorf("fill summary: %w", err)
	}
	if err = fillHoldings(f, report, headerStyle); err != nil {
		return nil, "", fmt.Errorf("fill holdings: %w", err)
	}
	if err = fillTransactions(f, report, headerStyle); err != nil {
		return nil, "", fmt.Errorf("fill transactions: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func newHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
}

func setHeader(f *excelize.File, sheet string, styleID int, titles ...string) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellStr(sheet, cell, title); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, styleID)
}

func fillSummary(f *excelize.File, report model.PortfolioReport, styleID int) error {
	if err := setHeader(f, SummarySheet, styleID, "field", "value"); err != nil {
		return err
	}

	rows := [][]any{
		{"portfolio", report.Portfolio.Name},
		{"portfolio id", report.Portfolio.ID},
		{"user", report.Portfolio.UserID},
		{"created at", report.Portfolio.CreatedAt.Format(time.RFC3339)},
		{"total value", report.Value.TotalValue.InexactFloat64()},
		{"total invested", report.Value.TotalInvested.InexactFloat64()},
		{"return", report.Value.ReturnAmount.InexactFloat64()},
		{"return %", report.Value.ReturnPercentage.InexactFloat64()},
		{"realized gains", report.RealizedGains.InexactFloat64()},
		{"daily %", report.Performance.Daily.InexactFloat64()},
		{"weekly %", report.Performance.Weekly.InexactFloat64()},
		{"monthly %", report.Performance.Monthly.InexactFloat64()},
		{"generated at", report.GeneratedAt.Format(time.RFC3339)},
	}

	for i, row := range rows {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func fillHoldings(f *excelize.File, report model.PortfolioReport, styleID int) error {
	if _, err := f.NewSheet(HoldingsSheet); err != nil {
		return err
	}
	err := setHeader(f, HoldingsSheet, styleID,
		"fund", "symbol", "quantity", "avg price", "current price", "current value", "gain/loss", "gain/loss %")
	if err != nil {
		return err
	}

	for i, h := range report.Holdings {
		row := []any{
			h.Fund.Name,
			h.Fund.Symbol,
			h.Quantity.InexactFloat64(),
			h.AveragePurchasePrice.Round(2).InexactFloat64(),
			h.Fund.CurrentPrice.InexactFloat64(),
			h.CurrentValue.Round(2).InexactFloat64(),
			h.GainLoss.Round(2).InexactFloat64(),
			h.GainLossPercentage.Round(2).InexactFloat64(),
		}
		if err = f.SetSheetRow(HoldingsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func fillTransactions(f *excelize.File, report model.PortfolioReport, styleID int) error {
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return err
	}
	err := setHeader(f, TransactionsSheet, styleID, "id", "date", "type", "fund", "quantity", "price", "total")
	if err != nil {
		return err
	}

	for i, t := range report.Transactions {
		row := []any{
			t.ID,
			t.Timestamp.Format(time.RFC3339),
			string(t.Type),
			t.FundID,
			t.Quantity.InexactFloat64(),
			t.Price.InexactFloat64(),
			t.Quantity.Mul(t.Price).Round(2).InexactFloat64(),
		}
		if err = f.SetSheetRow(TransactionsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}
