package xlsxGenerator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGenerate(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	report := model.PortfolioReport{
		Portfolio: model.Portfolio{ID: "p1", UserID: "u1", Name: "Main", CreatedAt: ts},
		Value: model.PortfolioValue{
			TotalValue:       d("1505.00"),
			TotalInvested:    d("1450.00"),
			ReturnAmount:     d("55.00"),
			ReturnPercentage: d("3.79"),
		},
		Holdings: []model.TopHolding{{
			Fund:                 model.FundSummary{ID: "fund-1", Name: "Tech Growth", Symbol: "TGF", CurrentPrice: d("150.50")},
			Quantity:             d("10"),
			AveragePurchasePrice: d("145"),
			CurrentValue:         d("1505"),
			GainLoss:             d("55"),
			GainLossPercentage:   d("3.7931"),
		}},
		Transactions: []model.Transaction{
			{ID: "t1", FundID: "fund-1", Type: model.TransactionBuy, Quantity: d("10"), Price: d("145"), Timestamp: ts},
		},
		GeneratedAt: ts,
	}

	file, ext, err := New().Generate(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(file))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, HoldingsSheet, TransactionsSheet}, f.GetSheetList())

	name, err := f.GetCellValue(SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Main", name)

	symbol, err := f.GetCellValue(HoldingsSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "TGF", symbol)

	gainPct, err := f.GetCellValue(HoldingsSheet, "H2")
	require.NoError(t, err)
	assert.Equal(t, "3.79", gainPct)

	rows, err := f.GetRows(TransactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"t1", "2024-02-03T04:05:06Z", "BUY", "fund-1", "10", "145", "1450"}, rows[1])
}

func TestGenerate_EmptyReport(t *testing.T) {
	file, _, err := New().Generate(context.Background(), model.PortfolioReport{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(file))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HoldingsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
