package telebotConverter

import (
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPortfolioValueResponse(t *testing.T) {
	text := PortfolioValueResponse(model.Portfolio{Name: "Main"}, model.PortfolioValue{
		TotalValue:       d("1505"),
		TotalInvested:    d("1450"),
		ReturnAmount:     d("55"),
		ReturnPercentage: d("3.79"),
	})

	assert.Contains(t, text, "Main")
	assert.Contains(t, text, "Value: 1505.00")
	assert.Contains(t, text, "Return: +55.00 (+3.79%)")
}

func TestPortfoliosResponse(t *testing.T) {
	text, markup := PortfoliosResponse([]model.Portfolio{
		{ID: "p1", Name: "One"},
		{ID: "p2", Name: "Two"},
	}, "p2")

	assert.Contains(t, text, "Two ✅")
	assert.NotContains(t, text, "One ✅")
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "p1", markup.InlineKeyboard[0][0].Data)

	text, _ = PortfoliosResponse(nil, "")
	assert.Contains(t, text, "/new")
}

func TestHistoryResponse_Limit(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	txns := make([]model.Transaction, 5)
	for i := range txns {
		txns[i] = model.Transaction{FundID: "f", Type: model.TransactionBuy, Quantity: d("1"), Price: d("2"), Timestamp: ts}
	}

	text := HistoryResponse(txns, 3)

	assert.Equal(t, 3, strings.Count(text, "BUY"))
	assert.Contains(t, text, "and 2 more")
	assert.Equal(t, "No transactions yet.", HistoryResponse(nil, 3))
}

func TestTopHoldingsResponse(t *testing.T) {
	text := TopHoldingsResponse([]model.TopHolding{{
		Fund:                 model.FundSummary{ID: "f", Name: "Fund", Symbol: "FND", CurrentPrice: d("9")},
		Quantity:             d("2"),
		AveragePurchasePrice: d("10"),
		CurrentValue:         d("18"),
		GainLoss:             d("-2"),
		GainLossPercentage:   d("-10"),
	}})

	assert.Contains(t, text, "1. FND (Fund)")
	assert.Contains(t, text, "gain: -2.00 (-10.00%)")
}
