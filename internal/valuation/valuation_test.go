package valuation

import (
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

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func fund(id, price string) model.Fund {
	return model.Fund{
		ID:       id,
		Name:     "Fund " + id,
		Symbol:   "SYM-" + id,
		Price:    d(price),
		Currency: "USD",
		Category: model.CategoryTech,
	}
}

func holding(fundID, qty, avg string) model.Holding {
	return model.Holding{FundID: fundID, Quantity: d(qty), AveragePurchasePrice: d(avg)}
}

func txn(fundID string, txnType model.TransactionType, qty, price string) model.Transaction {
	return model.Transaction{FundID: fundID, Type: txnType, Quantity: d(qty), Price: d(price)}
}

func TestCalculatePortfolioValue_SingleHolding(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{holding("fund-1", "10", "145.00")}}

	value := CalculatePortfolioValue(portfolio, []model.Fund{fund("fund-1", "150.50")})

	assertDecimal(t, "1505.00", value.TotalValue)
	assertDecimal(t, "1450.00", value.TotalInvested)
	assertDecimal(t, "55.00", value.ReturnAmount)
	assertDecimal(t, "3.79", value.ReturnPercentage)
}

func TestCalculatePortfolioValue_EmptyPortfolio(t *testing.T) {
	value := CalculatePortfolioValue(model.Portfolio{}, []model.Fund{fund("fund-1", "100")})

	assert.True(t, value.TotalValue.IsZero())
	assert.True(t, value.TotalInvested.IsZero())
	assert.True(t, value.ReturnAmount.IsZero())
	assert.True(t, value.ReturnPercentage.IsZero())
}

func TestCalculatePortfolioValue_SkipsUnknownFunds(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("fund-1", "2", "50"),
		holding("ghost", "100", "1000"),
	}}
	funds := []model.Fund{fund("fund-1", "40")}

	value := CalculatePortfolioValue(portfolio, funds)

	assertDecimal(t, "80.00", value.TotalValue)
	assertDecimal(t, "100.00", value.TotalInvested)
	assertDecimal(t, "-20.00", value.ReturnAmount)
	assertDecimal(t, "-20.00", value.ReturnPercentage)
	assert.Equal(t, []string{"ghost"}, UnmatchedHoldings(portfolio, funds))
}

func TestCalculatePortfolioValue_ReturnAmountIsValueMinusInvested(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("a", "3.5", "10.10"),
		holding("b", "7", "99.99"),
		holding("c", "0.125", "1234.56"),
	}}
	funds := []model.Fund{fund("a", "11.11"), fund("b", "88.88"), fund("c", "1300")}

	value := CalculatePortfolioValue(portfolio, funds)

	assert.True(t, value.TotalValue.Sub(value.TotalInvested).Equal(value.ReturnAmount))
}

func TestCalculateRealizedGains(t *testing.T) {
	tests := []struct {
		name string
		txns []model.Transaction
		want string
	}{
		{
			name: "no transactions",
			want: "0",
		},
		{
			name: "only buys",
			txns: []model.Transaction{txn("f", model.TransactionBuy, "10", "100")},
			want: "0",
		},
		{
			name: "partial sell of one lot",
			txns: []model.Transaction{
				txn("f", model.TransactionBuy, "10", "100"),
				txn("f", model.TransactionSell, "4", "110"),
			},
			// 440 - 4 * 104.5
			want: "22.00",
		},
		{
			name: "sell beyond queued buys carries no cost for the excess",
			txns: []model.Transaction{
				txn("f", model.TransactionBuy, "10", "100"),
				txn("f", model.TransactionSell, "4", "110"),
				txn("f", model.TransactionSell, "8", "120"),
			},
			// 22 + (960 - 6 * 114)
			want: "298.00",
		},
		{
			name: "funds are matched separately",
			txns: []model.Transaction{
				txn("a", model.TransactionBuy, "1", "10"),
				txn("b", model.TransactionBuy, "1", "10"),
				txn("a", model.TransactionSell, "1", "20"),
			},
			want: "1.00",
		},
		{
			name: "sell without any buy",
			txns: []model.Transaction{txn("f", model.TransactionSell, "2", "50")},
			want: "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, CalculateRealizedGains(tt.txns))
		})
	}
}

func TestCalculatePerformance(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{holding("fund-1", "10", "145.00")}}

	perf := CalculatePerformance(portfolio, nil, []model.Fund{fund("fund-1", "150.50")})

	assertDecimal(t, "4.22", perf.Daily)
	assertDecimal(t, "0.25", perf.Weekly)
	assertDecimal(t, "-8.47", perf.Monthly)
}

func TestCalculatePerformance_ZeroValue(t *testing.T) {
	perf := CalculatePerformance(model.Portfolio{}, nil, nil)

	assert.True(t, perf.Daily.IsZero())
	assert.True(t, perf.Weekly.IsZero())
	assert.True(t, perf.Monthly.IsZero())
}

func TestGeneratePriceHistory_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	values := []float64{0.5, 0.75, 0}
	i := 0
	randFloat := func() float64 {
		v := values[i]
		i++
		return v
	}

	history := generatePriceHistory(fund("f", "100"), 2, now, randFloat)

	require.Len(t, history, 3)
	assert.Equal(t, "2024-03-08", history[0].Date)
	assert.Equal(t, "2024-03-09", history[1].Date)
	assert.Equal(t, "2024-03-10", history[2].Date)
	assertDecimal(t, "100.00", history[0].Price)
	assertDecimal(t, "102.50", history[1].Price)
	assertDecimal(t, "95.00", history[2].Price)
}

func TestGeneratePriceHistory_Bounds(t *testing.T) {
	f := fund("f", "250")
	low, high := d("237.50"), d("262.50")

	history := GeneratePriceHistory(f, 30)

	require.Len(t, history, 31)
	for _, p := range history {
		assert.True(t, p.Price.GreaterThanOrEqual(low), p.Price.String())
		assert.True(t, p.Price.LessThanOrEqual(high), p.Price.String())
	}
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), history[len(history)-1].Date)
}

func TestGeneratePriceHistory_EdgeDays(t *testing.T) {
	assert.Len(t, GeneratePriceHistory(fund("f", "10"), 0), 1)
	assert.Empty(t, GeneratePriceHistory(fund("f", "10"), -1))
}

func TestGetTopHoldings(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("small", "1", "10"),
		holding("big", "10", "80"),
		holding("mid", "5", "25"),
	}}
	funds := []model.Fund{fund("small", "10"), fund("big", "100"), fund("mid", "20")}

	top := GetTopHoldings(portfolio, funds, 2)

	require.Len(t, top, 2)
	assert.Equal(t, "big", top[0].Fund.ID)
	assertDecimal(t, "1000", top[0].CurrentValue)
	assertDecimal(t, "200", top[0].GainLoss)
	assertDecimal(t, "25", top[0].GainLossPercentage)
	assert.Equal(t, "Fund big", top[0].Fund.Name)
	assertDecimal(t, "100", top[0].Fund.CurrentPrice)

	assert.Equal(t, "mid", top[1].Fund.ID)
	assertDecimal(t, "-25", top[1].GainLoss)
	assertDecimal(t, "-20", top[1].GainLossPercentage)
}

func TestGetTopHoldings_Limits(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("a", "1", "10"),
		holding("b", "2", "10"),
	}}
	funds := []model.Fund{fund("a", "10"), fund("b", "10")}

	assert.Empty(t, GetTopHoldings(portfolio, funds, 0))
	assert.Empty(t, GetTopHoldings(portfolio, funds, -3))
	assert.Len(t, GetTopHoldings(portfolio, funds, 100), 2)
}

func TestGetTopHoldings_TiesKeepHoldingsOrder(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("first", "2", "10"),
		holding("second", "4", "10"),
		holding("third", "1", "10"),
	}}
	funds := []model.Fund{fund("first", "10"), fund("second", "5"), fund("third", "20")}

	top := GetTopHoldings(portfolio, funds, DefaultTopHoldingsLimit)

	require.Len(t, top, 3)
	assert.Equal(t, "first", top[0].Fund.ID)
	assert.Equal(t, "second", top[1].Fund.ID)
	assert.Equal(t, "third", top[2].Fund.ID)
}

func TestGetTopHoldings_SkipsUnknownAndZeroCost(t *testing.T) {
	portfolio := model.Portfolio{Holdings: []model.Holding{
		holding("ghost", "100", "1"),
		holding("free", "1", "0"),
	}}

	top := GetTopHoldings(portfolio, []model.Fund{fund("free", "10")}, 5)

	require.Len(t, top, 1)
	assert.Equal(t, "free", top[0].Fund.ID)
	assert.True(t, top[0].GainLossPercentage.IsZero())
}
