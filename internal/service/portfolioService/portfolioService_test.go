package portfolioService

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository/memory"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T) (*PortfolioService, *memory.Memory, model.Portfolio) {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewMemory()

	for _, f := range []model.Fund{
		{ID: "fund-1", Name: "Tech Growth", Symbol: "TGF", Price: d("150.50"), Currency: "USD", Category: model.CategoryTech},
		{ID: "fund-2", Name: "Health Care", Symbol: "HCF", Price: d("20"), Currency: "USD", Category: model.CategoryHealthcare},
		{ID: "fund-3", Name: "Bank Index", Symbol: "BIF", Price: d("75"), Currency: "USD", Category: model.CategoryFinance},
	} {
		_, err := repo.CreateFund(ctx, f)
		require.NoError(t, err)
	}

	srv := New(repo)
	portfolio, err := srv.CreatePortfolio(ctx, "user-1", "  Retirement ")
	require.NoError(t, err)

	return srv, repo, portfolio
}

func TestCreatePortfolio(t *testing.T) {
	srv, _, portfolio := setup(t)

	assert.NotEmpty(t, portfolio.ID)
	assert.Equal(t, "Retirement", portfolio.Name)
	assert.Equal(t, "user-1", portfolio.UserID)
	assert.Empty(t, portfolio.Holdings)

	_, err := srv.CreatePortfolio(context.Background(), "user-1", "   ")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = srv.CreatePortfolio(context.Background(), "", "name")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestListPortfolios(t *testing.T) {
	srv, _, _ := setup(t)
	ctx := context.Background()

	_, err := srv.CreatePortfolio(ctx, "user-2", "Other")
	require.NoError(t, err)
	_, err = srv.CreatePortfolio(ctx, "user-1", "Second")
	require.NoError(t, err)

	own, err := srv.ListPortfolios(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, own, 2)

	all, err := srv.ListPortfolios(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetPortfolio_NotFound(t *testing.T) {
	srv, _, _ := setup(t)

	_, err := srv.GetPortfolio(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrPortfolioNotFound)

	_, err = srv.GetPortfolioValue(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrPortfolioNotFound)

	_, err = srv.GetTopHoldings(context.Background(), "missing", 3)
	assert.True(t, service.IsNotFound(err))
}

func TestGetPortfolioValueAndReturns(t *testing.T) {
	srv, repo, portfolio := setup(t)
	ctx := context.Background()

	_, err := repo.ReplaceHoldings(ctx, portfolio.ID, []model.Holding{
		{FundID: "fund-1", Quantity: d("10"), AveragePurchasePrice: d("145.00")},
	})
	require.NoError(t, err)

	value, err := srv.GetPortfolioValue(ctx, portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, "1505.00", value.TotalValue.StringFixed(2))
	assert.Equal(t, "1450.00", value.TotalInvested.StringFixed(2))

	returns, err := srv.GetPortfolioReturns(ctx, portfolio.ID)
	require.NoError(t, err)
	assert.True(t, returns.ReturnAmount.Equal(d("55")))
	assert.True(t, returns.ReturnPercentage.Equal(d("3.79")))
}

func TestGetTopHoldings_DefaultLimit(t *testing.T) {
	srv, repo, portfolio := setup(t)
	ctx := context.Background()

	hs := []model.Holding{
		{FundID: "fund-2", Quantity: d("1"), AveragePurchasePrice: d("20")},
		{FundID: "fund-3", Quantity: d("1"), AveragePurchasePrice: d("70")},
		{FundID: "fund-1", Quantity: d("1"), AveragePurchasePrice: d("150")},
	}
	_, err := repo.ReplaceHoldings(ctx, portfolio.ID, hs)
	require.NoError(t, err)

	top, err := srv.GetTopHoldings(ctx, portfolio.ID, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"fund-1", "fund-3", "fund-2"}, []string{top[0].Fund.ID, top[1].Fund.ID, top[2].Fund.ID})

	top, err = srv.GetTopHoldings(ctx, portfolio.ID, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)

	top, err = srv.GetTopHoldings(ctx, portfolio.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestLedgerQueries(t *testing.T) {
	srv, repo, portfolio := setup(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ledger := []model.Transaction{
		{ID: "t1", PortfolioID: portfolio.ID, FundID: "fund-2", Type: model.TransactionBuy, Quantity: d("10"), Price: d("20"), Timestamp: base},
		{ID: "t2", PortfolioID: portfolio.ID, FundID: "fund-2", Type: model.TransactionSell, Quantity: d("4"), Price: d("20"), Timestamp: base.Add(time.Hour)},
	}
	for _, txn := range ledger {
		_, err := repo.CreateTransaction(ctx, txn)
		require.NoError(t, err)
	}
	_, err := repo.ReplaceHoldings(ctx, portfolio.ID, []model.Holding{
		{FundID: "fund-2", Quantity: d("6"), AveragePurchasePrice: d("20")},
	})
	require.NoError(t, err)

	history, err := srv.GetPortfolioHistory(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "t2", history[0].ID)
	assert.Equal(t, "t1", history[1].ID)

	// 80 - 4 * 19
	gains, err := srv.GetRealizedGains(ctx, portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.00", gains.StringFixed(2))

	perf, err := srv.GetPortfolioPerformance(ctx, portfolio.ID)
	require.NoError(t, err)
	assert.True(t, perf.Daily.Equal(d("4.22")))

	holding, err := srv.GetHoldingByFund(ctx, portfolio.ID, "fund-2")
	require.NoError(t, err)
	assert.True(t, holding.Quantity.Equal(d("6")))

	_, err = srv.GetHoldingByFund(ctx, portfolio.ID, "fund-1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetPortfolioReport(t *testing.T) {
	srv, repo, portfolio := setup(t)
	ctx := context.Background()
	srv.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }

	_, err := repo.ReplaceHoldings(ctx, portfolio.ID, []model.Holding{
		{FundID: "fund-2", Quantity: d("1"), AveragePurchasePrice: d("20")},
		{FundID: "ghost", Quantity: d("1"), AveragePurchasePrice: d("1")},
		{FundID: "fund-1", Quantity: d("10"), AveragePurchasePrice: d("145")},
		{FundID: "fund-3", Quantity: d("1"), AveragePurchasePrice: d("75")},
	})
	require.NoError(t, err)

	report, err := srv.GetPortfolioReport(ctx, portfolio.ID)
	require.NoError(t, err)

	assert.Equal(t, portfolio.ID, report.Portfolio.ID)
	// every priced holding, ranked
	require.Len(t, report.Holdings, 3)
	assert.Equal(t, "fund-1", report.Holdings[0].Fund.ID)
	assert.Equal(t, "1600.00", report.Value.TotalValue.StringFixed(2))
	assert.Empty(t, report.Transactions)
	assert.True(t, report.RealizedGains.IsZero())
	assert.Equal(t, time.UTC, report.GeneratedAt.Location())
	assert.Equal(t, 11, report.GeneratedAt.Hour())
}
