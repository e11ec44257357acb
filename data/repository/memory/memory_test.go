package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeded(t *testing.T) (*Memory, model.Portfolio) {
	t.Helper()
	ctx := context.Background()
	m := NewMemory().WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) })

	_, err := m.CreateFund(ctx, model.Fund{ID: "f1", Symbol: "F1", Price: decimal.NewFromInt(10), Category: model.CategoryTech})
	require.NoError(t, err)

	p, err := m.CreatePortfolio(ctx, "u1", "Main")
	require.NoError(t, err)
	return m, p
}

func TestCreateFund_Duplicates(t *testing.T) {
	m, _ := newSeeded(t)
	ctx := context.Background()

	_, err := m.CreateFund(ctx, model.Fund{ID: "f1", Symbol: "OTHER"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = m.CreateFund(ctx, model.Fund{ID: "f2", Symbol: "F1"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestPortfolio_NotFound(t *testing.T) {
	m, _ := newSeeded(t)
	ctx := context.Background()

	_, err := m.GetPortfolio(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = m.ReplaceHoldings(ctx, "missing", nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreatePortfolio_StoresUTC(t *testing.T) {
	_, p := newSeeded(t)

	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.NotNil(t, p.Holdings)
}

func TestReturnedPortfolioIsACopy(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()

	_, err := m.ReplaceHoldings(ctx, p.ID, []model.Holding{{FundID: "f1", Quantity: decimal.NewFromInt(1)}})
	require.NoError(t, err)

	got, err := m.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	got.Holdings[0].Quantity = decimal.NewFromInt(100)

	again, err := m.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, again.Holdings[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestWithinTransaction_RollbackOnError(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()
	fail := errors.New("fail")

	err := m.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := m.ReplaceHoldings(ctx, p.ID, []model.Holding{{FundID: "f1", Quantity: decimal.NewFromInt(3)}})
		require.NoError(t, err)
		_, err = m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: p.ID, FundID: "f1", Type: model.TransactionBuy})
		require.NoError(t, err)

		// visible inside
		inside, err := m.GetPortfolio(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, inside.Holdings, 1)
		return fail
	})
	assert.ErrorIs(t, err, fail)

	after, err := m.GetPortfolio(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Holdings)

	_, err = m.GetTransaction(ctx, "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTransaction_CommitAndNesting(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()

	err := m.WithinTransaction(ctx, func(ctx context.Context) error {
		return m.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: p.ID, FundID: "f1", Type: model.TransactionBuy})
			return err
		})
	})
	require.NoError(t, err)

	_, err = m.GetTransaction(ctx, "t1")
	assert.NoError(t, err)
}

func TestWithinTransaction_SnapshotIsIsolated(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()

	err := m.WithinTransaction(repository.WithSnapshot(ctx), func(snapCtx context.Context) error {
		_, err := m.ReplaceHoldings(ctx, p.ID, []model.Holding{{FundID: "f1", Quantity: decimal.NewFromInt(7)}})
		require.NoError(t, err)

		seen, err := m.GetPortfolio(snapCtx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, seen.Holdings)

		// writes through a snapshot never publish
		_, err = m.UpdateFundPrice(snapCtx, "f1", decimal.NewFromInt(99))
		return err
	})
	require.NoError(t, err)

	fund, err := m.GetFund(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, fund.Price.Equal(decimal.NewFromInt(10)))
}

func TestCreateTransaction_Checks(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()

	_, err := m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: "missing", FundID: "f1"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: p.ID, FundID: "missing"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: p.ID, FundID: "f1"})
	require.NoError(t, err)

	_, err = m.CreateTransaction(ctx, model.Transaction{ID: "t1", PortfolioID: p.ID, FundID: "f1"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestTransactionsOrdering(t *testing.T) {
	m, p := newSeeded(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, txn := range []model.Transaction{
		{ID: "late", Timestamp: base.Add(time.Hour)},
		{ID: "early", Timestamp: base},
		{ID: "tie-1", Timestamp: base.Add(30 * time.Minute)},
		{ID: "tie-2", Timestamp: base.Add(30 * time.Minute)},
	} {
		txn.PortfolioID = p.ID
		txn.FundID = "f1"
		_, err := m.CreateTransaction(ctx, txn)
		require.NoError(t, err)
	}

	txns, err := m.GetTransactionsByPortfolio(ctx, p.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	assert.Equal(t, []string{"late", "tie-2", "tie-1", "early"}, ids)

	byFund, err := m.GetTransactionsByFund(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, byFund, 4)

	none, err := m.GetTransactionsByPortfolio(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
