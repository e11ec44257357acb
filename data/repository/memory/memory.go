// Package memory is an in-process Repository used by tests and local runs.
// It honours the same transactional boundary as the postgres repository:
// writes made inside WithinTransaction become visible all at once on commit.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type txKey struct{}

type state struct {
	funds        []model.Fund
	portfolios   []model.Portfolio
	transactions []model.Transaction
}

func (s *state) clone() *state {
	portfolios := make([]model.Portfolio, len(s.portfolios))
	for i, p := range s.portfolios {
		portfolios[i] = clonePortfolio(p)
	}
	return &state{
		funds:        slices.Clone(s.funds),
		portfolios:   portfolios,
		transactions: slices.Clone(s.transactions),
	}
}

func clonePortfolio(p model.Portfolio) model.Portfolio {
	p.Holdings = slices.Clone(p.Holdings)
	if p.Holdings == nil {
		p.Holdings = []model.Holding{}
	}
	return p
}

type Memory struct {
	// writeMu serializes writers, including whole transactions.
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   *state
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{state: &state{}, now: time.Now}
}

// WithClock makes the repository stamp new portfolios with now.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// WithinTransaction runs function within transaction
//
// The staged changes are published when function finishes without error and
// discarded otherwise. A snapshot transaction works on a private copy and
// never publishes.
func (m *Memory) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	if m.extractTx(ctx) != nil {
		return tFunc(ctx)
	}

	if repository.SnapshotRequested(ctx) {
		m.mu.RLock()
		view := m.state.clone()
		m.mu.RUnlock()
		return tFunc(context.WithValue(ctx, txKey{}, view))
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	staged := m.state.clone()
	m.mu.RUnlock()

	if err := tFunc(context.WithValue(ctx, txKey{}, staged)); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = staged
	m.mu.Unlock()

	return nil
}

func (m *Memory) extractTx(ctx context.Context) *state {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return st
	}
	return nil
}

func (m *Memory) read(ctx context.Context, fn func(st *state)) {
	if st := m.extractTx(ctx); st != nil {
		fn(st)
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.state)
}

func (m *Memory) write(ctx context.Context, fn func(st *state) error) error {
	if st := m.extractTx(ctx); st != nil {
		return fn(st)
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *Memory) CreateFund(ctx context.Context, fund model.Fund) (created model.Fund, err error) {
	err = m.write(ctx, func(st *state) error {
		for _, f := range st.funds {
			if f.ID == fund.ID || f.Symbol == fund.Symbol {
				return repository.ErrAlreadyExists
			}
		}
		st.funds = append(st.funds, fund)
		return nil
	})
	if err != nil {
		return model.Fund{}, err
	}
	return fund, nil
}

func (m *Memory) GetFund(ctx context.Context, fundID string) (fund model.Fund, err error) {
	err = repository.ErrNotFound
	m.read(ctx, func(st *state) {
		idx := slices.IndexFunc(st.funds, func(f model.Fund) bool { return f.ID == fundID })
		if idx >= 0 {
			fund, err = st.funds[idx], nil
		}
	})
	return fund, err
}

func (m *Memory) ListFunds(ctx context.Context, category *model.FundCategory) (funds []model.Fund, err error) {
	m.read(ctx, func(st *state) {
		funds = make([]model.Fund, 0, len(st.funds))
		for _, f := range st.funds {
			if category == nil || f.Category == *category {
				funds = append(funds, f)
			}
		}
	})
	return funds, nil
}

func (m *Memory) UpdateFundPrice(ctx context.Context, fundID string, price decimal.Decimal) (fund model.Fund, err error) {
	err = m.write(ctx, func(st *state) error {
		idx := slices.IndexFunc(st.funds, func(f model.Fund) bool { return f.ID == fundID })
		if idx < 0 {
			return repository.ErrNotFound
		}
		st.funds[idx].Price = price
		fund = st.funds[idx]
		return nil
	})
	if err != nil {
		return model.Fund{}, err
	}
	return fund, nil
}

func (m *Memory) CreatePortfolio(ctx context.Context, userID, name string) (portfolio model.Portfolio, err error) {
	portfolio = model.Portfolio{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: m.now().UTC(),
		Holdings:  []model.Holding{},
	}

	err = m.write(ctx, func(st *state) error {
		st.portfolios = append(st.portfolios, portfolio)
		return nil
	})
	if err != nil {
		return model.Portfolio{}, err
	}
	return clonePortfolio(portfolio), nil
}

func (m *Memory) GetPortfolio(ctx context.Context, portfolioID string) (portfolio model.Portfolio, err error) {
	err = repository.ErrNotFound
	m.read(ctx, func(st *state) {
		idx := slices.IndexFunc(st.portfolios, func(p model.Portfolio) bool { return p.ID == portfolioID })
		if idx >= 0 {
			portfolio, err = clonePortfolio(st.portfolios[idx]), nil
		}
	})
	return portfolio, err
}

// ListPortfolios returns every portfolio when userID is empty.
func (m *Memory) ListPortfolios(ctx context.Context, userID string) (portfolios []model.Portfolio, err error) {
	m.read(ctx, func(st *state) {
		portfolios = make([]model.Portfolio, 0, len(st.portfolios))
		for _, p := range st.portfolios {
			if userID == "" || p.UserID == userID {
				portfolios = append(portfolios, clonePortfolio(p))
			}
		}
	})
	return portfolios, nil
}

func (m *Memory) ReplaceHoldings(ctx context.Context, portfolioID string, holdings []model.Holding) (portfolio model.Portfolio, err error) {
	err = m.write(ctx, func(st *state) error {
		idx := slices.IndexFunc(st.portfolios, func(p model.Portfolio) bool { return p.ID == portfolioID })
		if idx < 0 {
			return repository.ErrNotFound
		}
		st.portfolios[idx].Holdings = slices.Clone(holdings)
		portfolio = clonePortfolio(st.portfolios[idx])
		return nil
	})
	if err != nil {
		return model.Portfolio{}, err
	}
	return portfolio, nil
}

func (m *Memory) CreateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	err := m.write(ctx, func(st *state) error {
		if slices.ContainsFunc(st.transactions, func(t model.Transaction) bool { return t.ID == txn.ID }) {
			return repository.ErrAlreadyExists
		}
		if !slices.ContainsFunc(st.portfolios, func(p model.Portfolio) bool { return p.ID == txn.PortfolioID }) {
			return repository.ErrNotFound
		}
		if !slices.ContainsFunc(st.funds, func(f model.Fund) bool { return f.ID == txn.FundID }) {
			return repository.ErrNotFound
		}
		st.transactions = append(st.transactions, txn)
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (m *Memory) GetTransaction(ctx context.Context, transactionID string) (txn model.Transaction, err error) {
	err = repository.ErrNotFound
	m.read(ctx, func(st *state) {
		idx := slices.IndexFunc(st.transactions, func(t model.Transaction) bool { return t.ID == transactionID })
		if idx >= 0 {
			txn, err = st.transactions[idx], nil
		}
	})
	return txn, err
}

// GetTransactionsByPortfolio lists newest first; entries sharing a timestamp
// are listed latest-inserted first.
func (m *Memory) GetTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	return m.listTransactions(ctx, func(t model.Transaction) bool { return t.PortfolioID == portfolioID }), nil
}

func (m *Memory) GetTransactionsByFund(ctx context.Context, fundID string) ([]model.Transaction, error) {
	return m.listTransactions(ctx, func(t model.Transaction) bool { return t.FundID == fundID }), nil
}

func (m *Memory) listTransactions(ctx context.Context, match func(t model.Transaction) bool) (txns []model.Transaction) {
	m.read(ctx, func(st *state) {
		txns = make([]model.Transaction, 0)
		for i := len(st.transactions) - 1; i >= 0; i-- {
			if match(st.transactions[i]) {
				txns = append(txns, st.transactions[i])
			}
		}
	})

	slices.SortStableFunc(txns, func(a, b model.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return txns
}
