package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/valuation"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	CreatePortfolio(ctx context.Context, userID, name string) (model.Portfolio, error)
	GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]model.Portfolio, error)
	ListFunds(ctx context.Context, category *model.FundCategory) ([]model.Fund, error)
	GetTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error)
}

type PortfolioService struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *PortfolioService {
	return &PortfolioService{repo: repo, now: time.Now}
}

func (s *PortfolioService) CreatePortfolio(ctx context.Context, userID, name string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.CreatePortfolio"

	slog.Debug("CreatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("userID", userID), slog.String("name", name))
	defer func() {
		slog.Debug("CreatePortfolio finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolio.ID))
	}()

	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" || name == "" {
		return model.Portfolio{}, fmt.Errorf("%w: userID and name are required", service.ErrInvalidArgument)
	}

	portfolio, err = s.repo.CreatePortfolio(ctx, userID, name)
	if err != nil {
		slog.Error("got error from repo.CreatePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, err
	}

	return portfolio, nil
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	portfolio, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Portfolio{}, service.PortfolioNotFound(portfolioID)
		}
		return model.Portfolio{}, err
	}
	return portfolio, nil
}

// ListPortfolios returns all portfolios when userID is empty.
func (s *PortfolioService) ListPortfolios(ctx context.Context, userID string) ([]model.Portfolio, error) {
	return s.repo.ListPortfolios(ctx, userID)
}

func (s *PortfolioService) GetHoldingByFund(ctx context.Context, portfolioID, fundID string) (model.Holding, error) {
	portfolio, err := s.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return model.Holding{}, err
	}

	holding, ok := portfolio.Holding(fundID)
	if !ok {
		return model.Holding{}, service.ErrNotFound
	}
	return holding, nil
}

// snapshot reads the portfolio and the fund catalog as of one point in time.
func (s *PortfolioService) snapshot(ctx context.Context, portfolioID string, withLedger bool) (portfolio model.Portfolio, funds []model.Fund, txns []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.snapshot"

	err = s.repo.WithinTransaction(repository.WithSnapshot(ctx), func(ctx context.Context) error {
		var err error
		portfolio, err = s.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return err
		}

		funds, err = s.repo.ListFunds(ctx, nil)
		if err != nil {
			return err
		}

		if withLedger {
			txns, err = s.repo.GetTransactionsByPortfolio(ctx, portfolioID)
		}
		return err
	})
	if err != nil {
		return model.Portfolio{}, nil, nil, err
	}

	if missing := valuation.UnmatchedHoldings(portfolio, funds); len(missing) > 0 {
		slog.Warn("holdings reference unknown funds, skipped in valuation",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.String("portfolioID", portfolioID),
			slog.Any("fundIDs", missing),
		)
	}

	return portfolio, funds, txns, nil
}

func (s *PortfolioService) GetPortfolioValue(ctx context.Context, portfolioID string) (model.PortfolioValue, error) {
	portfolio, funds, _, err := s.snapshot(ctx, portfolioID, false)
	if err != nil {
		return model.PortfolioValue{}, err
	}
	return valuation.CalculatePortfolioValue(portfolio, funds), nil
}

func (s *PortfolioService) GetPortfolioReturns(ctx context.Context, portfolioID string) (model.PortfolioReturns, error) {
	value, err := s.GetPortfolioValue(ctx, portfolioID)
	if err != nil {
		return model.PortfolioReturns{}, err
	}
	return model.PortfolioReturns{
		ReturnAmount:     value.ReturnAmount,
		ReturnPercentage: value.ReturnPercentage,
	}, nil
}

// GetPortfolioHistory returns the portfolio ledger, newest first.
func (s *PortfolioService) GetPortfolioHistory(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	_, _, txns, err := s.snapshot(ctx, portfolioID, true)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// GetTopHoldings ranks holdings by current value. A zero limit falls back to
// valuation.DefaultTopHoldingsLimit; a negative one yields nothing.
func (s *PortfolioService) GetTopHoldings(ctx context.Context, portfolioID string, limit int) ([]model.TopHolding, error) {
	portfolio, funds, _, err := s.snapshot(ctx, portfolioID, false)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = valuation.DefaultTopHoldingsLimit
	}
	return valuation.GetTopHoldings(portfolio, funds, limit), nil
}

func (s *PortfolioService) GetPortfolioPerformance(ctx context.Context, portfolioID string) (model.PortfolioPerformance, error) {
	portfolio, funds, txns, err := s.snapshot(ctx, portfolioID, true)
	if err != nil {
		return model.PortfolioPerformance{}, err
	}
	return valuation.CalculatePerformance(portfolio, txns, funds), nil
}

// GetRealizedGains runs the FIFO approximation over the ledger in the order
// the trades happened.
func (s *PortfolioService) GetRealizedGains(ctx context.Context, portfolioID string) (decimal.Decimal, error) {
	_, _, txns, err := s.snapshot(ctx, portfolioID, true)
	if err != nil {
		return decimal.Zero, err
	}
	return valuation.CalculateRealizedGains(chronological(txns)), nil
}

// GetPortfolioReport gathers every figure an export shows, from one snapshot.
func (s *PortfolioService) GetPortfolioReport(ctx context.Context, portfolioID string) (report model.PortfolioReport, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetPortfolioReport"

	slog.Debug("GetPortfolioReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	defer func() {
		slog.Debug("GetPortfolioReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	}()

	portfolio, funds, txns, err := s.snapshot(ctx, portfolioID, true)
	if err != nil {
		return model.PortfolioReport{}, err
	}

	return model.PortfolioReport{
		Portfolio:     portfolio,
		Value:         valuation.CalculatePortfolioValue(portfolio, funds),
		Performance:   valuation.CalculatePerformance(portfolio, txns, funds),
		RealizedGains: valuation.CalculateRealizedGains(chronological(txns)),
		Holdings:      valuation.GetTopHoldings(portfolio, funds, len(portfolio.Holdings)),
		Transactions:  txns,
		GeneratedAt:   s.now().UTC(),
	}, nil
}

// chronological turns the newest-first ledger into trade order.
func chronological(txns []model.Transaction) []model.Transaction {
	ordered := make([]model.Transaction, len(txns))
	for i, t := range txns {
		ordered[len(txns)-1-i] = t
	}
	return ordered
}
