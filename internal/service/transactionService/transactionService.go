package transactionService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/holdings"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// submitted prices may differ from the fund price by at most this fraction
var priceTolerance = decimal.RequireFromString("0.01")

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
	GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error)
	GetFund(ctx context.Context, fundID string) (model.Fund, error)
	ReplaceHoldings(ctx context.Context, portfolioID string, holdings []model.Holding) (model.Portfolio, error)
	CreateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error)
	GetTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error)
	GetTransactionsByFund(ctx context.Context, fundID string) ([]model.Transaction, error)
}

type TransactionService struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

func New(repo Repository) *TransactionService {
	return &TransactionService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the timestamp source for new transactions.
func (s *TransactionService) WithClock(now func() time.Time) *TransactionService {
	s.now = now
	return s
}

// CreateTransaction validates the request, applies it to the portfolio
// holdings and records it. Holdings update and ledger insert commit together.
// Business-rule rejections come back as *service.ValidationError.
func (s *TransactionService) CreateTransaction(ctx context.Context, req model.TransactionRequest) (txn model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TransactionService.CreateTransaction"

	slog.Debug(
		"CreateTransaction start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("portfolioID", req.PortfolioID),
		slog.String("fundID", req.FundID),
		slog.String("type", string(req.Type)),
		slog.String("quantity", req.Quantity.String()),
	)
	defer func() {
		switch {
		case err == nil:
			slog.Info("transaction created", slog.String("rqID", rqID), slog.String("op", op), slog.String("transactionID", txn.ID))
		case service.IsValidation(err):
			slog.Warn("transaction rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("reason", err.Error()))
		default:
			slog.Error("CreateTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		ctx = repository.WithRowLock(ctx)
		portfolio, fund, price, err := s.validate(ctx, req)
		if err != nil {
			return err
		}

		txn = model.Transaction{
			ID:          s.newID(),
			PortfolioID: portfolio.ID,
			FundID:      fund.ID,
			Type:        req.Type,
			Quantity:    req.Quantity,
			Price:       price,
			Timestamp:   s.now().UTC(),
		}

		updated := holdings.ApplyTransaction(portfolio.Holdings, txn)
		if _, err = s.repo.ReplaceHoldings(ctx, portfolio.ID, updated); err != nil {
			return fmt.Errorf("replace holdings: %w", err)
		}

		txn, err = s.repo.CreateTransaction(ctx, txn)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}

	return txn, nil
}

// validate runs the business checks in order and stops at the first failure.
// It returns the effective unit price of the transaction.
func (s *TransactionService) validate(ctx context.Context, req model.TransactionRequest) (model.Portfolio, model.Fund, decimal.Decimal, error) {
	portfolio, err := s.repo.GetPortfolio(ctx, req.PortfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Portfolio{}, model.Fund{}, decimal.Zero, service.PortfolioNotFound(req.PortfolioID)
		}
		return model.Portfolio{}, model.Fund{}, decimal.Zero, fmt.Errorf("get portfolio: %w", err)
	}

	fund, err := s.repo.GetFund(ctx, req.FundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Portfolio{}, model.Fund{}, decimal.Zero, service.FundNotFound(req.FundID)
		}
		return model.Portfolio{}, model.Fund{}, decimal.Zero, fmt.Errorf("get fund: %w", err)
	}

	price := fund.Price
	if req.Price != nil && !req.Price.IsZero() {
		price = *req.Price
	}

	if !fund.Price.IsPositive() {
		return model.Portfolio{}, model.Fund{}, decimal.Zero, service.PriceOutOfTolerance("fund %s has no valid current price", fund.ID)
	}
	if price.Sub(fund.Price).Abs().Div(fund.Price).GreaterThan(priceTolerance) {
		return model.Portfolio{}, model.Fund{}, decimal.Zero, service.PriceOutOfTolerance(
			"price %s must be within 1%% of current fund price %s", price.String(), fund.Price.String(),
		)
	}

	if !req.Quantity.IsPositive() {
		return model.Portfolio{}, model.Fund{}, decimal.Zero, service.InvalidQuantity("quantity must be positive, got %s", req.Quantity.String())
	}

	switch req.Type {
	case model.TransactionBuy:
	case model.TransactionSell:
		holding, ok := portfolio.Holding(fund.ID)
		if !ok || holding.Quantity.LessThan(req.Quantity) {
			held := decimal.Zero
			if ok {
				held = holding.Quantity
			}
			return model.Portfolio{}, model.Fund{}, decimal.Zero, service.InsufficientHoldings(
				"cannot sell %s of %s, holding %s", req.Quantity.String(), fund.ID, held.String(),
			)
		}
	default:
		return model.Portfolio{}, model.Fund{}, decimal.Zero, service.InvalidTransactionType(string(req.Type))
	}

	return portfolio, fund, price, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, transactionID string) (model.Transaction, error) {
	txn, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Transaction{}, service.ErrNotFound
		}
		return model.Transaction{}, err
	}
	return txn, nil
}

// GetTransactionsByPortfolio returns the ledger newest first.
func (s *TransactionService) GetTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	return s.repo.GetTransactionsByPortfolio(ctx, portfolioID)
}

func (s *TransactionService) GetTransactionsByFund(ctx context.Context, fundID string) ([]model.Transaction, error) {
	return s.repo.GetTransactionsByFund(ctx, fundID)
}

// VerifyLedger replays the portfolio ledger from scratch and reports whether
// it reproduces the stored holdings. The replayed holdings are returned either way.
func (s *TransactionService) VerifyLedger(ctx context.Context, portfolioID string) (consistent bool, replayed []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TransactionService.VerifyLedger"

	slog.Debug("VerifyLedger start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	defer func() {
		slog.Debug("VerifyLedger finished", slog.String("rqID", rqID), slog.String("op", op), slog.Bool("consistent", consistent))
	}()

	var portfolio model.Portfolio
	var txns []model.Transaction
	err = s.repo.WithinTransaction(repository.WithSnapshot(ctx), func(ctx context.Context) error {
		var err error
		portfolio, err = s.repo.GetPortfolio(ctx, portfolioID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.PortfolioNotFound(portfolioID)
			}
			return err
		}

		txns, err = s.repo.GetTransactionsByPortfolio(ctx, portfolioID)
		return err
	})
	if err != nil {
		return false, nil, err
	}

	replayed = holdings.Replay(txns)
	consistent = holdings.Equal(replayed, portfolio.Holdings)
	if !consistent {
		slog.Warn("ledger replay differs from stored holdings", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID))
	}

	return consistent, replayed, nil
}
