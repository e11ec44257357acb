package fundService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/quotesModel"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/valuation"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const DefaultPriceHistoryDays = 30

type Repository interface {
	CreateFund(ctx context.Context, fund model.Fund) (model.Fund, error)
	GetFund(ctx context.Context, fundID string) (model.Fund, error)
	ListFunds(ctx context.Context, category *model.FundCategory) ([]model.Fund, error)
	UpdateFundPrice(ctx context.Context, fundID string, price decimal.Decimal) (model.Fund, error)
}

type QuotesApi interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]quotesModel.Quote, error)
}

type FundService struct {
	repo   Repository
	quotes QuotesApi
}

// New builds the service; quotes may be nil, which disables RefreshPrices.
func New(repo Repository, quotes QuotesApi) *FundService {
	return &FundService{repo: repo, quotes: quotes}
}

// ListFunds returns the whole catalog when category is nil.
func (s *FundService) ListFunds(ctx context.Context, category *model.FundCategory) ([]model.Fund, error) {
	return s.repo.ListFunds(ctx, category)
}

func (s *FundService) GetFund(ctx context.Context, fundID string) (model.Fund, error) {
	fund, err := s.repo.GetFund(ctx, fundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fund{}, service.FundNotFound(fundID)
		}
		return model.Fund{}, err
	}
	return fund, nil
}

func (s *FundService) CreateFund(ctx context.Context, fund model.Fund) (model.Fund, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "FundService.CreateFund"

	fund.ID = strings.TrimSpace(fund.ID)
	fund.Symbol = strings.ToUpper(strings.TrimSpace(fund.Symbol))
	if fund.ID == "" || fund.Symbol == "" || fund.Name == "" || fund.Currency == "" {
		return model.Fund{}, fmt.Errorf("%w: id, name, symbol and currency are required", service.ErrInvalidArgument)
	}
	if !fund.Price.IsPositive() {
		return model.Fund{}, fmt.Errorf("%w: price must be positive", service.ErrInvalidArgument)
	}
	if _, err := model.ParseFundCategory(string(fund.Category)); err != nil {
		return model.Fund{}, fmt.Errorf("%w: %s", service.ErrInvalidArgument, err.Error())
	}

	created, err := s.repo.CreateFund(ctx, fund)
	if err != nil {
		slog.Error("got error from repo.CreateFund", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Fund{}, err
	}

	slog.Info("fund created", slog.String("rqID", rqID), slog.String("op", op), slog.String("fundID", created.ID))
	return created, nil
}

func (s *FundService) UpdatePrice(ctx context.Context, fundID string, price decimal.Decimal) (model.Fund, error) {
	if !price.IsPositive() {
		return model.Fund{}, fmt.Errorf("%w: price must be positive", service.ErrInvalidArgument)
	}

	fund, err := s.repo.UpdateFundPrice(ctx, fundID, price)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Fund{}, service.FundNotFound(fundID)
		}
		return model.Fund{}, err
	}
	return fund, nil
}

// GetPriceHistory returns synthetic daily prices for the fund; days <= 0
// means DefaultPriceHistoryDays.
func (s *FundService) GetPriceHistory(ctx context.Context, fundID string, days int) ([]model.PricePoint, error) {
	fund, err := s.GetFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultPriceHistoryDays
	}
	return valuation.GeneratePriceHistory(fund, days), nil
}

// RefreshPrices pulls current quotes for every fund in the catalog and stores
// the ones that changed. It is meant to run as a scheduled job.
func (s *FundService) RefreshPrices(ctx context.Context) error {
	ctx = utils.WithRequestID(ctx)
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "FundService.RefreshPrices"

	if s.quotes == nil {
		return errors.New("quotes api is not configured")
	}

	slog.Debug("RefreshPrices start", slog.String("rqID", rqID), slog.String("op", op))

	funds, err := s.repo.ListFunds(ctx, nil)
	if err != nil {
		return fmt.Errorf("list funds: %w", err)
	}

	symbols := lo.Uniq(lo.Map(funds, func(f model.Fund, _ int) string { return f.Symbol }))
	quotes, err := s.quotes.GetQuotes(ctx, symbols)
	if err != nil {
		return fmt.Errorf("get quotes: %w", err)
	}

	updated := 0
	for _, fund := range funds {
		quote, ok := quotes[fund.Symbol]
		if !ok {
			slog.Warn("no quote for fund", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", fund.Symbol))
			continue
		}
		if quote.Currency != "" && !strings.EqualFold(quote.Currency, fund.Currency) {
			slog.Warn("quote currency differs from fund currency, skipped",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("symbol", fund.Symbol),
				slog.String("quoteCurrency", quote.Currency),
				slog.String("fundCurrency", fund.Currency),
			)
			continue
		}
		if quote.Price.Equal(fund.Price) {
			continue
		}

		if _, err = s.repo.UpdateFundPrice(ctx, fund.ID, quote.Price); err != nil {
			return fmt.Errorf("update price of %s: %w", fund.ID, err)
		}
		updated++
	}

	slog.Info("fund prices refreshed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("updated", updated), slog.Int("funds", len(funds)))

	return nil
}
