package quotesApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KotFed0t/fund_portfolio_tracker/config"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/externalApi"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/quotesModel"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/go-resty/resty/v2"
)

const quotesPath = "/v1/quotes"

type QuotesApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *QuotesApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuotesApi.Url)

	if cfg.API.QuotesApi.ApiKey != "" {
		client.SetHeader("X-API-Key", cfg.API.QuotesApi.ApiKey)
	}

	return &QuotesApi{client: client}
}

// GetQuotes fetches the latest price for every symbol it knows of. Symbols the
// API does not return are absent from the result map.
func (a *QuotesApi) GetQuotes(ctx context.Context, symbols []string) (map[string]quotesModel.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "QuotesApi.GetQuotes"

	slog.Debug("start QuotesApi.GetQuotes request", slog.String("rqID", rqID), slog.String("op", op), slog.Int("symbols", len(symbols)))

	if len(symbols) == 0 {
		return map[string]quotesModel.Quote{}, nil
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		Get(quotesPath)
	if err != nil {
		slog.Error("error while dialing QuotesApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, externalApi.ErrNotFound
	}
	if resp.IsError() {
		slog.Error("QuotesApi returned error status", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("quotes api status %d", resp.StatusCode())
	}

	rawQuotes := quotesModel.RawQuotes{}
	err = json.Unmarshal(resp.Body(), &rawQuotes)
	if err != nil {
		slog.Error("can't unmarshall response into quotesModel.RawQuotes", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	res, err := parseRawQuotes(rawQuotes)
	if err != nil {
		slog.Error("can't parse raw quotes", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	slog.Debug("QuotesApi.GetQuotes request complete", slog.String("rqID", rqID), slog.Int("quotes", len(res)))

	return res, nil
}

func parseRawQuotes(raw quotesModel.RawQuotes) (map[string]quotesModel.Quote, error) {
	res := make(map[string]quotesModel.Quote, len(raw.Quotes))
	for _, q := range raw.Quotes {
		if q.Symbol == "" {
			return nil, fmt.Errorf("quote without symbol")
		}
		if q.Price == nil || !q.Price.IsPositive() {
			return nil, fmt.Errorf("invalid price for %s", q.Symbol)
		}
		res[q.Symbol] = quotesModel.Quote{
			Symbol:   q.Symbol,
			Price:    *q.Price,
			Currency: q.Currency,
		}
	}
	return res, nil
}
