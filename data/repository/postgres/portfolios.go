package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/fund_portfolio_tracker/data/repository"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

func (r *Postgres) CreatePortfolio(ctx context.Context, userID, name string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.CreatePortfolio"
	query := `
		INSERT INTO portfolios(portfolio_id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING portfolio_id, user_id, name, created_at
		`

	slog.Debug("CreatePortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("CreatePortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("CreatePortfolio completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolio.ID))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, uuid.NewString(), userID, name).StructScan(&dbPortfolio)
	if err != nil {
		return model.Portfolio{}, mapError(err)
	}

	return dbConverter.ConvertPortfolio(dbPortfolio, nil), nil
}

// GetPortfolio loads a portfolio with its holdings. Inside a transaction
// marked with repository.WithRowLock the portfolio row stays locked until
// commit, so writers of one portfolio queue up.
func (r *Postgres) GetPortfolio(ctx context.Context, portfolioID string) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetPortfolio"
	query := `
		SELECT portfolio_id, user_id, name, created_at
		FROM portfolios
		WHERE portfolio_id = $1
		`
	if r.extractTx(ctx) != nil && repository.RowLockRequested(ctx) {
		query += "FOR UPDATE"
	}

	slog.Debug("GetPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("portfolioID", portfolioID))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolio failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolio completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, portfolioID).StructScan(&dbPortfolio)
	if err != nil {
		return model.Portfolio{}, mapError(err)
	}

	dbHoldings, err := r.getHoldings(ctx, []string{portfolioID})
	if err != nil {
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio, dbHoldings), nil
}

// ListPortfolios returns every portfolio when userID is empty.
func (r *Postgres) ListPortfolios(ctx context.Context, userID string) (portfolios []model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListPortfolios"
	query := `
		SELECT portfolio_id, user_id, name, created_at
		FROM portfolios
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY created_at, portfolio_id
		`

	slog.Debug("ListPortfolios start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("userID", userID))
	defer func() {
		if err != nil {
			slog.Error("ListPortfolios failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListPortfolios completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(portfolios)))
		}
	}()

	dbPortfolios := []dbModel.Portfolio{}
	err = r.txOrDb(ctx).SelectContext(ctx, &dbPortfolios, query, userID)
	if err != nil {
		return nil, mapError(err)
	}

	ids := lo.Map(dbPortfolios, func(p dbModel.Portfolio, _ int) string { return p.PortfolioID })
	dbHoldings, err := r.getHoldings(ctx, ids)
	if err != nil {
		return nil, err
	}
	holdingsByPortfolio := lo.GroupBy(dbHoldings, func(h dbModel.Holding) string { return h.PortfolioID })

	portfolios = make([]model.Portfolio, 0, len(dbPortfolios))
	for _, p := range dbPortfolios {
		portfolios = append(portfolios, dbConverter.ConvertPortfolio(p, holdingsByPortfolio[p.PortfolioID]))
	}

	return portfolios, nil
}

func (r *Postgres) getHoldings(ctx context.Context, portfolioIDs []string) (holdings []dbModel.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.getHoldings"
	query := `
		SELECT portfolio_id, fund_id, ordinal, quantity, average_purchase_price
		FROM holdings
		WHERE portfolio_id = ANY($1)
		ORDER BY portfolio_id, ordinal
		`

	slog.Debug("getHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("portfolioIDs", portfolioIDs))
	defer func() {
		if err != nil {
			slog.Error("getHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("getHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if len(portfolioIDs) == 0 {
		return nil, nil
	}

	holdings = []dbModel.Holding{}
	err = r.txOrDb(ctx).SelectContext(ctx, &holdings, query, portfolioIDs)
	if err != nil {
		return nil, mapError(err)
	}

	return holdings, nil
}

// ReplaceHoldings swaps the whole holdings collection of a portfolio. It joins
// the caller's transaction or opens its own.
func (r *Postgres) ReplaceHoldings(ctx context.Context, portfolioID string, holdings []model.Holding) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ReplaceHoldings"

	slog.Debug("ReplaceHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolioID", portfolioID), slog.Int("holdings", len(holdings)))
	defer func() {
		if err != nil {
			slog.Error("ReplaceHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ReplaceHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.WithinTransaction(ctx, func(ctx context.Context) error {
		var exists int
		err := r.txOrDb(ctx).GetContext(ctx, &exists, `SELECT 1 FROM portfolios WHERE portfolio_id = $1 FOR UPDATE`, portfolioID)
		if err != nil {
			return mapError(err)
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, `DELETE FROM holdings WHERE portfolio_id = $1`, portfolioID)
		if err != nil {
			return mapError(err)
		}

		if len(holdings) == 0 {
			return nil
		}

		sb := strings.Builder{}
		args := make([]any, 0, len(holdings)*5)
		sb.WriteString(`INSERT INTO holdings (portfolio_id, fund_id, ordinal, quantity, average_purchase_price) VALUES `)
		for i, h := range holdings {
			args = append(args, portfolioID, h.FundID, i, h.Quantity, h.AveragePurchasePrice)

			start := i*5 + 1
			sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
				start, start+1, start+2, start+3, start+4,
			))

			if i < len(holdings)-1 {
				sb.WriteString(",")
			}
		}

		_, err = r.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
		return mapError(err)
	})
	if err != nil {
		return model.Portfolio{}, err
	}

	return r.GetPortfolio(ctx, portfolioID)
}
