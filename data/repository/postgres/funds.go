package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/shopspring/decimal"
)

func (r *Postgres) CreateFund(ctx context.Context, fund model.Fund) (created model.Fund, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.CreateFund"
	query := `
		INSERT INTO funds(fund_id, name, symbol, price, currency, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		`

	slog.Debug("CreateFund start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("fund", fund))
	defer func() {
		if err != nil {
			slog.Error("CreateFund failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("CreateFund completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query,
		fund.ID,
		fund.Name,
		fund.Symbol,
		fund.Price,
		fund.Currency,
		string(fund.Category),
	)
	if err != nil {
		return model.Fund{}, mapError(err)
	}

	return fund, nil
}

func (r *Postgres) GetFund(ctx context.Context, fundID string) (fund model.Fund, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetFund"
	query := `
		SELECT fund_id, name, symbol, price, currency, category
		FROM funds
		WHERE fund_id = $1
		`

	slog.Debug("GetFund start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("fundID", fundID))
	defer func() {
		if err != nil {
			slog.Error("GetFund failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetFund completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbFund := dbModel.Fund{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, fundID).StructScan(&dbFund)
	if err != nil {
		return model.Fund{}, mapError(err)
	}

	return dbConverter.ConvertFund(dbFund), nil
}

// ListFunds returns the whole catalog when category is nil.
func (r *Postgres) ListFunds(ctx context.Context, category *model.FundCategory) (funds []model.Fund, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListFunds"
	query := `
		SELECT fund_id, name, symbol, price, currency, category
		FROM funds
		WHERE ($1::text IS NULL OR category = $1)
		ORDER BY fund_id
		`

	var categoryArg *string
	if category != nil {
		c := string(*category)
		categoryArg = &c
	}

	slog.Debug("ListFunds start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.Any("category", categoryArg))
	defer func() {
		if err != nil {
			slog.Error("ListFunds failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListFunds completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(funds)))
		}
	}()

	dbFunds := []dbModel.Fund{}
	err = r.txOrDb(ctx).SelectContext(ctx, &dbFunds, query, categoryArg)
	if err != nil {
		return nil, mapError(err)
	}

	funds = make([]model.Fund, 0, len(dbFunds))
	for _, f := range dbFunds {
		funds = append(funds, dbConverter.ConvertFund(f))
	}

	return funds, nil
}

func (r *Postgres) UpdateFundPrice(ctx context.Context, fundID string, price decimal.Decimal) (fund model.Fund, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateFundPrice"
	query := `
		UPDATE funds
		SET price = $1
		WHERE fund_id = $2
		RETURNING fund_id, name, symbol, price, currency, category
		`

	slog.Debug("UpdateFundPrice start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("fundID", fundID), slog.String("price", price.String()))
	defer func() {
		if err != nil {
			slog.Error("UpdateFundPrice failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateFundPrice completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbFund := dbModel.Fund{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, price, fundID).StructScan(&dbFund)
	if err != nil {
		return model.Fund{}, mapError(err)
	}

	return dbConverter.ConvertFund(dbFund), nil
}
