package postgres

import (
	"context"
	"log/slog"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
)

const transactionColumns = `transaction_id, portfolio_id, fund_id, type, quantity, price, dt_create`

func (r *Postgres) CreateTransaction(ctx context.Context, txn model.Transaction) (created model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.CreateTransaction"
	query := `
		INSERT INTO transactions(transaction_id, portfolio_id, fund_id, type, quantity, price, dt_create)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns

	slog.Debug(
		"CreateTransaction start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Any("transaction", txn),
		slog.String("query", query),
	)
	defer func() {
		if err != nil {
			slog.Error("CreateTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("CreateTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbTxn := dbModel.Transaction{}
	err = r.txOrDb(ctx).QueryRowxContext(
		ctx,
		query,
		txn.ID,
		txn.PortfolioID,
		txn.FundID,
		string(txn.Type),
		txn.Quantity,
		txn.Price,
		txn.Timestamp,
	).StructScan(&dbTxn)
	if err != nil {
		return model.Transaction{}, mapError(err)
	}

	return dbConverter.ConvertTransaction(dbTxn), nil
}

func (r *Postgres) GetTransaction(ctx context.Context, transactionID string) (txn model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTransaction"
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	slog.Debug("GetTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("transactionID", transactionID))
	defer func() {
		if err != nil {
			slog.Error("GetTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbTxn := dbModel.Transaction{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, transactionID).StructScan(&dbTxn)
	if err != nil {
		return model.Transaction{}, mapError(err)
	}

	return dbConverter.ConvertTransaction(dbTxn), nil
}

// GetTransactionsByPortfolio lists the portfolio ledger newest first.
func (r *Postgres) GetTransactionsByPortfolio(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY dt_create DESC, seq DESC
		`

	return r.getTransactions(ctx, "Postgres.GetTransactionsByPortfolio", query, portfolioID)
}

func (r *Postgres) GetTransactionsByFund(ctx context.Context, fundID string) ([]model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE fund_id = $1
		ORDER BY dt_create DESC, seq DESC
		`

	return r.getTransactions(ctx, "Postgres.GetTransactionsByFund", query, fundID)
}

func (r *Postgres) getTransactions(ctx context.Context, op, query string, arg string) (txns []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("getTransactions start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query), slog.String("arg", arg))
	defer func() {
		if err != nil {
			slog.Error("getTransactions failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("getTransactions completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(txns)))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, mapError(err)
	}

	defer rows.Close()

	txns = make([]model.Transaction, 0)
	for rows.Next() {
		var dbTxn dbModel.Transaction
		err = rows.StructScan(&dbTxn)
		if err != nil {
			return nil, err
		}
		txns = append(txns, dbConverter.ConvertTransaction(dbTxn))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return txns, nil
}
