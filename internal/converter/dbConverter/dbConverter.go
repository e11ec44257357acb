package dbConverter

import (
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model/dbModel"
)

func ConvertFund(dbFund dbModel.Fund) model.Fund {
	return model.Fund{
		ID:       dbFund.FundID,
		Name:     dbFund.Name,
		Symbol:   dbFund.Symbol,
		Price:    dbFund.Price,
		Currency: dbFund.Currency,
		Category: model.FundCategory(dbFund.Category),
	}
}

func ConvertHolding(dbHolding dbModel.Holding) model.Holding {
	return model.Holding{
		FundID:               dbHolding.FundID,
		Quantity:             dbHolding.Quantity,
		AveragePurchasePrice: dbHolding.AveragePurchasePrice,
	}
}

// ConvertPortfolio expects holdings already ordered by ordinal.
func ConvertPortfolio(dbPortfolio dbModel.Portfolio, dbHoldings []dbModel.Holding) model.Portfolio {
	holdings := make([]model.Holding, 0, len(dbHoldings))
	for _, h := range dbHoldings {
		holdings = append(holdings, ConvertHolding(h))
	}

	return model.Portfolio{
		ID:        dbPortfolio.PortfolioID,
		UserID:    dbPortfolio.UserID,
		Name:      dbPortfolio.Name,
		CreatedAt: dbPortfolio.CreatedAt.UTC(),
		Holdings:  holdings,
	}
}

func ConvertTransaction(dbTxn dbModel.Transaction) model.Transaction {
	return model.Transaction{
		ID:          dbTxn.TransactionID,
		PortfolioID: dbTxn.PortfolioID,
		FundID:      dbTxn.FundID,
		Type:        model.TransactionType(dbTxn.Type),
		Quantity:    dbTxn.Quantity,
		Price:       dbTxn.Price,
		Timestamp:   dbTxn.CreatedAt.UTC(),
	}
}
