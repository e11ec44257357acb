package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	PortfolioID   string          `db:"portfolio_id"`
	FundID        string          `db:"fund_id"`
	Type          string          `db:"type"`
	Quantity      decimal.Decimal `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	CreatedAt     time.Time       `db:"dt_create"`
}
