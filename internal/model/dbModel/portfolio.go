package dbModel

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	PortfolioID string    `db:"portfolio_id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
}

type Holding struct {
	PortfolioID          string          `db:"portfolio_id"`
	FundID               string          `db:"fund_id"`
	Ordinal              int             `db:"ordinal"`
	Quantity             decimal.Decimal `db:"quantity"`
	AveragePurchasePrice decimal.Decimal `db:"average_purchase_price"`
}
