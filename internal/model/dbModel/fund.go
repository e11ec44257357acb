package dbModel

import "github.com/shopspring/decimal"

type Fund struct {
	FundID   string          `db:"fund_id"`
	Name     string          `db:"name"`
	Symbol   string          `db:"symbol"`
	Price    decimal.Decimal `db:"price"`
	Currency string          `db:"currency"`
	Category string          `db:"category"`
}
