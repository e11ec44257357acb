package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionBuy, TransactionSell:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID          string
	PortfolioID string
	FundID      string
	Type        TransactionType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Timestamp   time.Time
}

type TransactionRequest struct {
	PortfolioID string
	FundID      string
	Type        TransactionType
	Quantity    decimal.Decimal
	Price       *decimal.Decimal // nil means the fund's current price
}
