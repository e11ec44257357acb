package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one fund. Quantity is always positive while the
// holding is part of a portfolio.
type Holding struct {
	FundID               string
	Quantity             decimal.Decimal
	AveragePurchasePrice decimal.Decimal
}

type Portfolio struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	Holdings  []Holding
}

// Holding returns the holding for fundID, if any.
func (p Portfolio) Holding(fundID string) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.FundID == fundID {
			return h, true
		}
	}
	return Holding{}, false
}

type PortfolioValue struct {
	TotalValue       decimal.Decimal
	TotalInvested    decimal.Decimal
	ReturnAmount     decimal.Decimal
	ReturnPercentage decimal.Decimal
}

type PortfolioReturns struct {
	ReturnAmount     decimal.Decimal
	ReturnPercentage decimal.Decimal
}

type PortfolioPerformance struct {
	Daily   decimal.Decimal
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
}

type TopHolding struct {
	Fund                 FundSummary
	Quantity             decimal.Decimal
	AveragePurchasePrice decimal.Decimal
	CurrentValue         decimal.Decimal
	GainLoss             decimal.Decimal
	GainLossPercentage   decimal.Decimal
}

// PortfolioReport is everything an export needs about one portfolio.
type PortfolioReport struct {
	Portfolio     Portfolio
	Value         PortfolioValue
	Performance   PortfolioPerformance
	RealizedGains decimal.Decimal
	Holdings      []TopHolding
	Transactions  []Transaction
	GeneratedAt   time.Time
}
