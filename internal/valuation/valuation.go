// Package valuation computes portfolio figures from a portfolio snapshot,
// the fund price list and the transaction ledger. Every function is pure and
// safe for concurrent use.
package valuation

import (
	"math/rand"
	"slices"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const DefaultTopHoldingsLimit = 5

var (
	hundred = decimal.NewFromInt(100)

	// assumed cost of a sold unit relative to its sale price
	realizedCostRatio = decimal.RequireFromString("0.95")

	performanceBaseRatio = decimal.RequireFromString("0.95")
	dailyGrowth          = decimal.RequireFromString("1.01")
	weeklyGrowth         = decimal.RequireFromString("1.05")
	monthlyGrowth        = decimal.RequireFromString("1.15")
)

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func fundsByID(funds []model.Fund) map[string]model.Fund {
	return lo.KeyBy(funds, func(f model.Fund) string { return f.ID })
}

// CalculatePortfolioValue values every holding at its fund's current price.
// Holdings whose fund is missing from funds contribute nothing.
func CalculatePortfolioValue(portfolio model.Portfolio, funds []model.Fund) model.PortfolioValue {
	byID := fundsByID(funds)

	totalValue := decimal.Zero
	totalInvested := decimal.Zero
	for _, h := range portfolio.Holdings {
		fund, ok := byID[h.FundID]
		if !ok {
			continue
		}
		totalValue = totalValue.Add(fund.Price.Mul(h.Quantity))
		totalInvested = totalInvested.Add(h.AveragePurchasePrice.Mul(h.Quantity))
	}

	returnAmount := totalValue.Sub(totalInvested)
	returnPercentage := decimal.Zero
	if totalInvested.IsPositive() {
		returnPercentage = returnAmount.Div(totalInvested).Mul(hundred)
	}

	return model.PortfolioValue{
		TotalValue:       round(totalValue),
		TotalInvested:    round(totalInvested),
		ReturnAmount:     round(returnAmount),
		ReturnPercentage: round(returnPercentage),
	}
}

// UnmatchedHoldings returns the fund IDs of holdings that have no entry in
// funds, in holdings order.
func UnmatchedHoldings(portfolio model.Portfolio, funds []model.Fund) []string {
	byID := fundsByID(funds)
	return lo.FilterMap(portfolio.Holdings, func(h model.Holding, _ int) (string, bool) {
		_, ok := byID[h.FundID]
		return h.FundID, !ok
	})
}

// CalculateRealizedGains approximates realized profit with a FIFO match of
// SELL quantities against earlier BUY quantities of the same fund, in ledger
// order. The cost of a matched unit is taken as 95% of its sale price rather
// than the recorded purchase price. Sold units with no queued BUY carry no cost.
func CalculateRealizedGains(transactions []model.Transaction) decimal.Decimal {
	realized := decimal.Zero
	buys := make(map[string][]decimal.Decimal)

	for _, txn := range transactions {
		switch txn.Type {
		case model.TransactionBuy:
			buys[txn.FundID] = append(buys[txn.FundID], txn.Quantity)
		case model.TransactionSell:
			queue := buys[txn.FundID]
			unitCost := txn.Price.Mul(realizedCostRatio)
			remaining := txn.Quantity
			totalCost := decimal.Zero

			for i := 0; i < len(queue) && remaining.IsPositive(); i++ {
				if queue[i].LessThanOrEqual(remaining) {
					totalCost = totalCost.Add(queue[i].Mul(unitCost))
					remaining = remaining.Sub(queue[i])
					queue[i] = decimal.Zero
				} else {
					totalCost = totalCost.Add(remaining.Mul(unitCost))
					queue[i] = queue[i].Sub(remaining)
					remaining = decimal.Zero
				}
			}

			saleValue := txn.Quantity.Mul(txn.Price)
			realized = realized.Add(saleValue.Sub(totalCost))
		}
	}

	return round(realized)
}

// CalculatePerformance estimates daily, weekly and monthly change against
// synthetic reference values derived from the current value. It does not
// look at price history; transactions are accepted for interface stability
// and ignored.
func CalculatePerformance(portfolio model.Portfolio, _ []model.Transaction, funds []model.Fund) model.PortfolioPerformance {
	currentValue := CalculatePortfolioValue(portfolio, funds).TotalValue
	if currentValue.IsZero() {
		return model.PortfolioPerformance{Daily: decimal.Zero, Weekly: decimal.Zero, Monthly: decimal.Zero}
	}

	base := currentValue.Mul(performanceBaseRatio)
	change := func(growth decimal.Decimal) decimal.Decimal {
		periodValue := base.Mul(growth)
		return round(currentValue.Sub(periodValue).Div(periodValue).Mul(hundred))
	}

	return model.PortfolioPerformance{
		Daily:   change(dailyGrowth),
		Weekly:  change(weeklyGrowth),
		Monthly: change(monthlyGrowth),
	}
}

// GeneratePriceHistory returns days+1 synthetic daily prices, oldest first,
// ending today. Each price deviates from the fund's current price by a
// uniformly random amount in [-5%, +5%).
func GeneratePriceHistory(fund model.Fund, days int) []model.PricePoint {
	return generatePriceHistory(fund, days, time.Now(), rand.Float64)
}

func generatePriceHistory(fund model.Fund, days int, now time.Time, randFloat func() float64) []model.PricePoint {
	if days < 0 {
		return []model.PricePoint{}
	}

	now = now.UTC()
	history := make([]model.PricePoint, 0, days+1)
	for i := days; i >= 0; i-- {
		date := now.Add(-time.Duration(i) * 24 * time.Hour)
		variation := decimal.NewFromFloat((randFloat() - 0.5) * 0.1)
		history = append(history, model.PricePoint{
			Date:  date.Format(time.DateOnly),
			Price: round(fund.Price.Mul(decimal.NewFromInt(1).Add(variation))),
		})
	}

	return history
}

// GetTopHoldings ranks holdings by current value, highest first. Equal values
// keep their holdings order. Holdings without a known fund are skipped.
func GetTopHoldings(portfolio model.Portfolio, funds []model.Fund, limit int) []model.TopHolding {
	if limit <= 0 {
		return []model.TopHolding{}
	}

	byID := fundsByID(funds)
	top := lo.FilterMap(portfolio.Holdings, func(h model.Holding, _ int) (model.TopHolding, bool) {
		fund, ok := byID[h.FundID]
		if !ok {
			return model.TopHolding{}, false
		}

		diff := fund.Price.Sub(h.AveragePurchasePrice)
		gainLossPercentage := decimal.Zero
		if !h.AveragePurchasePrice.IsZero() {
			gainLossPercentage = diff.Div(h.AveragePurchasePrice).Mul(hundred)
		}

		return model.TopHolding{
			Fund: model.FundSummary{
				ID:           fund.ID,
				Name:         fund.Name,
				Symbol:       fund.Symbol,
				CurrentPrice: fund.Price,
			},
			Quantity:             h.Quantity,
			AveragePurchasePrice: h.AveragePurchasePrice,
			CurrentValue:         fund.Price.Mul(h.Quantity),
			GainLoss:             diff.Mul(h.Quantity),
			GainLossPercentage:   gainLossPercentage,
		}, true
	})

	slices.SortStableFunc(top, func(a, b model.TopHolding) int {
		return b.CurrentValue.Cmp(a.CurrentValue)
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}
