// Package holdings applies ledger transactions to a portfolio's holdings.
package holdings

import (
	"slices"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
)

// Apply returns the holdings that result from one transaction. The input
// slice is never modified; the result is the new authoritative collection.
//
// A BUY folds into the fund's weighted-average purchase price. A SELL only
// reduces quantity and drops the holding once nothing positive remains. A
// SELL of a fund that is not held changes nothing.
func Apply(current []model.Holding, fundID string, txnType model.TransactionType, quantity, price decimal.Decimal) []model.Holding {
	next := slices.Clone(current)
	if next == nil {
		next = []model.Holding{}
	}

	idx := slices.IndexFunc(next, func(h model.Holding) bool { return h.FundID == fundID })

	switch txnType {
	case model.TransactionBuy:
		if idx < 0 {
			return append(next, model.Holding{
				FundID:               fundID,
				Quantity:             quantity,
				AveragePurchasePrice: price,
			})
		}

		h := next[idx]
		newQuantity := h.Quantity.Add(quantity)
		totalCost := h.Quantity.Mul(h.AveragePurchasePrice).Add(quantity.Mul(price))
		next[idx] = model.Holding{
			FundID:               fundID,
			Quantity:             newQuantity,
			AveragePurchasePrice: totalCost.Div(newQuantity),
		}
	case model.TransactionSell:
		if idx < 0 {
			return next
		}

		newQuantity := next[idx].Quantity.Sub(quantity)
		if !newQuantity.IsPositive() {
			return slices.Delete(next, idx, idx+1)
		}
		next[idx].Quantity = newQuantity
	}

	return next
}

// ApplyTransaction is Apply for a ledger entry.
func ApplyTransaction(current []model.Holding, txn model.Transaction) []model.Holding {
	return Apply(current, txn.FundID, txn.Type, txn.Quantity, txn.Price)
}

// Replay rebuilds holdings from an empty collection by applying the ledger
// oldest first. transactions are expected newest first, the way repositories
// list them, so entries sharing a timestamp are applied in reverse listing order.
func Replay(transactions []model.Transaction) []model.Holding {
	ordered := slices.Clone(transactions)
	slices.Reverse(ordered)
	slices.SortStableFunc(ordered, func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	result := []model.Holding{}
	for _, txn := range ordered {
		result = ApplyTransaction(result, txn)
	}
	return result
}

// Equal reports whether two holdings collections hold the same positions in
// the same order.
func Equal(a, b []model.Holding) bool {
	return slices.EqualFunc(a, b, func(x, y model.Holding) bool {
		return x.FundID == y.FundID &&
			x.Quantity.Equal(y.Quantity) &&
			x.AveragePurchasePrice.Equal(y.AveragePurchasePrice)
	})
}
