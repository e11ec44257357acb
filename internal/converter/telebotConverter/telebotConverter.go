package telebotConverter

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

// UsePortfolioUnique identifies the inline "select portfolio" button.
const UsePortfolioUnique = "use_portfolio"

func money(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + currency
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func FundsResponse(funds []model.Fund) string {
	if len(funds) == 0 {
		return "No funds found."
	}

	var sb strings.Builder
	sb.WriteString("📋 Funds:\n\n")
	for _, f := range funds {
		sb.WriteString(fmt.Sprintf("%s (%s) [%s]\n", f.Symbol, f.Name, f.Category))
		sb.WriteString(fmt.Sprintf("   ▸ id: %s\n", f.ID))
		sb.WriteString(fmt.Sprintf("   ▸ price: %s\n\n", money(f.Price, f.Currency)))
	}
	return sb.String()
}

func FundResponse(fund model.Fund, history []model.PricePoint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 %s (%s)\n", fund.Name, fund.Symbol))
	sb.WriteString(fmt.Sprintf("Category: %s\n", fund.Category))
	sb.WriteString(fmt.Sprintf("Price: %s\n", money(fund.Price, fund.Currency)))

	if len(history) > 0 {
		sb.WriteString(fmt.Sprintf("\nLast %d days:\n", len(history)))
		for _, p := range history {
			sb.WriteString(fmt.Sprintf("%s  %s\n", p.Date, p.Price.StringFixed(2)))
		}
	}
	return sb.String()
}

func PortfoliosResponse(portfolios []model.Portfolio, activeID string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	if len(portfolios) == 0 {
		return "You have no portfolios yet. Create one with /new <name>.", markup
	}

	var sb strings.Builder
	sb.WriteString("💼 Your portfolios:\n\n")
	rows := make([]tele.Row, 0, len(portfolios))
	for i, p := range portfolios {
		marker := ""
		if p.ID == activeID {
			marker = " ✅"
		}
		sb.WriteString(fmt.Sprintf("%d. %s%s\n   ▸ id: %s\n   ▸ holdings: %d\n", i+1, p.Name, marker, p.ID, len(p.Holdings)))
		rows = append(rows, markup.Row(markup.Data(p.Name, UsePortfolioUnique, p.ID)))
	}
	markup.Inline(rows...)

	return sb.String(), markup
}

func PortfolioCreatedResponse(portfolio model.Portfolio) string {
	return fmt.Sprintf("✅ Portfolio %q created and selected.\nid: %s", portfolio.Name, portfolio.ID)
}

func PortfolioSelectedResponse(portfolio model.Portfolio) string {
	return fmt.Sprintf("📊 Active portfolio: %s (%d holdings)", portfolio.Name, len(portfolio.Holdings))
}

func PortfolioValueResponse(portfolio model.Portfolio, value model.PortfolioValue) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 %s\n", portfolio.Name))
	sb.WriteString(fmt.Sprintf("💰 Value: %s\n", value.TotalValue.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Invested: %s\n", value.TotalInvested.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Return: %s (%s%%)\n", signed(value.ReturnAmount), signed(value.ReturnPercentage)))
	return sb.String()
}

func TopHoldingsResponse(holdings []model.TopHolding) string {
	if len(holdings) == 0 {
		return "The portfolio has no holdings."
	}

	var sb strings.Builder
	sb.WriteString("🏆 Top holdings:\n\n")
	for i, h := range holdings {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, h.Fund.Symbol, h.Fund.Name))
		sb.WriteString(fmt.Sprintf("   ▸ qty: %s @ %s\n", h.Quantity.String(), h.AveragePurchasePrice.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("   ▸ price: %s\n", h.Fund.CurrentPrice.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("   ▸ value: %s\n", h.CurrentValue.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("   ▸ gain: %s (%s%%)\n\n", signed(h.GainLoss), signed(h.GainLossPercentage)))
	}
	return sb.String()
}

func PerformanceResponse(perf model.PortfolioPerformance) string {
	return fmt.Sprintf("📈 Performance (estimated):\nDaily: %s\nWeekly: %s\nMonthly: %s",
		signed(perf.Daily), signed(perf.Weekly), signed(perf.Monthly))
}

func RealizedGainsResponse(gains decimal.Decimal) string {
	return fmt.Sprintf("💵 Realized gains (estimated): %s", signed(gains))
}

// HistoryResponse lists at most limit transactions from a newest-first ledger.
func HistoryResponse(txns []model.Transaction, limit int) string {
	if len(txns) == 0 {
		return "No transactions yet."
	}

	var sb strings.Builder
	sb.WriteString("🧾 Transactions:\n\n")
	for i, t := range txns {
		if i == limit {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(txns)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("%s %s %s × %s\n", t.Timestamp.Format("2006-01-02 15:04"), t.Type, t.Quantity.String(), t.Price.StringFixed(2)))
		sb.WriteString(fmt.Sprintf("   ▸ fund: %s\n", t.FundID))
	}
	return sb.String()
}

func TransactionResponse(txn model.Transaction) string {
	total := txn.Quantity.Mul(txn.Price)
	return fmt.Sprintf("✅ %s %s of %s at %s (total %s)\nid: %s",
		txn.Type, txn.Quantity.String(), txn.FundID, txn.Price.StringFixed(2), total.StringFixed(2), txn.ID)
}
