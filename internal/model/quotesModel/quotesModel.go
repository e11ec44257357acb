package quotesModel

import "github.com/shopspring/decimal"

// RawQuotes is the quotes API response body:
//
//	{"quotes": [{"symbol": "TECH", "price": "150.50", "currency": "USD"}]}
type RawQuotes struct {
	Quotes []RawQuote `json:"quotes"`
}

type RawQuote struct {
	Symbol   string           `json:"symbol"`
	Price    *decimal.Decimal `json:"price"`
	Currency string           `json:"currency"`
}

type Quote struct {
	Symbol   string
	Price    decimal.Decimal
	Currency string
}
