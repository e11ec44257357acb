package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type FundCategory string

const (
	CategoryTech       FundCategory = "tech"
	CategoryHealthcare FundCategory = "healthcare"
	CategoryFinance    FundCategory = "finance"
	CategoryEnergy     FundCategory = "energy"
	CategoryConsumer   FundCategory = "consumer"
	CategoryIndustrial FundCategory = "industrial"
)

var FundCategories = []FundCategory{
	CategoryTech,
	CategoryHealthcare,
	CategoryFinance,
	CategoryEnergy,
	CategoryConsumer,
	CategoryIndustrial,
}

func ParseFundCategory(s string) (FundCategory, error) {
	c := FundCategory(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FundCategories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown fund category %q", s)
}

type Fund struct {
	ID       string
	Name     string
	Symbol   string
	Price    decimal.Decimal
	Currency string
	Category FundCategory
}

type FundSummary struct {
	ID           string
	Name         string
	Symbol       string
	CurrentPrice decimal.Decimal
}

type PricePoint struct {
	Date  string // YYYY-MM-DD
	Price decimal.Decimal
}
