package model

type action int

const (
	DefaultAction action = iota
	ExpectingPortfolioName
)

// Session is the per-chat telegram state.
type Session struct {
	Action      action `json:"action"`
	PortfolioID string `json:"portfolioId,omitempty"`
}
