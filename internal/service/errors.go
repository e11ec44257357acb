package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPortfolioNotFound      ErrorKind = "PortfolioNotFound"
	KindFundNotFound           ErrorKind = "FundNotFound"
	KindPriceOutOfTolerance    ErrorKind = "PriceOutOfTolerance"
	KindInvalidQuantity        ErrorKind = "InvalidQuantity"
	KindInsufficientHoldings   ErrorKind = "InsufficientHoldings"
	KindInvalidTransactionType ErrorKind = "InvalidTransactionType"
)

// ValidationError is an expected business-rule rejection. Compare with
// errors.Is against the Err* values below; matching is by Kind only.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newValidationError(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func PortfolioNotFound(portfolioID string) error {
	return newValidationError(KindPortfolioNotFound, "portfolio %s not found", portfolioID)
}

func FundNotFound(fundID string) error {
	return newValidationError(KindFundNotFound, "fund %s not found", fundID)
}

func PriceOutOfTolerance(format string, args ...any) error {
	return newValidationError(KindPriceOutOfTolerance, format, args...)
}

func InvalidQuantity(format string, args ...any) error {
	return newValidationError(KindInvalidQuantity, format, args...)
}

func InsufficientHoldings(format string, args ...any) error {
	return newValidationError(KindInsufficientHoldings, format, args...)
}

func InvalidTransactionType(txnType string) error {
	return newValidationError(KindInvalidTransactionType, "type must be BUY or SELL, got %q", txnType)
}

var (
	ErrPortfolioNotFound      = &ValidationError{Kind: KindPortfolioNotFound}
	ErrFundNotFound           = &ValidationError{Kind: KindFundNotFound}
	ErrPriceOutOfTolerance    = &ValidationError{Kind: KindPriceOutOfTolerance}
	ErrInvalidQuantity        = &ValidationError{Kind: KindInvalidQuantity}
	ErrInsufficientHoldings   = &ValidationError{Kind: KindInsufficientHoldings}
	ErrInvalidTransactionType = &ValidationError{Kind: KindInvalidTransactionType}

	ErrNotFound        = errors.New("error not found")
	ErrInvalidArgument = errors.New("error invalid argument")
)

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrPortfolioNotFound) || errors.Is(err, ErrFundNotFound)
}

// IsValidation reports whether err is a business-rule rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
