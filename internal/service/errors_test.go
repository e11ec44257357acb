package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_IsMatchesKind(t *testing.T) {
	err := InsufficientHoldings("cannot sell %s", "10")

	assert.ErrorIs(t, err, ErrInsufficientHoldings)
	assert.NotErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, "InsufficientHoldings: cannot sell 10", err.Error())

	wrapped := fmt.Errorf("create: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientHoldings)
	assert.True(t, IsValidation(wrapped))

	var vErr *ValidationError
	assert.True(t, errors.As(wrapped, &vErr))
	assert.Equal(t, KindInsufficientHoldings, vErr.Kind)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(PortfolioNotFound("p")))
	assert.True(t, IsNotFound(FundNotFound("f")))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrNotFound)))
	assert.False(t, IsNotFound(PriceOutOfTolerance("off")))
	assert.False(t, IsNotFound(ErrInvalidArgument))
	assert.False(t, IsValidation(ErrInvalidArgument))
}
