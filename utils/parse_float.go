package utils

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/HSouheill/taskreward_backend/models"
)

// ParseAmount parses a user-entered money amount, rounded to cents. Empty, malformed,
// zero and negative input all yield models.ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, models.ErrInvalidAmount
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, models.ErrInvalidAmount
	}
	value = value.Round(2)
	if !value.IsPositive() {
		return decimal.Zero, models.ErrInvalidAmount
	}
	return value, nil
}

// SumAmounts adds float amounts exactly, so many small entries don't accumulate drift.
func SumAmounts(amounts []float64) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum
}
