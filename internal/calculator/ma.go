package calculator

import (
	"errors"

	"SilverReport/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// Closes extracts the close prices of bars that carry one, preserving order.
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close != nil {
			closes = append(closes, *b.Close)
		}
	}
	return closes
}
