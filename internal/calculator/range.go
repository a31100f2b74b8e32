package calculator

import (
	"errors"
	"math"

	"SilverReport/internal/model"
)

// CalculateRange returns the highest high and lowest low across bars.
// Bars missing a high or low fall back to their close.
func CalculateRange(bars []model.Bar) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	seen := false
	for _, b := range bars {
		h, l := b.High, b.Low
		if h == nil {
			h = b.Close
		}
		if l == nil {
			l = b.Close
		}
		if h != nil && *h > high {
			high = *h
			seen = true
		}
		if l != nil && *l < low {
			low = *l
			seen = true
		}
	}
	if !seen {
		return 0, 0, errors.New("no priced bars provided")
	}
	if math.IsInf(high, -1) {
		high = low
	}
	if math.IsInf(low, 1) {
		low = high
	}
	return high, low, nil
}

// CalculateChangePct returns the percentage change from first to last.
func CalculateChangePct(first, last float64) (float64, error) {
	if first == 0 {
		return 0, errors.New("first price must be non-zero")
	}
	return (last - first) / first * 100, nil
}
