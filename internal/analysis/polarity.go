package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPolarity is returned for any report stance other than bullish or bearish.
var ErrInvalidPolarity = errors.New("invalid report polarity")

// Polarity is the stance a report is written from.
type Polarity string

const (
	Bullish Polarity = "bullish"
	Bearish Polarity = "bearish"
)

// ParsePolarity accepts "bullish" or "bearish" in any case.
func ParsePolarity(s string) (Polarity, error) {
	switch p := Polarity(strings.ToLower(strings.TrimSpace(s))); p {
	case Bullish, Bearish:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (use 'bullish' or 'bearish')", ErrInvalidPolarity, s)
	}
}

func (p Polarity) String() string { return string(p) }
