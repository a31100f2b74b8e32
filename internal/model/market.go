package model

import "time"

// Bar represents a single candlestick bar. Numeric fields are nil when the
// provider returned no value for them.
type Bar struct {
	Datetime string   `json:"Datetime"`
	Open     *float64 `json:"Open,omitempty"`
	High     *float64 `json:"High,omitempty"`
	Low      *float64 `json:"Low,omitempty"`
	Close    *float64 `json:"Close,omitempty"`
	Volume   *float64 `json:"Volume,omitempty"`
}

// Time parses the bar timestamp. The zero time is returned when it cannot be parsed.
func (b Bar) Time() time.Time {
	t, err := time.Parse(time.RFC3339, b.Datetime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Asset pairs a display label with the provider ticker.
type Asset struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
}

// DefaultAssets is the fixed instrument set covered by every report.
var DefaultAssets = []Asset{
	{Name: "Silver", Symbol: "SLV"},
	{Name: "Gold", Symbol: "GC=F"},
	{Name: "Bitcoin", Symbol: "BTC-USD"},
	{Name: "USD_Index", Symbol: "DX-Y.NYB"},
}

// MarketSnapshot maps an asset label to its bars in chronological order.
type MarketSnapshot map[string][]Bar

// Clone returns a copy whose bar slices can be handed to other goroutines.
func (s MarketSnapshot) Clone() MarketSnapshot {
	if s == nil {
		return MarketSnapshot{}
	}
	out := make(MarketSnapshot, len(s))
	for k, bars := range s {
		cp := make([]Bar, len(bars))
		copy(cp, bars)
		out[k] = cp
	}
	return out
}

// TotalBars counts bars across all assets.
func (s MarketSnapshot) TotalBars() int {
	n := 0
	for _, bars := range s {
		n += len(bars)
	}
	return n
}

// Float returns a pointer to v, for building bars.
func Float(v float64) *float64 { return &v }
