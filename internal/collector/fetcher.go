package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SilverReport/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns bars for symbol over period (e.g. "7d") at interval (e.g. "1h"),
	// oldest first.
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.Bar, error)
	Name() string
}

// NewFetcher builds the fetcher named by source.
func NewFetcher(source, proxyURL string) (Fetcher, error) {
	switch source {
	case "", "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "financego":
		return NewFinanceGoFetcher(), nil
	case "mock":
		return &MockFetcher{Price: 30}, nil
	default:
		return nil, fmt.Errorf("unknown market source %q", source)
	}
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars overrides generated data per symbol.
	Bars map[string][]model.Bar
	// Errs makes the listed symbols fail.
	Errs map[string]error
	// Now anchors generated timestamps; zero means time.Now.
	Now time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol, period, interval string) ([]model.Bar, error) {
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	span, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	step, err := parseInterval(interval)
	if err != nil {
		return nil, err
	}
	count := int(span / step)
	if count > 500 {
		count = 500
	}
	now := m.Now
	if now.IsZero() {
		now = time.Now()
	}
	return generateMockBars(m.Price, count, now.Truncate(step), step), nil
}

func generateMockBars(basePrice float64, count int, end time.Time, step time.Duration) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Datetime: end.Add(-time.Duration(count-1-i) * step).UTC().Format(time.RFC3339),
			Open:     model.Float(p * 0.999),
			High:     model.Float(p * 1.005),
			Low:      model.Float(p * 0.995),
			Close:    model.Float(p),
			Volume:   model.Float(1000000),
		}
	}
	return bars
}

// ParsePeriod converts a Yahoo style range ("7d", "2wk", "1mo", "1y") to a duration.
// Months count as 30 days and years as 365.
func ParsePeriod(period string) (time.Duration, error) {
	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"wk", 7 * 24 * time.Hour},
		{"mo", 30 * 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"y", 365 * 24 * time.Hour},
	}
	for _, u := range units {
		if !strings.HasSuffix(period, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(period, u.suffix))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid period %q", period)
		}
		return time.Duration(n) * u.unit, nil
	}
	return 0, fmt.Errorf("invalid period %q", period)
}

func parseInterval(interval string) (time.Duration, error) {
	switch interval {
	case "1wk":
		return 7 * 24 * time.Hour, nil
	case "1d", "5d":
		n, _ := strconv.Atoi(strings.TrimSuffix(interval, "d"))
		return time.Duration(n) * 24 * time.Hour, nil
	case "1mo", "3mo":
		n, _ := strconv.Atoi(strings.TrimSuffix(interval, "mo"))
		return time.Duration(n) * 30 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	return d, nil
}
