package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"SilverReport/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of the finance-go chart iterator.
type FinanceGoFetcher struct {
	now func() time.Time
}

// NewFinanceGoFetcher creates a finance-go backed fetcher.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchBars(ctx context.Context, symbol, period, interval string) ([]model.Bar, error) {
	span, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := f.now()
	start := end.Add(-span)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	})

	var bars []model.Bar
	for iter.Next() {
		b := iter.Bar()
		bar := model.Bar{
			Datetime: time.Unix(int64(b.Timestamp), 0).UTC().Format(time.RFC3339),
			Open:     decimalPtr(b.Open),
			High:     decimalPtr(b.High),
			Low:      decimalPtr(b.Low),
			Close:    decimalPtr(b.Close),
			Volume:   model.Float(float64(b.Volume)),
		}
		if bar.Open == nil && bar.High == nil && bar.Low == nil && bar.Close == nil {
			continue
		}
		bars = append(bars, bar)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	return bars, nil
}

// decimalPtr maps the zero value, which finance-go uses for missing prices, to nil.
func decimalPtr(d decimal.Decimal) *float64 {
	if d.IsZero() {
		return nil
	}
	v, _ := d.Float64()
	return &v
}
