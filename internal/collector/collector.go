package collector

import (
	"context"

	"github.com/phuslu/log"

	"SilverReport/internal/model"
)

// Collector fetches bars for every configured asset.
type Collector struct {
	Fetcher  Fetcher
	Assets   []model.Asset
	Period   string
	Interval string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, assets []model.Asset, period, interval string) *Collector {
	return &Collector{Fetcher: fetcher, Assets: assets, Period: period, Interval: interval}
}

// Collect returns a snapshot holding every asset. A failed or empty fetch maps
// the asset to an empty slice and never aborts the others.
func (c *Collector) Collect(ctx context.Context) model.MarketSnapshot {
	snap := make(model.MarketSnapshot, len(c.Assets))
	for _, asset := range c.Assets {
		bars, err := c.Fetcher.FetchBars(ctx, asset.Symbol, c.Period, c.Interval)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("asset", asset.Name).Str("symbol", asset.Symbol).
				Str("source", c.Fetcher.Name()).Msg("market fetch failed")
			bars = []model.Bar{}
		case len(bars) == 0:
			log.Warn().Str("asset", asset.Name).Str("symbol", asset.Symbol).Msg("no market data returned")
			bars = []model.Bar{}
		default:
			log.Debug().Str("asset", asset.Name).Int("bars", len(bars)).Msg("market data collected")
		}
		snap[asset.Name] = bars
	}
	return snap
}
