package calculator

import (
	"sort"

	"github.com/phuslu/log"

	"SilverReport/internal/model"
)

// Digest summarises one asset's bars. Statistics that cannot be computed are left at zero,
// except RSI which defaults to 50.
func Digest(asset string, bars []model.Bar) model.AssetDigest {
	d := model.AssetDigest{Asset: asset, Bars: len(bars), RSI14: 50}
	if len(bars) == 0 {
		return d
	}
	d.LastTime = bars[len(bars)-1].Datetime

	closes := Closes(bars)
	if len(closes) == 0 {
		return d
	}
	d.FirstClose = closes[0]
	d.LastClose = closes[len(closes)-1]

	if pct, err := CalculateChangePct(d.FirstClose, d.LastClose); err != nil {
		log.Debug().Str("asset", asset).Err(err).Msg("change calculation skipped")
	} else {
		d.ChangePct = pct
	}

	if h, l, err := CalculateRange(bars); err != nil {
		log.Debug().Str("asset", asset).Err(err).Msg("range calculation skipped")
	} else {
		d.High, d.Low = h, l
	}

	if sma, err := CalculateSMA(closes, 20); err != nil {
		d.SMA20 = d.LastClose
	} else {
		d.SMA20 = sma
	}

	if rsi, err := CalculateRSI(closes, 14); err == nil {
		d.RSI14 = rsi
	}
	return d
}

// DigestSnapshot computes digests for the given asset order. Assets absent from
// the snapshot get an empty digest. A nil order digests every asset by name.
func DigestSnapshot(snap model.MarketSnapshot, order []string) []model.AssetDigest {
	if order == nil {
		for name := range snap {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	out := make([]model.AssetDigest, 0, len(order))
	for _, name := range order {
		out = append(out, Digest(name, snap[name]))
	}
	return out
}
