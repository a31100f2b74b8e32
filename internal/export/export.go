package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"

	"SilverReport/internal/model"
)

// WriteJSON writes pair to path as indented JSON with non-ASCII text kept
// verbatim. The file is replaced atomically, never partially written.
func WriteJSON(path string, pair *model.ReportPair) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pair); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("bytes", buf.Len()).Msg("report exported")
	return nil
}

// FillSamples returns market and news with sample data substituted for
// whatever came back empty, so a static front end always has something to
// render. It reports whether anything was substituted.
func FillSamples(market model.MarketSnapshot, news []model.NewsItem, now time.Time) (model.MarketSnapshot, []model.NewsItem, bool) {
	changed := false
	if len(market["Silver"]) == 0 {
		log.Warn().Msg("market data collection failed, using sample data")
		market = SampleMarket(now)
		changed = true
	}
	if len(news) == 0 {
		log.Warn().Msg("news collection failed, using sample data")
		news = SampleNews(now)
		changed = true
	}
	return market, news, changed
}

// SampleNews is the single placeholder article used when news collection fails.
func SampleNews(now time.Time) []model.NewsItem {
	return []model.NewsItem{{
		Title:         "데이터 수집 실패: 샘플 뉴스",
		URL:           "#",
		PublishedDate: now.UTC().Format(time.RFC3339),
	}}
}

// SkippedReportText stands in for a report that was never generated.
const SkippedReportText = "AI 분석 실패 (API Key 없음)"

// FillSkippedText gives skipped outcomes a readable body so the static page
// never renders an empty panel.
func FillSkippedText(pair *model.ReportPair) {
	if pair.Bullish.Status == model.StatusSkipped && pair.BullishReport == "" {
		pair.BullishReport = SkippedReportText
	}
	if pair.Bearish.Status == model.StatusSkipped && pair.BearishReport == "" {
		pair.BearishReport = SkippedReportText
	}
}

// SampleMarket returns a small fixed snapshot dated on now's day.
func SampleMarket(now time.Time) model.MarketSnapshot {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	at := func(hour int) string { return day.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339) }
	bar := func(hour int, o, h, l, c, v float64) model.Bar {
		return model.Bar{
			Datetime: at(hour),
			Open:     model.Float(o),
			High:     model.Float(h),
			Low:      model.Float(l),
			Close:    model.Float(c),
			Volume:   model.Float(v),
		}
	}
	return model.MarketSnapshot{
		"Silver": {
			bar(10, 30.5, 30.8, 30.3, 30.6, 1000),
			bar(11, 30.6, 30.9, 30.5, 30.7, 1100),
			bar(12, 30.7, 31.0, 30.6, 30.9, 1200),
		},
		"Gold":      {bar(10, 2050, 2055, 2048, 2052, 500)},
		"Bitcoin":   {bar(10, 45000, 45500, 44800, 45200, 100)},
		"USD_Index": {},
	}
}
