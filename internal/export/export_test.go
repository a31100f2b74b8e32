package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SilverReport/internal/model"
)

func TestWriteJSON_OverwritesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontend", "public", "data.json")
	ts := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	first := &model.ReportPair{
		Timestamp:     &ts,
		BullishReport: strings.Repeat("long report ", 500),
		BearishReport: "# ⚠️ 비관적 리포트: <하락>",
		MarketData:    model.MarketSnapshot{"Silver": {{Datetime: "2024-01-02T10:00:00Z", Close: model.Float(22)}}},
		NewsData:      []model.NewsItem{},
	}
	require.NoError(t, WriteJSON(path, first))

	second := &model.ReportPair{
		Timestamp:     &ts,
		BullishReport: "short",
		BearishReport: "short",
		MarketData:    model.MarketSnapshot{},
		NewsData:      []model.NewsItem{},
	}
	require.NoError(t, WriteJSON(path, second))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "long report")

	var got model.ReportPair
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "short", got.BullishReport)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteJSON_KeepsUnicodeAndIndent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, WriteJSON(path, &model.ReportPair{
		BearishReport: "# ⚠️ 비관적 리포트: <하락>",
		MarketData:    model.MarketSnapshot{},
		NewsData:      []model.NewsItem{},
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "비관적 리포트: <하락>")
	assert.Contains(t, string(raw), "\n  \"bullish_report\"")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"timestamp", "bullish_report", "bearish_report", "market_data", "news_data", "bullish", "bearish", "analyzed"} {
		assert.Contains(t, doc, key)
	}
}

func TestFillSamples(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

	market, news, changed := FillSamples(model.MarketSnapshot{"Silver": {}, "Gold": {}}, []model.NewsItem{}, now)
	assert.True(t, changed)
	require.Len(t, market["Silver"], 3)
	assert.Equal(t, "2024-03-04T10:00:00Z", market["Silver"][0].Datetime)
	assert.Equal(t, 30.9, *market["Silver"][2].Close)
	assert.NotNil(t, market["USD_Index"])
	require.Len(t, news, 1)
	assert.Equal(t, "#", news[0].URL)

	_, _, changed = FillSamples(market, news, now)
	assert.False(t, changed, "real data is left alone")
}

func TestFillSamples_KeepsCollectedData(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	market := model.MarketSnapshot{"Silver": {{Datetime: "2024-03-04T09:00:00Z", Close: model.Float(29)}}}

	gotMarket, gotNews, changed := FillSamples(market, nil, now)
	assert.True(t, changed)
	require.Len(t, gotMarket["Silver"], 1)
	assert.Equal(t, 29.0, *gotMarket["Silver"][0].Close)
	require.Len(t, gotNews, 1)
	assert.Equal(t, "데이터 수집 실패: 샘플 뉴스", gotNews[0].Title)
}

func TestFillSkippedText(t *testing.T) {
	pair := &model.ReportPair{
		Bullish: model.ReportOutcome{Status: model.StatusSkipped},
		Bearish: model.ReportOutcome{Status: model.StatusFailed},
	}
	FillSkippedText(pair)
	assert.Equal(t, SkippedReportText, pair.BullishReport)
	assert.Empty(t, pair.BearishReport, "failed reports keep their empty body")

	ok := &model.ReportPair{
		BullishReport: "# 🚀 낙관적 리포트",
		Bullish:       model.ReportOutcome{Status: model.StatusOK},
	}
	FillSkippedText(ok)
	assert.Equal(t, "# 🚀 낙관적 리포트", ok.BullishReport)
}
