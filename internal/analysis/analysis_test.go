package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SilverReport/internal/model"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   []string
	prompts []string
	replies map[string]string
	errs    map[string]error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, prompt)
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	return f.replies[model], nil
}

func (f *fakeProvider) ListModels(context.Context) ([]string, error) { return []string{"m1"}, nil }

func sampleInputs() Inputs {
	return Inputs{
		Market: model.MarketSnapshot{
			"Silver": {{Datetime: "2024-01-02T10:00:00Z", Close: model.Float(22.5), High: model.Float(23), Low: model.Float(22)}},
			"Gold":   {},
		},
		AssetOrder: []string{"Silver", "Gold"},
		News:       []model.NewsItem{{Title: "Silver rallies", URL: "https://example.com"}},
		Transcript: "transcript body",
	}
}

func TestParsePolarity(t *testing.T) {
	p, err := ParsePolarity("BULLISH")
	require.NoError(t, err)
	assert.Equal(t, Bullish, p)

	p, err = ParsePolarity(" Bearish ")
	require.NoError(t, err)
	assert.Equal(t, Bearish, p)

	_, err = ParsePolarity("sideways")
	assert.ErrorIs(t, err, ErrInvalidPolarity)
}

func TestGenerate_InvalidPolarityCallsNoModel(t *testing.T) {
	fp := &fakeProvider{replies: map[string]string{"m1": "text"}}
	g := NewGenerator(fp, []string{"m1"}, 0, DefaultBudgets)

	_, err := g.Generate(context.Background(), Polarity("sideways"), sampleInputs())
	assert.ErrorIs(t, err, ErrInvalidPolarity)
	assert.Empty(t, fp.calls)
}

func TestGenerate_FallsBackInOrder(t *testing.T) {
	fp := &fakeProvider{
		errs: map[string]error{"m1": errors.New("quota exceeded")},
		replies: map[string]string{
			"m2": "",
			"m3": "# 🚀 낙관적 리포트: 은",
		},
	}
	g := NewGenerator(fp, []string{"m1", "m2", "m3", "m4"}, 0, DefaultBudgets)

	r, err := g.Generate(context.Background(), Bullish, sampleInputs())
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, fp.calls)
	assert.Equal(t, "m3", r.Model)
	assert.Equal(t, Bullish, r.Polarity)
	assert.Equal(t, "# 🚀 낙관적 리포트: 은", r.Text)
	require.Len(t, r.Failures, 2)
	assert.Equal(t, model.ModelFailure{Model: "m1", Reason: "quota exceeded"}, r.Failures[0])
	assert.Equal(t, "empty response", r.Failures[1].Reason)

	// every attempt sees the same prompt
	assert.Equal(t, fp.prompts[0], fp.prompts[2])
}

func TestGenerate_AllFailReportsEveryReason(t *testing.T) {
	fp := &fakeProvider{errs: map[string]error{
		"m1": errors.New("404 not found"),
		"m2": errors.New("permission denied"),
	}}
	g := NewGenerator(fp, []string{"m1", "m2"}, 0, DefaultBudgets)

	_, err := g.Generate(context.Background(), Bearish, sampleInputs())
	require.Error(t, err)

	var fe *FallbackError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, Bearish, fe.Polarity)
	assert.Len(t, fe.Failures, 2)
	assert.Contains(t, err.Error(), "m1: 404 not found; m2: permission denied")
}

func TestGenerate_NoModels(t *testing.T) {
	g := NewGenerator(&fakeProvider{}, nil, 0, DefaultBudgets)
	_, err := g.Generate(context.Background(), Bullish, sampleInputs())
	assert.ErrorIs(t, err, ErrNoModels)
}

func TestGenerate_CancelledContext(t *testing.T) {
	fp := &fakeProvider{replies: map[string]string{"m1": "text"}}
	g := NewGenerator(fp, []string{"m1"}, 0, DefaultBudgets)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, Bullish, sampleInputs())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fp.calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))

	// "은" is three bytes; a budget inside it backs off to the previous boundary.
	s := strings.Repeat("은", 10)
	for budget := 0; budget <= len(s)+1; budget++ {
		out := Truncate(s, budget)
		assert.LessOrEqual(t, len(out), budget)
		assert.True(t, utf8.ValidString(out))
	}
	assert.Equal(t, "은", Truncate(s, 5))
}

func TestBuildPrompt(t *testing.T) {
	in := sampleInputs()
	in.Transcript = strings.Repeat("x", 10000)

	bull, err := BuildPrompt(Bullish, in, DefaultBudgets)
	require.NoError(t, err)
	assert.Contains(t, bull, "HIGHLY OPTIMISTIC (BULLISH)")
	assert.Contains(t, bull, "# 🚀 낙관적 리포트")
	assert.Contains(t, bull, "Silver: last=22.50")
	assert.Contains(t, bull, "Gold: no data")
	assert.Contains(t, bull, `"title":"Silver rallies"`)
	assert.Contains(t, bull, strings.Repeat("x", 3000))
	assert.NotContains(t, bull, strings.Repeat("x", 3001))

	bear, err := BuildPrompt(Bearish, in, DefaultBudgets)
	require.NoError(t, err)
	assert.Contains(t, bear, "HIGHLY PESSIMISTIC (BEARISH)")
	assert.Contains(t, bear, "# ⚠️ 비관적 리포트")

	_, err = BuildPrompt(Polarity("x"), in, DefaultBudgets)
	assert.ErrorIs(t, err, ErrInvalidPolarity)
}

func weekOfBars(price float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, 168)
	for i := range bars {
		p := price + float64(i)*0.01
		bars[i] = model.Bar{
			Datetime: start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			Open:     model.Float(p),
			High:     model.Float(p + 0.5),
			Low:      model.Float(p - 0.5),
			Close:    model.Float(p),
			Volume:   model.Float(1000 + float64(i)),
		}
	}
	return bars
}

func TestMarketSection_LeadingAssetSurvivesTruncation(t *testing.T) {
	snap := model.MarketSnapshot{
		"Silver":    weekOfBars(30),
		"Gold":      weekOfBars(2050),
		"Bitcoin":   weekOfBars(45000),
		"USD_Index": weekOfBars(103),
	}
	order := []string{"Silver", "Gold", "Bitcoin", "USD_Index"}

	full := MarketSection(snap, order)
	require.Greater(t, len(full), DefaultBudgets.Market)
	assert.Less(t, strings.Index(full, `"Silver":[`), strings.Index(full, `"Gold":[`))
	assert.Less(t, strings.Index(full, `"Gold":[`), strings.Index(full, `"Bitcoin":[`))

	out := Truncate(full, DefaultBudgets.Market)
	assert.Len(t, out, DefaultBudgets.Market)
	assert.Contains(t, out, `{"Silver":[{"Datetime":"2024-01-01T00:00:00Z"`)
	assert.NotContains(t, out, `"Bitcoin":[`)
}

func TestMarketSection_UnorderedAssetsFollowSorted(t *testing.T) {
	snap := model.MarketSnapshot{
		"Silver": {},
		"Zinc":   {},
		"Copper": {},
	}
	out := MarketSection(snap, []string{"Silver"})
	assert.True(t, strings.HasSuffix(out, `{"Silver":[],"Copper":[],"Zinc":[]}`), out)
}

func TestNewsSection_NilIsEmptyArray(t *testing.T) {
	assert.Equal(t, "[]", NewsSection(nil))
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), "openai", "", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	p, err := NewProvider(context.Background(), "openai", "sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(context.Background(), "llama", "key", "")
	assert.Error(t, err)
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"gpt-4o",
			"choices":[{"index":0,"message":{"role":"assistant","content":"리포트 본문"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1")
	text, err := p.Generate(context.Background(), "gpt-4o", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "리포트 본문", text)
}

func TestOpenAIProvider_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"},{"id":"gpt-4o","object":"model"}]}`))
	}))
	defer srv.Close()

	names, err := NewOpenAIProvider("sk-test", srv.URL+"/v1").ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, names)
}
