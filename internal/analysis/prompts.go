package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"SilverReport/internal/calculator"
	"SilverReport/internal/model"
)

// Budgets caps each serialised source, in bytes, before it enters a prompt.
type Budgets struct {
	Market     int
	News       int
	Transcript int
}

// DefaultBudgets matches the limits the report templates were tuned for.
var DefaultBudgets = Budgets{Market: 5000, News: 3000, Transcript: 3000}

// Inputs is the data a report is written from.
type Inputs struct {
	Market model.MarketSnapshot
	// AssetOrder fixes the digest order; nil sorts by asset name.
	AssetOrder []string
	News       []model.NewsItem
	Transcript string
}

const bullishTemplate = `
System Instruction:
You are an expert investment analyst specializing in Silver (SLV), Gold, and Bitcoin.
Your output must be in **Korean (한국어)**. Do not output English unless it is a technical term or ticker symbol.

Goal:
Write a **HIGHLY OPTIMISTIC (BULLISH)** investment report based on the provided data.
You must focus on positive indicators, potential growth factors, and reasons why the price might go UP.
However, remain logical and grounded in the data. Do not hallucinate.

Data Provided:
%s
%s
%s

Instructions:
1. **Language**: The entire report must be written in **Korean**.
2. **Analysis**: Analyze the correlation between Silver, Gold, and Bitcoin.
3. **Highlights**: Highlight any positive news or macroeconomic trends (e.g., inflation, dollar weakness, industrial demand for silver in AI/Green tech).
4. **Tone**: Confident, Opportunity-focused, Forward-looking.
5. **Format**: Use the exact markdown format below.

Output Format:
# 🚀 낙관적 리포트: [제목]
## 1. 핵심 투자 포인트
- [포인트 1]
- [포인트 2]
## 2. 상세 분석
(상세 분석 내용 작성...)
## 3. 결론 및 목표가 시나리오
(결론 작성...)
`

const bearishTemplate = `
System Instruction:
You are a conservative risk manager and investment analyst specializing in Silver (SLV), Gold, and Bitcoin.
Your output must be in **Korean (한국어)**. Do not output English unless it is a technical term or ticker symbol.

Goal:
Write a **HIGHLY PESSIMISTIC (BEARISH)** investment report based on the provided data.
You must focus on risks, negative indicators, technical resistance, and reasons why the price might go DOWN.
Identify potential traps and reasons to sell or hold cash.

Data Provided:
%s
%s
%s

Instructions:
1. **Language**: The entire report must be written in **Korean**.
2. **Analysis**: Analyze the weakness in Silver, Gold, and Bitcoin.
3. **Highlights**: Highlight negative news, dollar strength, interest rate risks, or recession fears.
4. **Tone**: Cautious, Skeptical, Risk-averse.
5. **Format**: Use the exact markdown format below.

Output Format:
# ⚠️ 비관적 리포트: [제목]
## 1. 주요 리스크 요인
- [리스크 1]
- [리스크 2]
## 2. 상세 분석
(상세 분석 내용 작성...)
## 3. 결론 및 관망/매도 전략
(결론 작성...)
`

// BuildPrompt renders the template for p with every source truncated to its budget.
func BuildPrompt(p Polarity, in Inputs, b Budgets) (string, error) {
	var tmpl string
	switch p {
	case Bullish:
		tmpl = bullishTemplate
	case Bearish:
		tmpl = bearishTemplate
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolarity, string(p))
	}
	return fmt.Sprintf(tmpl,
		Truncate(MarketSection(in.Market, in.AssetOrder), b.Market),
		Truncate(NewsSection(in.News), b.News),
		Truncate(in.Transcript, b.Transcript),
	), nil
}

// MarketSection renders one digest line per asset followed by the raw bars as
// a JSON object whose keys follow the digest order, so the leading assets
// survive truncation.
func MarketSection(snap model.MarketSnapshot, order []string) string {
	var sb strings.Builder
	names := make([]string, 0, len(snap))
	seen := make(map[string]bool, len(snap))
	for _, d := range calculator.DigestSnapshot(snap, order) {
		sb.WriteString(DigestLine(d))
		sb.WriteByte('\n')
		names = append(names, d.Asset)
		seen[d.Asset] = true
	}
	var extra []string
	for name := range snap {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	sb.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		bars := snap[name]
		if bars == nil {
			bars = []model.Bar{}
		}
		key, _ := json.Marshal(name)
		raw, err := json.Marshal(bars)
		if err != nil {
			raw = []byte("[]")
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(raw)
	}
	sb.WriteByte('}')
	return sb.String()
}

// DigestLine formats one asset digest for prompts and chat messages.
func DigestLine(d model.AssetDigest) string {
	if d.Bars == 0 {
		return fmt.Sprintf("%s: no data", d.Asset)
	}
	return fmt.Sprintf("%s: last=%.2f change=%+.2f%% high=%.2f low=%.2f sma20=%.2f rsi14=%.1f (%d bars)",
		d.Asset, d.LastClose, d.ChangePct, d.High, d.Low, d.SMA20, d.RSI14, d.Bars)
}

// NewsSection serialises the articles as a JSON array.
func NewsSection(items []model.NewsItem) string {
	if items == nil {
		items = []model.NewsItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
