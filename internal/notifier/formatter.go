package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"SilverReport/internal/model"
)

// MaxMessageLen keeps messages under Telegram's 4096 character limit.
const MaxMessageLen = 4000

// FormatReportSummary renders the published pair as a short chat message.
func FormatReportSummary(pair model.ReportPair, digests []model.AssetDigest) string {
	var b strings.Builder

	ts := "-"
	if pair.Timestamp != nil {
		ts = FormatTime(*pair.Timestamp)
	}
	b.WriteString(fmt.Sprintf("📊 <b>Silver Report</b> | %s\n\n", ts))

	b.WriteString(FormatMarketDigest(digests))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("🚀 <b>낙관적</b>: %s\n", outcomeLine(pair.BullishReport, pair.Bullish)))
	b.WriteString(fmt.Sprintf("⚠️ <b>비관적</b>: %s\n", outcomeLine(pair.BearishReport, pair.Bearish)))

	if len(pair.NewsData) > 0 {
		b.WriteString(fmt.Sprintf("\n📰 뉴스 %d건\n", len(pair.NewsData)))
		for i, n := range pair.NewsData {
			if i == 3 {
				break
			}
			b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(n.Title)))
		}
	}
	return truncateRunes(b.String(), MaxMessageLen)
}

// FormatMarketDigest renders one line per asset.
func FormatMarketDigest(digests []model.AssetDigest) string {
	var b strings.Builder
	b.WriteString("💹 <b>시장 요약</b>\n")
	if len(digests) == 0 {
		b.WriteString("데이터 없음\n")
		return b.String()
	}
	for _, d := range digests {
		if d.Bars == 0 {
			b.WriteString(fmt.Sprintf("%s: 데이터 없음\n", html.EscapeString(d.Asset)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %.2f (%+.2f%%) RSI %.0f\n",
			html.EscapeString(d.Asset), d.LastClose, d.ChangePct, d.RSI14))
	}
	return b.String()
}

// Headline returns the first markdown heading of a report without its '#' marks.
func Headline(report string) string {
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

func outcomeLine(text string, out model.ReportOutcome) string {
	switch out.Status {
	case model.StatusOK:
		h := Headline(text)
		if h == "" {
			h = "(제목 없음)"
		}
		return html.EscapeString(h)
	case model.StatusFailed:
		return fmt.Sprintf("생성 실패 (%d개 모델 시도)", len(out.Failures))
	case model.StatusSkipped:
		return "분석 생략 (API Key 없음)"
	default:
		return "대기 중"
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// FormatTime is the timestamp layout used in replies.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
