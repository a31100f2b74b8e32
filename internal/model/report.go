package model

import "time"

// ReportStatus tags the outcome of one report generation.
type ReportStatus string

const (
	StatusPending ReportStatus = "pending"
	StatusOK      ReportStatus = "ok"
	StatusFailed  ReportStatus = "failed"
	StatusSkipped ReportStatus = "skipped"
)

// NotGeneratedText is the report body shown before the first cycle completes.
const NotGeneratedText = "Not generated yet."

// ModelFailure records why one model attempt failed.
type ModelFailure struct {
	Model  string `json:"model"`
	Reason string `json:"reason"`
}

// ReportOutcome describes how a report body was produced.
type ReportOutcome struct {
	Status   ReportStatus   `json:"status"`
	Model    string         `json:"model,omitempty"`
	Failures []ModelFailure `json:"failures,omitempty"`
}

// ReportPair is the unit exposed externally: both reports plus the data they were built from.
type ReportPair struct {
	RunID         string         `json:"run_id,omitempty"`
	Timestamp     *time.Time     `json:"timestamp"`
	BullishReport string         `json:"bullish_report"`
	BearishReport string         `json:"bearish_report"`
	Bullish       ReportOutcome  `json:"bullish"`
	Bearish       ReportOutcome  `json:"bearish"`
	Analyzed      bool           `json:"analyzed"`
	MarketData    MarketSnapshot `json:"market_data"`
	NewsData      []NewsItem     `json:"news_data"`
}

// EmptyReportPair returns the record served before any cycle has published.
func EmptyReportPair() ReportPair {
	return ReportPair{
		BullishReport: NotGeneratedText,
		BearishReport: NotGeneratedText,
		Bullish:       ReportOutcome{Status: StatusPending},
		Bearish:       ReportOutcome{Status: StatusPending},
		MarketData:    MarketSnapshot{},
		NewsData:      []NewsItem{},
	}
}

// Clone returns a deep copy of the pair.
func (p ReportPair) Clone() ReportPair {
	out := p
	if p.Timestamp != nil {
		ts := *p.Timestamp
		out.Timestamp = &ts
	}
	out.MarketData = p.MarketData.Clone()
	out.NewsData = make([]NewsItem, len(p.NewsData))
	copy(out.NewsData, p.NewsData)
	out.Bullish.Failures = append([]ModelFailure(nil), p.Bullish.Failures...)
	out.Bearish.Failures = append([]ModelFailure(nil), p.Bearish.Failures...)
	return out
}
