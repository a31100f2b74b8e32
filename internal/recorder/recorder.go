package recorder

import (
	"time"

	"SilverReport/internal/model"
)

// RunSummary is one archived report cycle.
type RunSummary struct {
	RunID         string             `json:"run_id"`
	Timestamp     time.Time          `json:"timestamp"`
	Analyzed      bool               `json:"analyzed"`
	BullishStatus model.ReportStatus `json:"bullish_status"`
	BullishModel  string             `json:"bullish_model,omitempty"`
	BearishStatus model.ReportStatus `json:"bearish_status"`
	BearishModel  string             `json:"bearish_model,omitempty"`
	NewsCount     int                `json:"news_count"`
}

// Recorder persists historical report cycles for later analysis.
type Recorder interface {
	// RecordRun archives a published pair together with the digests computed from it.
	RecordRun(pair *model.ReportPair, digests []model.AssetDigest) error
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
