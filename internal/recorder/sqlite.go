package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	_ "modernc.org/sqlite"

	"SilverReport/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL UNIQUE,
			timestamp       INTEGER NOT NULL,
			analyzed        INTEGER NOT NULL,
			bullish_status  TEXT,
			bullish_model   TEXT,
			bullish_report  TEXT,
			bearish_status  TEXT,
			bearish_model   TEXT,
			bearish_report  TEXT,
			failures        TEXT,
			news_count      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON report_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS asset_digests (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			asset       TEXT NOT NULL,
			bars        INTEGER,
			first_close REAL,
			last_close  REAL,
			change_pct  REAL,
			high        REAL,
			low         REAL,
			sma20       REAL,
			rsi14       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digests_asset_ts ON asset_digests(asset, timestamp)`,

		`CREATE TABLE IF NOT EXISTS news_items (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			title          TEXT,
			url            TEXT,
			published_date TEXT,
			score          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_run ON news_items(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(pair *model.ReportPair, digests []model.AssetDigest) error {
	if pair == nil || pair.RunID == "" {
		return errors.New("record run: missing run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := time.Now()
	if pair.Timestamp != nil {
		ts = *pair.Timestamp
	}
	failures, err := json.Marshal(map[string][]model.ModelFailure{
		"bullish": pair.Bullish.Failures,
		"bearish": pair.Bearish.Failures,
	})
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO report_runs
		(run_id, timestamp, analyzed,
		 bullish_status, bullish_model, bullish_report,
		 bearish_status, bearish_model, bearish_report,
		 failures, news_count)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		pair.RunID, ts.Unix(), pair.Analyzed,
		string(pair.Bullish.Status), pair.Bullish.Model, pair.BullishReport,
		string(pair.Bearish.Status), pair.Bearish.Model, pair.BearishReport,
		string(failures), len(pair.NewsData),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, d := range digests {
		if _, err := tx.Exec(`INSERT INTO asset_digests
			(run_id, timestamp, asset, bars, first_close, last_close, change_pct, high, low, sma20, rsi14)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			pair.RunID, ts.Unix(), d.Asset, d.Bars, d.FirstClose, d.LastClose,
			d.ChangePct, d.High, d.Low, d.SMA20, d.RSI14,
		); err != nil {
			return fmt.Errorf("insert digest %s: %w", d.Asset, err)
		}
	}

	for _, n := range pair.NewsData {
		if _, err := tx.Exec(`INSERT INTO news_items
			(run_id, title, url, published_date, score)
			VALUES (?,?,?,?,?)`,
			pair.RunID, n.Title, n.URL, n.PublishedDate, n.Score,
		); err != nil {
			return fmt.Errorf("insert news: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT run_id, timestamp, analyzed,
		bullish_status, bullish_model, bearish_status, bearish_model, news_count
		FROM report_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			s                      RunSummary
			ts                     int64
			bullStatus, bearStatus string
		)
		if err := rows.Scan(&s.RunID, &ts, &s.Analyzed,
			&bullStatus, &s.BullishModel, &bearStatus, &s.BearishModel, &s.NewsCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0).UTC()
		s.BullishStatus = model.ReportStatus(bullStatus)
		s.BearishStatus = model.ReportStatus(bearStatus)
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
