package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"SilverReport/internal/calculator"
	"SilverReport/internal/config"
	"SilverReport/internal/model"
	"SilverReport/internal/notifier"
	"SilverReport/internal/recorder"
	"SilverReport/internal/report"
)

// Runner performs one collect and generate cycle.
type Runner interface {
	Run(ctx context.Context) *model.ReportPair
}

// Mirror keeps an external copy of the latest pair.
type Mirror interface {
	SaveLatest(ctx context.Context, pair *model.ReportPair) error
}

// Notifier pushes a chat message.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs report cycles on a cron schedule and on demand. At most one
// cycle runs at a time; triggers arriving while one is in flight are dropped.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline Runner
	Store    *report.Store
	Recorder recorder.Recorder
	// Cache and Notifier are optional.
	Cache      Mirror
	Notifier   Notifier
	AssetOrder []string
	Ctx        context.Context

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p Runner, store *report.Store, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithParser(config.CronParser)),
		Pipeline: p,
		Store:    store,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register adds the report cycle under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for an in-flight cycle to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// Running reports whether a cycle is in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Trigger starts a cycle in the background and returns immediately. It
// returns false when the trigger was coalesced into an in-flight cycle.
func (s *Scheduler) Trigger() bool {
	if !s.begin() {
		log.Info().Msg("report cycle already running, trigger dropped")
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.end()
		s.runCycle()
	}()
	return true
}

// RunNow runs a cycle synchronously. It returns false without running when
// another cycle is in flight.
func (s *Scheduler) RunNow() bool {
	if !s.begin() {
		log.Info().Msg("report cycle already running, scheduled run skipped")
		return false
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.end()
	s.runCycle()
	return true
}

// Wait blocks until no cycle started by this scheduler is in flight.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) runCycle() {
	pair := s.Pipeline.Run(s.Ctx)
	if pair == nil || !pair.Analyzed {
		log.Warn().Msg("cycle produced no analysis, latest report left unchanged")
		return
	}

	s.Store.Publish(*pair)
	log.Info().Str("run_id", pair.RunID).Msg("latest report published")

	digests := calculator.DigestSnapshot(pair.MarketData, s.AssetOrder)

	if err := s.Recorder.RecordRun(pair, digests); err != nil {
		log.Error().Err(err).Str("run_id", pair.RunID).Msg("record run")
	}
	if s.Cache != nil {
		if err := s.Cache.SaveLatest(s.Ctx, pair); err != nil {
			log.Error().Err(err).Str("run_id", pair.RunID).Msg("mirror latest report")
		}
	}
	s.trySend(notifier.FormatReportSummary(*pair, digests))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/report", "리포트 생성":
		if s.Trigger() {
			return "🔄 리포트 생성을 시작했습니다."
		}
		return "⏳ 이미 리포트를 생성 중입니다."
	case "/latest", "최신 리포트":
		if !s.Store.Published() {
			return model.NotGeneratedText
		}
		pair := s.Store.Snapshot()
		return notifier.FormatReportSummary(pair, calculator.DigestSnapshot(pair.MarketData, s.AssetOrder))
	case "/market", "시장 요약":
		pair := s.Store.Snapshot()
		return notifier.FormatMarketDigest(calculator.DigestSnapshot(pair.MarketData, s.AssetOrder))
	default:
		return "사용 가능한 명령:\n• /report 리포트 생성\n• /latest 최신 리포트\n• /market 시장 요약"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
