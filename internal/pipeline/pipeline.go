package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"SilverReport/internal/analysis"
	"SilverReport/internal/model"
)

// MarketSource collects the per-asset bar snapshot.
type MarketSource interface {
	Collect(ctx context.Context) model.MarketSnapshot
}

// NewsSource collects recent articles.
type NewsSource interface {
	Collect(ctx context.Context) []model.NewsItem
}

// TranscriptSource collects transcript text for the configured videos.
type TranscriptSource interface {
	CollectAll(ctx context.Context) string
}

// ReportGenerator writes one report for a polarity.
type ReportGenerator interface {
	Generate(ctx context.Context, p analysis.Polarity, in analysis.Inputs) (*analysis.Report, error)
}

// Pipeline runs one collect and generate cycle.
type Pipeline struct {
	market     MarketSource
	news       NewsSource
	transcript TranscriptSource
	// generator is nil when no LLM credential is configured.
	generator  ReportGenerator
	assetOrder []string
	prepare    PrepareFunc
	now        func() time.Time
}

// PrepareFunc adjusts collected data before it is handed to the generator.
type PrepareFunc func(market model.MarketSnapshot, news []model.NewsItem) (model.MarketSnapshot, []model.NewsItem)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPrepare runs fn between collection and analysis. The pair carries the
// prepared data.
func WithPrepare(fn PrepareFunc) Option {
	return func(p *Pipeline) { p.prepare = fn }
}

// New creates a Pipeline. generator may be nil, in which case Run collects
// data but skips analysis.
func New(market MarketSource, news NewsSource, transcript TranscriptSource, generator ReportGenerator, assetOrder []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		market:     market,
		news:       news,
		transcript: transcript,
		generator:  generator,
		assetOrder: assetOrder,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run collects every source and generates both reports concurrently. It never
// fails: per source problems degrade to empty data and generation failures are
// recorded in the outcomes.
func (p *Pipeline) Run(ctx context.Context) *model.ReportPair {
	runID := uuid.NewString()
	start := p.now()
	log.Info().Str("run_id", runID).Msg("starting report generation")

	market := p.market.Collect(ctx)
	news := p.news.Collect(ctx)
	transcript := p.transcript.CollectAll(ctx)
	if p.prepare != nil {
		market, news = p.prepare(market, news)
	}

	ts := p.now().UTC()
	pair := &model.ReportPair{
		RunID:      runID,
		Timestamp:  &ts,
		MarketData: market,
		NewsData:   news,
	}

	if p.generator == nil {
		log.Warn().Str("run_id", runID).Msg("LLM API key missing, skipping AI analysis")
		pair.Bullish = model.ReportOutcome{Status: model.StatusSkipped}
		pair.Bearish = model.ReportOutcome{Status: model.StatusSkipped}
		return pair
	}

	in := analysis.Inputs{
		Market:     market,
		AssetOrder: p.assetOrder,
		News:       news,
		Transcript: transcript,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pair.BullishReport, pair.Bullish = p.generate(ctx, runID, analysis.Bullish, in)
	}()
	go func() {
		defer wg.Done()
		pair.BearishReport, pair.Bearish = p.generate(ctx, runID, analysis.Bearish, in)
	}()
	wg.Wait()

	pair.Analyzed = true
	log.Info().Str("run_id", runID).
		Str("bullish", string(pair.Bullish.Status)).
		Str("bearish", string(pair.Bearish.Status)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("report generation completed")
	return pair
}

func (p *Pipeline) generate(ctx context.Context, runID string, pol analysis.Polarity, in analysis.Inputs) (string, model.ReportOutcome) {
	r, err := p.generator.Generate(ctx, pol, in)
	if err == nil {
		return r.Text, model.ReportOutcome{Status: model.StatusOK, Model: r.Model, Failures: r.Failures}
	}

	log.Error().Err(err).Str("run_id", runID).Str("polarity", pol.String()).Msg("report generation failed")
	out := model.ReportOutcome{Status: model.StatusFailed}
	var fe *analysis.FallbackError
	if errors.As(err, &fe) {
		out.Failures = fe.Failures
	} else {
		out.Failures = []model.ModelFailure{{Reason: err.Error()}}
	}
	return "", out
}
