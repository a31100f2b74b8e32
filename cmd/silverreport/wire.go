package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"SilverReport/internal/analysis"
	"SilverReport/internal/cache"
	"SilverReport/internal/collector"
	"SilverReport/internal/config"
	"SilverReport/internal/news"
	"SilverReport/internal/notifier"
	"SilverReport/internal/pipeline"
	"SilverReport/internal/recorder"
	"SilverReport/internal/report"
	"SilverReport/internal/scheduler"
	"SilverReport/internal/server"
	"SilverReport/internal/transcript"
)

func assetOrder(cfg *config.Config) []string {
	names := make([]string, len(cfg.Market.Assets))
	for i, a := range cfg.Market.Assets {
		names[i] = a.Name
	}
	return names
}

// buildPipeline wires the collectors and, when a credential is configured, the generator.
func buildPipeline(ctx context.Context, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	fetcher, err := collector.NewFetcher(cfg.Market.Source, cfg.Proxy)
	if err != nil {
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Msg("market data source")
	market := collector.NewCollector(fetcher, cfg.Market.Assets, cfg.Market.Period, cfg.Market.Interval)

	newsCol := news.NewCollector(news.Options{
		APIKey:      cfg.News.APIKey,
		BaseURL:     cfg.News.BaseURL,
		Query:       cfg.News.Query,
		Days:        cfg.News.Days,
		MaxResults:  cfg.News.MaxResults,
		SearchDepth: cfg.News.SearchDepth,
		Proxy:       cfg.Proxy,
	})

	captions := transcript.NewYouTubeSource(transcript.DefaultYouTubeBaseURL, cfg.Proxy, cfg.Transcript.Languages)
	transcripts := transcript.NewCollector(captions, cfg.Transcript.VideoURLs, cfg.Transcript.Placeholder)

	var gen pipeline.ReportGenerator
	provider, err := analysis.NewProvider(ctx, cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL)
	switch {
	case errors.Is(err, analysis.ErrMissingAPIKey):
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("LLM API key missing, reports will not be generated")
	case err != nil:
		return nil, err
	default:
		timeout, err := cfg.LLMTimeout()
		if err != nil {
			return nil, err
		}
		gen = analysis.NewGenerator(provider, cfg.LLM.Models, timeout, analysis.Budgets{
			Market:     cfg.LLM.Budgets.Market,
			News:       cfg.LLM.Budgets.News,
			Transcript: cfg.LLM.Budgets.Transcript,
		})
		log.Info().Str("provider", provider.Name()).Strs("models", cfg.LLM.Models).Msg("report generator ready")
	}

	return pipeline.New(market, newsCol, transcripts, gen, assetOrder(cfg), opts...), nil
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func openCache(ctx context.Context, cfg *config.Config) *cache.ReportCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	ttl, err := cfg.RedisTTL()
	if err != nil {
		log.Warn().Err(err).Msg("invalid redis ttl, mirror disabled")
		return nil
	}
	client, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, proceeding without mirror")
		return nil
	}
	return cache.NewReportCache(client, cfg.Redis.Key, ttl)
}

func openNotifier(cfg *config.Config) *notifier.TelegramNotifier {
	chatID, ok := cfg.TelegramChatID()
	if !ok {
		return nil
	}
	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, chatID, cfg.Proxy)
	if err != nil {
		log.Warn().Err(err).Msg("telegram unavailable, notifications disabled")
		return nil
	}
	return tn
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log.Info().Str("version", version).Msg("SilverReport starting")

	pipe, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	store := report.NewStore()
	rec := openRecorder(cfg)
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, pipe, store, rec)
	sched.AssetOrder = assetOrder(cfg)

	if rc := openCache(ctx, cfg); rc != nil {
		defer rc.Close()
		sched.Cache = rc
		if pair, err := rc.LoadLatest(ctx); err != nil {
			log.Warn().Err(err).Msg("load mirrored report")
		} else if pair != nil {
			store.Publish(*pair)
			log.Info().Str("run_id", pair.RunID).Msg("restored latest report from redis")
		}
	}

	if tn := openNotifier(cfg); tn != nil {
		sched.Notifier = tn
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, triggering report cycle now")
		sched.Trigger()
	}

	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.NewHandler(store, sched, rec, assetOrder(cfg)), cfg.Server.CORSOrigins)

	if err := server.New(cfg.Server.Addr, router).Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info().Msg("shutdown signal received, stopping")
	return nil
}
