package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"SilverReport/internal/analysis"
	"SilverReport/internal/config"
	"SilverReport/internal/export"
	"SilverReport/internal/logger"
	"SilverReport/internal/model"
	"SilverReport/internal/pipeline"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "configs/config.yaml"

func newRootCmd() *cobra.Command {
	var cfgPath string
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "silverreport",
		Short: "SilverReport - scheduled bullish and bearish AI market reports",
		Long: `SilverReport collects market, news and transcript data for Silver, Gold,
Bitcoin and the USD index, writes a bullish and a bearish report with a hosted
LLM, and serves the latest pair over HTTP or exports it as static JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			path := cfgPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}
			if path == "" {
				path = defaultConfigPath
			}
			loaded, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			logger.Setup(loaded.Log.Level, loaded.Log.Format)
			*cfg = *loaded
			return nil
		},
	}

	serveCmd := newServeCmd(cfg)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newExportCmd(cfg))
	rootCmd.AddCommand(newModelsCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration file path (default $CONFIG_PATH or "+defaultConfigPath+")")
	return rootCmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	var (
		output         string
		sampleFallback bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one report cycle and write it as static JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = cfg.Export.OutputPath
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var opts []pipeline.Option
			if sampleFallback {
				opts = append(opts, pipeline.WithPrepare(sampleData))
			}
			pipe, err := buildPipeline(ctx, cfg, opts...)
			if err != nil {
				return err
			}
			log.Info().Str("output", output).Msg("starting static export")
			pair := pipe.Run(ctx)
			export.FillSkippedText(pair)
			return export.WriteJSON(output, pair)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default export.output_path)")
	cmd.Flags().BoolVar(&sampleFallback, "sample-fallback", false, "substitute sample data when collection returns nothing")
	return cmd
}

// sampleData substitutes sample bars and news before the reports are written.
func sampleData(market model.MarketSnapshot, news []model.NewsItem) (model.MarketSnapshot, []model.NewsItem) {
	market, news, _ = export.FillSamples(market, news, time.Now())
	return market, news
}

func newModelsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models the configured provider offers for text generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			provider, err := analysis.NewProvider(ctx, cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.BaseURL)
			if err != nil {
				return err
			}
			names, err := provider.ListModels(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Available %s models:\n", provider.Name())
			for _, n := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", n)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "silverreport %s\n", version)
		},
	}
}
