package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ChartDataset/internal/collector"
	"ChartDataset/internal/config"
	"ChartDataset/internal/dataset"
	"ChartDataset/internal/directory"
	"ChartDataset/internal/logging"
	"ChartDataset/internal/metrics"
	"ChartDataset/internal/notifier"
	"ChartDataset/internal/pipeline"
	"ChartDataset/internal/recorder"
	"ChartDataset/internal/render"
	"ChartDataset/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dataprep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Run log: stderr plus data_prep_<timestamp>.log
	runLog, err := logging.Open(cfg.Log.Dir, cfg.Log.Level, time.Now())
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer runLog.Close()
	logger := runLog.Logger
	_ = level.Info(logger).Log("msg", "dataprep starting", "log_file", runLog.Path)

	m := metrics.New()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderFinanceGo:
		fetcher = collector.NewFinanceGoFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	}
	_ = level.Info(logger).Log("msg", "data source", "provider", fetcher.Name())
	fetcher = collector.NewLoggingFetcher(log.With(logger, "component", "fetcher"), fetcher)
	fetcher = collector.NewInstrumentingFetcher(m.FetchCount, m.FetchDuration, fetcher)

	series := collector.NewLoader(fetcher, collector.NewCache(cfg.Storage.CacheDir), logger)
	symbols := directory.NewLoader(cfg.Directory.URL, cfg.Directory.LocalPath, cfg.Proxy, cfg.DataSource.Timeout, logger)
	store := dataset.NewStore(cfg.Storage.OutputDir, logger)

	builder := pipeline.NewBuilder(symbols, series, render.NewRenderer(cfg.Storage.WorkDir), store, logger)
	builder.Metrics = m

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SqlitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SqlitePath, logger)
		if err != nil {
			_ = level.Warn(logger).Log("msg", "init sqlite recorder failed, using noop", "err", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()
	builder.Recorder = rec

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finish := func(s *pipeline.RunSummary) {
		if cfg.Metrics.TextfilePath != "" {
			if err := m.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
				_ = level.Warn(logger).Log("msg", "write metrics textfile", "err", err)
			}
		}
		if tn.Enabled() {
			// The run context may already be cancelled; the summary still goes out.
			sendCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := tn.SendWithRetry(sendCtx, notifier.FormatRunSummary(s), 3); err != nil {
				_ = level.Warn(logger).Log("msg", "send run summary", "err", err)
			}
		}
	}

	if cfg.Schedule.Cron == "" {
		summary, err := builder.Run(ctx)
		finish(summary)
		if err != nil {
			_ = level.Error(logger).Log("msg", "run failed", "status", summary.Status, "err", err)
			return err
		}
		return nil
	}

	sched := scheduler.NewScheduler(ctx, builder, finish, logger)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		_ = level.Info(logger).Log("msg", "run_on_start enabled, building now")
		sched.RunAsync()
	}

	_ = level.Info(logger).Log("msg", "dataprep is running, press Ctrl+C to stop")
	<-ctx.Done()
	_ = level.Info(logger).Log("msg", "shutdown signal received, stopping")
	return nil
}
