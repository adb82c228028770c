package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"PatternScreener/internal/api"
	"PatternScreener/internal/collector"
	"PatternScreener/internal/config"
	"PatternScreener/internal/metrics"
	"PatternScreener/internal/model"
	"PatternScreener/internal/notifier"
	"PatternScreener/internal/recorder"
	"PatternScreener/internal/scheduler"
	"PatternScreener/internal/screener"
	"PatternScreener/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PatternScreener starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init bar history cache
	var bars collector.BarStore
	if cfg.Database.PostgresDSN != "" {
		bs, err := store.OpenBarStore(cfg.Database.PostgresDSN)
		if err != nil {
			log.Printf("[WARN] init postgres bar store failed, fetching without cache: %v", err)
		} else {
			bars = bs
			defer bs.Close()
		}
	}

	col := collector.NewCollector(fetcher, bars, cfg.DataSource.LookbackDays)
	col.Delay = cfg.DataSource.RequestDelay

	// Init recorder
	var rec recorder.Recorder
	var history api.RunHistory
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			history = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	svc := &screener.Service{
		Collector: col,
		Screener:  &screener.Screener{Workers: cfg.Screen.Workers, Metrics: m},
		Recorder:  rec,
		Universe:  universe(cfg),
		Metrics:   m,
	}
	defaults := screener.Request{
		Pattern:  model.PatternType(cfg.Screen.Pattern),
		MinScore: cfg.Screen.MinScore,
		Limit:    cfg.Screen.Limit,
		Criteria: cfg.Screen.Criteria,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, tn, defaults)
	if err := sched.RegisterAll(cfg.Schedule.ScreenCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[INFO] Telegram not configured, commands disabled")
	}

	// HTTP API
	handler := api.NewAPIHandler(svc, defaults, reg)
	if history != nil {
		handler.WithHistory(history)
	}
	go func() {
		if err := handler.StartServer(ctx, cfg.HTTP.Addr); err != nil {
			log.Printf("[ERROR] HTTP API: %v", err)
			cancel()
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing screen now")
		go sched.RunScreenNow()
	}

	log.Println("[INFO] PatternScreener is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	cancel()
	log.Println("[INFO] PatternScreener stopped")
}

// universe returns the symbol source: inline symbols when configured,
// otherwise the CSV universe file re-read on every run.
func universe(cfg *config.Config) func() ([]string, error) {
	if len(cfg.Universe.Symbols) > 0 {
		symbols := cfg.Universe.Symbols
		return func() ([]string, error) { return symbols, nil }
	}
	return func() ([]string, error) {
		return collector.ReadUniverse(cfg.Universe.Path, cfg.Universe.SymbolColumn, cfg.Universe.SeriesFilter)
	}
}
