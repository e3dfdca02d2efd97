package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Bahjat/structured-web-auditor/internal/analyzer"
	"github.com/Bahjat/structured-web-auditor/internal/audit"
	"github.com/Bahjat/structured-web-auditor/internal/cache"
	"github.com/Bahjat/structured-web-auditor/internal/discovery"
	"github.com/Bahjat/structured-web-auditor/internal/fetcher"
	"github.com/Bahjat/structured-web-auditor/internal/platform/config"
	"github.com/Bahjat/structured-web-auditor/internal/platform/logger"
	"github.com/Bahjat/structured-web-auditor/internal/report"
	"github.com/Bahjat/structured-web-auditor/internal/rules"
	"github.com/Bahjat/structured-web-auditor/internal/store"
	"github.com/Bahjat/structured-web-auditor/internal/telemetry"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	scorer     audit.Scorer
	discoverer *discovery.Discoverer
	service    *analyzer.Service
	writer     *report.Writer
	cache      cache.Cache
	store      *store.Store
	metrics    *telemetry.Metrics
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogType)
	slog.SetDefault(log)
	log.Debug("debug messages are enabled")

	a := &app{cfg: cfg, logger: log, cache: cache.Noop{}}

	a.metrics, err = telemetry.Setup(ctx, telemetry.Settings{
		Enabled:      cfg.Telemetry.Enabled,
		CollectorURL: cfg.Telemetry.CollectorURL,
		ServiceName:  cfg.ServiceName,
		Env:          cfg.Env,
	}, log)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		mc, err := cache.NewMemcached(cfg.Cache.Servers, cfg.Cache.TTL, log)
		if err != nil {
			log.Warn("memcached unavailable, caching disabled", "error", err)
		} else {
			a.cache = mc
		}
	}

	if cfg.Store.Enabled {
		a.store, err = store.Open(store.Options{Path: cfg.Store.Path, LogLevel: cfg.LogLevel})
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.writer, err = report.NewWriter(cfg.OutputDir, strings.ToLower(cfg.ReportFormat))
	if err != nil {
		a.close()
		return nil, err
	}

	client := fetcher.NewHTTPClient(fetcher.Options{
		Timeout:              cfg.FetchTimeout,
		UserAgent:            cfg.UserAgent,
		AllowPrivateNetworks: cfg.AllowPrivateNetworks,
	})

	settings := rules.DefaultSettings()
	settings.TrustURL = cfg.TrustURL
	settings.LoadTimeBudget = time.Duration(cfg.LoadTimeBudgetMs) * time.Millisecond
	settings.ProbeTimeout = cfg.FetchTimeout

	a.scorer = audit.Scorer{
		LoadBudgetMs:       cfg.LoadTimeBudgetMs,
		AlignmentThreshold: cfg.AlignmentThreshold,
	}
	pipeline := audit.NewPipeline(client, rules.DefaultSet(client, settings, log), log, cfg.PageTimeout)
	runner := audit.NewRunner(pipeline, a.scorer, cfg.Concurrency,
		audit.WithRecorder(a.metrics),
		audit.WithLogger(log),
	)

	a.discoverer = discovery.New(client, cfg.MeshURL, log)

	opts := []analyzer.ServiceOption{analyzer.WithCache(a.cache)}
	if cfg.RespectRobots {
		opts = append(opts, analyzer.WithFilter(discovery.NewRobotsFilter(client, cfg.UserAgent, a.cache, log)))
	}
	if a.store != nil {
		opts = append(opts, analyzer.WithHistory(a.store))
	}
	a.service = analyzer.NewService(runner, a.discoverer, log, opts...)

	return a, nil
}

func (a *app) close() {
	if a.metrics != nil {
		if err := a.metrics.Shutdown(context.Background()); err != nil {
			a.logger.Error("failed to flush metrics", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close store", "error", err)
		}
	}
	a.cache.Close()
}
