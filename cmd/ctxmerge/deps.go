package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/config"
	"github.com/mohammad-safakhou/ctxmerge/internal/collectors"
	"github.com/mohammad-safakhou/ctxmerge/internal/httpclient"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
	"github.com/mohammad-safakhou/ctxmerge/internal/runtime"
	"github.com/mohammad-safakhou/ctxmerge/provider"
	"github.com/mohammad-safakhou/ctxmerge/repository/memory_repository"
	"github.com/mohammad-safakhou/ctxmerge/tools/documents"
	"github.com/mohammad-safakhou/ctxmerge/tools/feeds"
	"github.com/mohammad-safakhou/ctxmerge/tools/statistics"
	"github.com/mohammad-safakhou/ctxmerge/tools/trends"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_fetch"
	"github.com/mohammad-safakhou/ctxmerge/tools/web_search"
)

const httpRetries = 2

// app is the fully wired process: capabilities, memory store and the
// orchestrator built on top of them.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	orch      *orchestrator.Orchestrator
	memory    memory_repository.Store
	telemetry *runtime.Telemetry
}

func memoryConfig(cfg *config.Config) memory_repository.Config {
	s := cfg.Storage
	return memory_repository.Config{
		Backend: s.Memory.Backend,
		FileDir: s.File.DataDir,
		Redis: memory_repository.RedisConfig{
			Addr:     s.Redis.Addr(),
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
			Timeout:  s.Redis.Timeout,
		},
		Postgres: memory_repository.SQLConfig{DSN: s.Postgres.DSN()},
		SQLite:   memory_repository.SQLConfig{DSN: s.SQLite.Path},
	}
}

func openMemory(ctx context.Context, cfg *config.Config) (memory_repository.Store, error) {
	store, err := memory_repository.NewStore(ctx, memoryConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return store, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	tel, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{ServiceName: cfg.Telemetry.ServiceName})
	if err != nil {
		return nil, err
	}
	store, err := openMemory(ctx, cfg)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	deps, err := buildDeps(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	var opts []orchestrator.Option
	if counter, err := merger.NewTiktokenCounter(cfg.LLM.Model); err == nil {
		opts = append(opts, orchestrator.WithTokenCounter(counter))
	} else {
		logger.Warn("tiktoken unavailable, bundle token metric uses estimates", zap.Error(err))
	}

	gen, err := provider.NewGenerator(ctx, provider.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	switch {
	case errors.Is(err, provider.ErrMissingAPIKey):
		logger.Warn("no llm api key configured; plan and finalize will degrade")
	case err != nil:
		_ = store.Close()
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		TokenBudget:      cfg.Merger.TokenBudget,
		MaxConcurrency:   cfg.Merger.MaxConcurrency,
		CollectorTimeout: cfg.Merger.CollectorTimeout,
		CollectDeadline:  cfg.Merger.CollectDeadline,
		PlanTimeout:      cfg.LLM.PlanTimeout,
		FinalizeTimeout:  cfg.LLM.FinalizeTimeout,
		Weights:          merger.DefaultCategoryWeights().WithOverrides(cfg.Merger.CategoryWeights),
	}, gen, deps, logger, opts...)

	return &app{cfg: cfg, logger: logger, orch: orch, memory: store, telemetry: tel}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.memory.Close(); err != nil {
		a.logger.Warn("memory store close", zap.Error(err))
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

// buildDeps wires the collector capabilities. Optional services are left
// nil when unconfigured so the collectors report the gap as an error chunk.
func buildDeps(cfg *config.Config, store memory_repository.Store, logger *zap.Logger) (collectors.Deps, error) {
	src := cfg.Sources
	wf := src.WebFetch

	client := httpclient.New(wf.Timeout, httpRetries, 0,
		httpclient.WithUserAgent(wf.UserAgent),
		httpclient.WithMaxBytes(wf.MaxBytes),
	)

	fetcher, err := web_fetch.NewFetcher(web_fetch.FetcherType(strings.ToLower(wf.Fetcher)), client, wf.Timeout, wf.UserAgent)
	if err != nil {
		return collectors.Deps{}, fmt.Errorf("web fetcher: %w", err)
	}
	if wf.CacheSize > 0 {
		fetcher = web_fetch.NewCachedFetcher(fetcher, wf.CacheSize, wf.CacheTTL)
	}
	extractor, err := web_fetch.NewExtractor(web_fetch.ExtractorType(strings.ToLower(wf.Extractor)))
	if err != nil {
		return collectors.Deps{}, fmt.Errorf("block extractor: %w", err)
	}

	var objects documents.ObjectGetter
	if cfg.Storage.S3.Enabled() {
		s3 := cfg.Storage.S3
		mc, err := documents.NewS3Client(documents.S3Config{
			Endpoint:        s3.Endpoint,
			Region:          s3.Region,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			UseSSL:          s3.UseSSL,
		})
		if err != nil {
			return collectors.Deps{}, fmt.Errorf("s3 client: %w", err)
		}
		objects = mc
	}

	deps := collectors.Deps{
		Memory:         store,
		Fetcher:        fetcher,
		Extractor:      extractor,
		Documents:      documents.NewReader(objects, 0),
		Feeds:          feeds.NewParser(httpclient.New(src.Feeds.Timeout, httpRetries, 0, httpclient.WithUserAgent(wf.UserAgent))),
		HTTP:           client,
		Policy:         src.CrawlPolicy,
		Guidelines:     cfg.Merger.Guidelines,
		SearchProvider: web_search.Provider(src.WebSearch.Provider),
		Searchers:      map[web_search.Provider]web_search.Searcher{},
		Logger:         logger.Named("collectors"),
	}

	if src.Trends.APIKey != "" {
		deps.Trends = trends.NewSerpAPIClient(httpclient.New(src.Trends.Timeout, httpRetries, 0), src.Trends.APIKey, src.Trends.Endpoint)
	}
	if src.Statistics.Configured() {
		deps.Statistics = statistics.NewClient(httpclient.New(src.Statistics.Timeout, 0, 0), src.Statistics.Endpoint, statistics.Credentials{
			Token:    src.Statistics.Token,
			Username: src.Statistics.Username,
			Password: src.Statistics.Password,
		})
	}

	searchClient := httpclient.New(src.WebSearch.Timeout, httpRetries, 0)
	keys := map[web_search.Provider]string{
		web_search.SerperProvider: src.WebSearch.SerperAPIKey,
		web_search.BraveProvider:  src.WebSearch.BraveAPIKey,
	}
	for p, key := range keys {
		s, err := web_search.NewSearcher(p, searchClient, web_search.Options{
			APIKey:     key,
			MaxResults: src.WebSearch.MaxResults,
			Country:    src.WebSearch.Country,
			Language:   src.WebSearch.Language,
		})
		if errors.Is(err, web_search.ErrMissingAPIKey) {
			continue
		}
		if err != nil {
			return collectors.Deps{}, fmt.Errorf("search provider %s: %w", p, err)
		}
		deps.Searchers[p] = s
	}
	return deps, nil
}
