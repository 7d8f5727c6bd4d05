// Package main provides the entry point for the paper finder HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/arjunxplorer/Research-Paper-finder/internal/analytics"
	"github.com/arjunxplorer/Research-Paper-finder/internal/config"
	"github.com/arjunxplorer/Research-Paper-finder/internal/database"
	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/enrich"
	"github.com/arjunxplorer/Research-Paper-finder/internal/observability"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources/arxiv"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources/crossref"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources/openalex"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources/pubmed"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources/semanticscholar"
	"github.com/arjunxplorer/Research-Paper-finder/internal/repository"
	"github.com/arjunxplorer/Research-Paper-finder/internal/search"
	httpserver "github.com/arjunxplorer/Research-Paper-finder/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("paper-finder server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Connect to PostgreSQL when persistence is enabled. The search
	// pipeline itself is stateless; the database backs bookmarks,
	// comments, and the search audit log.
	var (
		db            *database.DB
		bookmarkRepo  repository.BookmarkRepository
		commentRepo   repository.CommentRepository
		searchLogRepo repository.SearchLogRepository
	)
	if cfg.Database.Enabled {
		db, err = database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info().Msg("database connection established")

		// Run migrations if configured.
		if cfg.Database.MigrationAutoRun {
			migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
			if err != nil {
				return fmt.Errorf("create migrator: %w", err)
			}
			defer func() {
				if closeErr := migrator.Close(); closeErr != nil {
					logger.Error().Err(closeErr).Msg("failed to close migrator")
				}
			}()

			if err := migrator.Up(); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}

		bookmarkRepo = repository.NewPgBookmarkRepository(db)
		commentRepo = repository.NewPgCommentRepository(db)
		searchLogRepo = repository.NewPgSearchLogRepository(db)
	} else {
		logger.Info().Msg("database disabled; bookmarks and comments unavailable")
	}

	// Build the provider registry from the configured source priority.
	priority := make([]domain.SourceType, 0, len(cfg.Sources.Priority))
	for _, name := range cfg.Sources.Priority {
		priority = append(priority, domain.SourceType(name))
	}
	registry := papersources.NewRegistry(priority, cfg.Search.SourceTimeout)
	var observer papersources.RequestObserver
	if metrics != nil {
		observer = metrics
	}
	registerSources(registry, &cfg.Sources, observer, logger)

	// Open-access and venue-quality enrichment.
	resolver := enrich.NewUnpaywallResolver(enrich.UnpaywallConfig{
		BaseURL:   cfg.Enrichment.BaseURL,
		Email:     cfg.Enrichment.Email,
		Timeout:   cfg.Enrichment.Timeout,
		RateLimit: cfg.Enrichment.RateLimit,
		Enabled:   cfg.Enrichment.Enabled,
	})
	defer resolver.Close()
	venues := enrich.NewVenueIndex(nil)
	if cfg.Enrichment.VenuesPath != "" {
		venues, err = enrich.LoadVenueIndex(cfg.Enrichment.VenuesPath)
		if err != nil {
			return fmt.Errorf("loading venue table: %w", err)
		}
		logger.Info().Str("path", cfg.Enrichment.VenuesPath).Msg("venue quality table loaded")
	}
	enricher := enrich.NewEnricher(resolver, venues, logger)

	// Kafka analytics emitter, if configured.
	var emitter *analytics.Emitter
	if cfg.Analytics.Enabled {
		emitter = analytics.NewEmitter(analytics.Config{
			Brokers:      cfg.Analytics.Brokers,
			Topic:        cfg.Analytics.Topic,
			QueueSize:    cfg.Analytics.QueueSize,
			BatchTimeout: cfg.Analytics.BatchTimeout,
		}, metrics, logger)
		logger.Info().
			Strs("brokers", cfg.Analytics.Brokers).
			Str("topic", cfg.Analytics.Topic).
			Msg("analytics emitter started")
	}

	// Completed searches fan out to the Kafka emitter and the persistent
	// audit log, whichever are enabled.
	var (
		recorder *analytics.Recorder
		sinks    analytics.Fanout
	)
	if searchLogRepo != nil {
		recorder = analytics.NewRecorder(searchLogRepo, logger)
		sinks = append(sinks, recorder)
	}
	if emitter != nil {
		sinks = append(sinks, emitter)
	}

	// Assemble the search pipeline.
	opts := []search.Option{
		search.WithEnricher(enricher),
	}
	if bookmarkRepo != nil {
		opts = append(opts, search.WithPaperFinder(bookmarkRepo))
	}
	if len(sinks) > 0 {
		opts = append(opts, search.WithEventEmitter(sinks))
	}
	if metrics != nil {
		opts = append(opts, search.WithMetrics(metrics))
	}
	service := search.NewService(search.Config{
		DefaultLimit:      cfg.Search.DefaultLimit,
		MaxLimit:          cfg.Search.MaxLimit,
		SourcePriority:    cfg.Sources.Priority,
		PrefilterPoolSize: cfg.Search.PrefilterPoolSize,
		SearchTTL:         cfg.Cache.SearchTTL,
		PaperTTL:          cfg.Cache.PaperTTL,
		SweepInterval:     cfg.Cache.SweepInterval,
	}, registry, logger, opts...)
	defer service.Close()

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.ReadTimeout + cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, service, bookmarkRepo, commentRepo, db, metrics, logger)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("paper-finder is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down paper-finder")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Drain the analytics queues before exit.
	if emitter != nil {
		if err := emitter.Close(); err != nil {
			logger.Error().Err(err).Msg("analytics emitter close error")
		}
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("search log recorder close error")
		}
	}

	logger.Info().Msg("paper-finder shutdown complete")
	return nil
}

// registerSources builds a client for each enabled provider and registers
// it with the aggregation registry. A disabled provider is simply absent;
// the registry treats requests naming it as unknown.
func registerSources(registry *papersources.Registry, sources *config.SourcesConfig, observer papersources.RequestObserver, logger zerolog.Logger) {
	if sources.SemanticScholar.Enabled {
		registry.Register(semanticscholar.NewClient(semanticscholar.Config{
			BaseURL:    sources.SemanticScholar.BaseURL,
			APIKey:     sources.SemanticScholar.APIKey,
			Timeout:    sources.SemanticScholar.Timeout,
			RateLimit:  sources.SemanticScholar.RateLimit,
			MaxResults: sources.SemanticScholar.MaxResults,
			Enabled:    true,
			Observer:   observer,
		}, nil))
	}
	if sources.OpenAlex.Enabled {
		registry.Register(openalex.New(openalex.Config{
			BaseURL:    sources.OpenAlex.BaseURL,
			Timeout:    sources.OpenAlex.Timeout,
			RateLimit:  sources.OpenAlex.RateLimit,
			MaxResults: sources.OpenAlex.MaxResults,
			Enabled:    true,
			Observer:   observer,
		}))
	}
	if sources.Crossref.Enabled {
		registry.Register(crossref.New(crossref.Config{
			BaseURL:    sources.Crossref.BaseURL,
			Timeout:    sources.Crossref.Timeout,
			RateLimit:  sources.Crossref.RateLimit,
			MaxResults: sources.Crossref.MaxResults,
			Enabled:    true,
			Observer:   observer,
		}))
	}
	if sources.PubMed.Enabled {
		registry.Register(pubmed.New(pubmed.Config{
			BaseURL:    sources.PubMed.BaseURL,
			APIKey:     sources.PubMed.APIKey,
			Timeout:    sources.PubMed.Timeout,
			RateLimit:  sources.PubMed.RateLimit,
			MaxResults: sources.PubMed.MaxResults,
			Enabled:    true,
			Observer:   observer,
		}))
	}
	if sources.ArXiv.Enabled {
		registry.Register(arxiv.New(arxiv.Config{
			BaseURL:    sources.ArXiv.BaseURL,
			Timeout:    sources.ArXiv.Timeout,
			RateLimit:  sources.ArXiv.RateLimit,
			MaxResults: sources.ArXiv.MaxResults,
			Enabled:    true,
			Observer:   observer,
		}))
	}

	for _, src := range registry.EnabledSources() {
		logger.Info().Str("source", string(src.SourceType())).Msg("paper source registered")
	}
}
