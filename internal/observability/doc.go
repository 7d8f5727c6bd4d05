// Package observability provides logging and metrics support for the paper
// finder service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, sources, dedup, and caches
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("request_id", reqID).Msg("search started")
//
// Add search context to logger:
//
//	logger = observability.WithSearchContext(logger, query, mode)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("paperfinder")
//
// Record metrics:
//
//	metrics.RecordSearch("foundational", "ok", 20, 134, 1.2)
//	metrics.RecordSourceRequest("openalex", "works", 0.3)
//	metrics.RecordCacheHit("search")
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithCorrelationID(ctx, correlationID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: Per-request identifier generated at the HTTP edge
//   - correlation_id: Identifier propagated from upstream callers
//   - query: User's research query
//   - mode: Scoring policy (foundational, recent)
//   - source: Paper source (semantic_scholar, openalex, etc.)
//   - paper_id: Canonical paper identifier
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
