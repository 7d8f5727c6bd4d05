// Package search runs the end-to-end paper search pipeline: provider
// fan-out, normalization, deduplication, relevance prefiltering,
// enrichment, ranking, and diversity selection, fronted by a TTL cache.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arjunxplorer/Research-Paper-finder/internal/cache"
	"github.com/arjunxplorer/Research-Paper-finder/internal/dedup"
	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/enrich"
	"github.com/arjunxplorer/Research-Paper-finder/internal/observability"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
	"github.com/arjunxplorer/Research-Paper-finder/internal/ranking"
)

// Aggregator fans a query out to the enabled providers and pools the
// raw records. *papersources.Registry is the production implementation.
type Aggregator interface {
	Aggregate(ctx context.Context, params papersources.SearchParams, sourceNames []string) (papersources.AggregateResult, error)
}

// RelatedAggregator is implemented by aggregators that can walk the
// provider citation graphs for a paper known by its per-source IDs.
type RelatedAggregator interface {
	Related(ctx context.Context, sourceIDs map[string]string, limit int) ([]domain.RawRecord, error)
}

// EventEmitter publishes analytics events after completed searches.
type EventEmitter interface {
	Emit(event domain.SearchEvent)
}

// PaperFinder retrieves a persisted paper snapshot, typically from the
// bookmark store, when the paper cache no longer holds it.
type PaperFinder interface {
	FindPaper(ctx context.Context, paperID uuid.UUID) (domain.Paper, error)
}

// snapshot is the cached outcome of one pipeline run: the full ranked
// candidate list before diversity selection, sort override, and limit.
type snapshot struct {
	Papers          []domain.Paper
	TotalCandidates int
	SourceStats     map[string]domain.SourceStat
}

// Config holds the service's tuning knobs.
type Config struct {
	// DefaultLimit is the result count when the caller does not set one.
	DefaultLimit int

	// MaxLimit caps the caller-requested result count.
	MaxLimit int

	// MaxRecordsPerSource is forwarded to each provider search.
	MaxRecordsPerSource int

	// SourcePriority orders providers for merge decisions; empty means
	// the default order.
	SourcePriority []string

	// PrefilterPoolSize is the candidate count kept after the relevance
	// prefilter.
	PrefilterPoolSize int

	// SearchTTL and PaperTTL bound the two caches; zero means the
	// package defaults.
	SearchTTL time.Duration
	PaperTTL  time.Duration

	// SweepInterval is how often expired cache entries are removed.
	SweepInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 20
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.MaxLimit < c.DefaultLimit {
		c.MaxLimit = c.DefaultLimit
	}
	if c.SearchTTL == 0 {
		c.SearchTTL = cache.DefaultSearchTTL
	}
	if c.PaperTTL == 0 {
		c.PaperTTL = cache.DefaultPaperTTL
	}
}

// Service coordinates the search pipeline.
type Service struct {
	config     Config
	aggregator Aggregator
	merger     *dedup.Merger
	prefilter  *ranking.Prefilter
	ranker     *ranking.Ranker
	enricher   *enrich.Enricher

	searchCache *cache.Cache[snapshot]
	paperCache  *cache.Cache[domain.Paper]

	papers  PaperFinder
	emitter EventEmitter
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// Option customizes optional service collaborators.
type Option func(*Service)

// WithEnricher attaches an open-access / venue-quality enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(s *Service) { s.enricher = e }
}

// WithPaperFinder attaches a persistent paper lookup used by GetPaper
// when the paper cache misses.
func WithPaperFinder(f PaperFinder) Option {
	return func(s *Service) { s.papers = f }
}

// WithEventEmitter attaches an analytics emitter.
func WithEventEmitter(e EventEmitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the service clock. Ranking freshness factors and
// event timestamps derive from it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.ranker = ranking.NewRankerAt(now())
	}
}

// NewService creates a search pipeline service.
func NewService(cfg Config, aggregator Aggregator, logger zerolog.Logger, opts ...Option) *Service {
	cfg.applyDefaults()

	s := &Service{
		config:      cfg,
		aggregator:  aggregator,
		merger:      dedup.NewMerger(cfg.SourcePriority),
		prefilter:   ranking.NewPrefilter(cfg.PrefilterPoolSize),
		ranker:      ranking.NewRanker(),
		searchCache: cache.New[snapshot](cfg.SearchTTL, cfg.SweepInterval),
		paperCache:  cache.New[domain.Paper](cfg.PaperTTL, cfg.SweepInterval),
		logger:      logger.With().Str("component", "search").Logger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		m := s.metrics
		s.searchCache.OnShared(func() { m.RecordCacheShared("search") })
		s.searchCache.OnEvict(func(count int) { m.RecordCacheEvictions("search", count) })
		s.paperCache.OnEvict(func(count int) { m.RecordCacheEvictions("paper", count) })
	}
	return s
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	s.searchCache.Close()
	s.paperCache.Close()
}

// Search runs one search through the pipeline. Identical requests within
// the cache TTL share one pipeline run; concurrent identical requests
// during a miss share a single in-flight computation. Per-source failures
// degrade the result (reported in SourceStats) without failing it; the
// search fails only when every provider fails.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	start := s.now()

	req, err := s.validate(req)
	if err != nil {
		return domain.SearchResult{}, err
	}

	key := cache.Fingerprint(req.Query, req.Mode, req.Filters)
	logger := s.logger.With().
		Str("query_hash", cache.QueryHash(req.Query)).
		Str("mode", string(req.Mode)).
		Logger()

	snap, cached, err := s.searchCache.GetOrCompute(ctx, key, func(ctx context.Context) (snapshot, error) {
		return s.runPipeline(ctx, req, logger)
	})
	if cached {
		s.recordCache("search", true)
	} else {
		s.recordCache("search", false)
	}
	if err != nil {
		s.recordSearch(req.Mode, "failed", 0, 0, start)
		return domain.SearchResult{}, err
	}

	result := s.render(snap, req.Filters)
	result.Cached = cached

	status := "ok"
	for _, stat := range result.SourceStats {
		if stat.Error != "" {
			status = "degraded"
			break
		}
	}
	s.recordSearch(req.Mode, status, len(result.Results), result.TotalCandidates, start)

	elapsed := s.now().Sub(start)
	logger.Info().
		Bool("cached", cached).
		Int("results", len(result.Results)).
		Int("candidates", result.TotalCandidates).
		Dur("elapsed", elapsed).
		Msg("search completed")

	if s.emitter != nil {
		s.emitter.Emit(domain.SearchEvent{
			QueryHash:   cache.QueryHash(req.Query),
			Mode:        req.Mode,
			ResultCount: len(result.Results),
			Candidates:  result.TotalCandidates,
			CacheHit:    cached,
			LatencyMS:   elapsed.Milliseconds(),
			SourceStats: result.SourceStats,
			OccurredAt:  s.now(),
		})
	}

	return result, nil
}

// GetPaper returns one merged paper by its stable ID, from the paper
// cache or, failing that, the persistent store.
func (s *Service) GetPaper(ctx context.Context, paperID uuid.UUID) (domain.Paper, error) {
	if paper, ok := s.paperCache.Get(paperID.String()); ok {
		s.recordCache("paper", true)
		return paper, nil
	}
	s.recordCache("paper", false)

	if s.papers != nil {
		paper, err := s.papers.FindPaper(ctx, paperID)
		if err == nil {
			s.paperCache.Set(paperID.String(), paper)
		}
		return paper, err
	}

	return domain.Paper{}, domain.NewNotFoundError("paper", paperID.String())
}

// relatedRecordLimit is forwarded to each provider's citation-graph
// lookup, bounding the pool fed into dedup and ranking.
const relatedRecordLimit = 30

// GetRelated returns papers connected to a known paper through the
// provider citation graphs. The pool is normalized, deduplicated,
// enriched, and ranked for foundational work, with the seed paper
// itself removed. A provider that cannot resolve the paper degrades
// silently; the lookup fails only when every provider fails.
func (s *Service) GetRelated(ctx context.Context, paperID uuid.UUID, limit int) ([]domain.Paper, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	seed, err := s.GetPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	rel, ok := s.aggregator.(RelatedAggregator)
	if !ok || len(seed.SourceIDs) == 0 {
		return []domain.Paper{}, nil
	}

	start := s.now()
	records, err := rel.Related(ctx, seed.SourceIDs, relatedRecordLimit)
	s.recordStage("related", start)
	if err != nil {
		return nil, err
	}

	normalized, _ := dedup.NormalizePool(records)
	papers := s.merger.Deduplicate(normalized)
	papers = excludeSeed(papers, seed)

	if s.enricher != nil {
		s.enricher.Enrich(ctx, papers)
	}

	ranked := s.ranker.Rank(papers, domain.SearchModeFoundational)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]domain.Paper, len(ranked))
	for i, paper := range ranked {
		results[i] = *paper
		s.paperCache.Set(paper.ID.String(), *paper)
	}

	s.logger.Info().
		Str("paper_id", paperID.String()).
		Int("results", len(results)).
		Msg("related papers resolved")

	return results, nil
}

// excludeSeed drops the seed paper when a provider echoes it back as
// its own neighbor, matching on shared per-source identifiers.
func excludeSeed(papers []*domain.Paper, seed domain.Paper) []*domain.Paper {
	kept := papers[:0]
	for _, paper := range papers {
		echo := false
		for source, id := range paper.SourceIDs {
			if id != "" && seed.SourceIDs[source] == id {
				echo = true
				break
			}
		}
		if !echo {
			kept = append(kept, paper)
		}
	}
	return kept
}

// runPipeline executes one full cache-miss search.
func (s *Service) runPipeline(ctx context.Context, req domain.SearchRequest, logger zerolog.Logger) (snapshot, error) {
	params := papersources.SearchParams{
		Query:          req.Query,
		YearFrom:       req.Filters.YearFrom,
		YearTo:         req.Filters.YearTo,
		MaxResults:     s.config.MaxRecordsPerSource,
		OpenAccessOnly: req.Filters.OpenAccessOnly,
	}

	stageStart := s.now()
	agg, err := s.aggregator.Aggregate(ctx, params, req.Filters.Sources)
	s.recordStage("aggregate", stageStart)
	for name, stat := range agg.Stats {
		if stat.Error != "" {
			logger.Warn().Str("source", name).Str("error", stat.Error).Msg("source failed")
			continue
		}
		logger.Debug().Str("source", name).Int("records", stat.Count).Msg("source responded")
		if s.metrics != nil {
			s.metrics.RecordSourceYield(name, stat.Count)
		}
	}
	if err != nil {
		return snapshot{}, err
	}

	stageStart = s.now()
	sourceTotals := countBySource(agg.Records)
	normalized, dropped := dedup.NormalizePool(agg.Records)
	s.recordStage("normalize", stageStart)
	if s.metrics != nil {
		kept := countBySource(normalized)
		for source, total := range sourceTotals {
			s.metrics.RecordNormalization(source, kept[source], total-kept[source])
		}
	}
	if dropped > 0 {
		logger.Debug().Int("dropped", dropped).Msg("records dropped during normalization")
	}

	stageStart = s.now()
	papers := s.merger.Deduplicate(normalized)
	s.recordStage("dedup", stageStart)
	if s.metrics != nil {
		s.metrics.RecordDedup(len(normalized), len(papers))
	}

	stageStart = s.now()
	candidates := s.prefilter.Apply(req.Query, papers, req.Filters)
	s.recordStage("prefilter", stageStart)

	if s.enricher != nil {
		stageStart = s.now()
		s.enricher.Enrich(ctx, candidates)
		s.recordStage("enrich", stageStart)
	}

	stageStart = s.now()
	ranked := s.ranker.Rank(candidates, req.Mode)
	s.recordStage("rank", stageStart)

	snap := snapshot{
		Papers:          make([]domain.Paper, len(ranked)),
		TotalCandidates: len(papers),
		SourceStats:     agg.Stats,
	}
	for i, paper := range ranked {
		snap.Papers[i] = *paper
		s.paperCache.Set(paper.ID.String(), *paper)
	}

	return snap, nil
}

// render produces the caller-facing result from a cached snapshot:
// diversity selection under the effective limit, then the optional sort
// override on the selected set.
func (s *Service) render(snap snapshot, filters domain.SearchFilters) domain.SearchResult {
	limit := filters.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	ranked := make([]*domain.Paper, len(snap.Papers))
	for i := range snap.Papers {
		paper := snap.Papers[i]
		ranked[i] = &paper
	}

	selected := ranking.ApplyDiversity(ranked, limit, filters.SurveysOnly)
	ranking.SortOverride(selected, filters.Sort)

	result := domain.SearchResult{
		Results:         make([]domain.Paper, len(selected)),
		TotalCandidates: snap.TotalCandidates,
		SourceStats:     make(map[string]domain.SourceStat, len(snap.SourceStats)),
	}
	for i, paper := range selected {
		result.Results[i] = *paper
	}
	for name, stat := range snap.SourceStats {
		result.SourceStats[name] = stat
	}
	return result
}

func (s *Service) recordSearch(mode domain.SearchMode, status string, results, candidates int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordSearch(string(mode), status, results, candidates, s.now().Sub(start).Seconds())
}

func (s *Service) recordStage(stage string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordStage(stage, s.now().Sub(start).Seconds())
}

func (s *Service) recordCache(which string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit(which)
	} else {
		s.metrics.RecordCacheMiss(which)
	}
}

func countBySource(records []domain.RawRecord) map[string]int {
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].SourceName]++
	}
	return counts
}
