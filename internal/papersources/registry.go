package papersources

import (
	"context"
	"sync"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// SourceResult holds the result of a search from one source.
type SourceResult struct {
	// Source identifies which paper source provided the result.
	Source domain.SourceType

	// Records contains the raw records if the search succeeded.
	// Will be nil if Error is non-nil.
	Records []domain.RawRecord

	// Error contains the error if the search failed.
	// Will be nil if Records is non-nil.
	Error error
}

// AggregateResult is the merged output of a fan-out across sources: the
// pooled raw records in a stable order plus per-source yield and failures.
type AggregateResult struct {
	// Records holds every record the successful sources returned, ordered
	// by source priority and then by each source's own result order.
	// Completion order of the concurrent searches never affects it.
	Records []domain.RawRecord

	// Stats records each attempted source's yield, or its error when the
	// search failed.
	Stats map[string]domain.SourceStat
}

// Registry manages paper sources and coordinates concurrent searches.
// It provides thread-safe registration and retrieval of paper sources,
// as well as concurrent fan-out across multiple sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]PaperSource

	// priority orders sources from most to least trusted; it controls
	// pool ordering in Aggregate.
	priority []domain.SourceType

	// sourceTimeout bounds each individual source search during fan-out.
	sourceTimeout time.Duration
}

// NewRegistry creates a new source registry with an empty source map.
// The priority list controls record ordering in Aggregate; sources missing
// from it sort last. sourceTimeout bounds each source's search; zero means
// no per-source deadline beyond the caller's context.
func NewRegistry(priority []domain.SourceType, sourceTimeout time.Duration) *Registry {
	return &Registry{
		sources:       make(map[domain.SourceType]PaperSource),
		priority:      priority,
		sourceTimeout: sourceTimeout,
	}
}

// Register adds a source to the registry.
// If a source with the same type already exists, it will be replaced.
// This method is thread-safe.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not found.
// This method is thread-safe.
func (r *Registry) Get(sourceType domain.SourceType) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// AllSources returns all registered sources.
// The returned slice is a snapshot and is safe to iterate even if
// sources are added or removed concurrently.
// This method is thread-safe.
func (r *Registry) AllSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}
	return sources
}

// EnabledSources returns only enabled sources.
// Sources are considered enabled if their IsEnabled() method returns true.
// This method is thread-safe.
func (r *Registry) EnabledSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// selectSources resolves which sources a fan-out should hit, in priority
// order. With no explicit names, every enabled source is used. Unknown or
// disabled names are skipped.
func (r *Registry) selectSources(names []string) []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requested := make(map[domain.SourceType]bool, len(names))
	for _, n := range names {
		requested[domain.SourceType(n)] = true
	}

	ordered := make([]PaperSource, 0, len(r.sources))
	seen := make(map[domain.SourceType]bool, len(r.sources))
	for _, st := range r.priority {
		if source, ok := r.sources[st]; ok {
			if !source.IsEnabled() {
				continue
			}
			if len(names) > 0 && !requested[st] {
				continue
			}
			ordered = append(ordered, source)
			seen[st] = true
		}
	}
	// Registered sources absent from the priority list sort last.
	for st, source := range r.sources {
		if seen[st] || !source.IsEnabled() {
			continue
		}
		if len(names) > 0 && !requested[st] {
			continue
		}
		ordered = append(ordered, source)
	}
	return ordered
}

// Aggregate fans out to the selected sources concurrently and merges their
// raw records into one stably ordered pool. Each source runs under its own
// timeout; a slow or failing source is excluded from the pool but recorded
// in Stats with its error, and never aborts the overall call.
//
// Aggregate fails only when zero sources succeed, returning an
// AllSourcesError that carries every per-source failure. An empty result
// from a source that responded cleanly still counts as a success.
func (r *Registry) Aggregate(ctx context.Context, params SearchParams, sourceNames []string) (AggregateResult, error) {
	sources := r.selectSources(sourceNames)

	out := AggregateResult{
		Stats: make(map[string]domain.SourceStat, len(sources)),
	}
	if len(sources) == 0 {
		return out, &domain.AllSourcesError{Failures: map[string]error{}}
	}

	resultChan := make(chan SourceResult, len(sources))
	var wg sync.WaitGroup

	for _, source := range sources {
		wg.Add(1)
		go func(s PaperSource) {
			defer wg.Done()

			searchCtx := ctx
			if r.sourceTimeout > 0 {
				var cancel context.CancelFunc
				searchCtx, cancel = context.WithTimeout(ctx, r.sourceTimeout)
				defer cancel()
			}

			records, err := s.Search(searchCtx, params)
			resultChan <- SourceResult{
				Source:  s.SourceType(),
				Records: records,
				Error:   err,
			}
		}(source)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect everything before assembling the pool so that completion
	// order cannot leak into record order.
	collected := make(map[domain.SourceType]SourceResult, len(sources))
	for result := range resultChan {
		collected[result.Source] = result
	}

	failures := make(map[string]error)
	for _, source := range sources {
		result := collected[source.SourceType()]
		name := string(result.Source)
		if result.Error != nil {
			out.Stats[name] = domain.SourceStat{Error: result.Error.Error()}
			failures[name] = &domain.SourceError{Source: name, Err: result.Error}
			continue
		}
		out.Stats[name] = domain.SourceStat{Count: len(result.Records)}
		out.Records = append(out.Records, result.Records...)
	}

	if len(failures) == len(sources) {
		return out, &domain.AllSourcesError{Failures: failures}
	}
	return out, nil
}

// Related fans out to the graph-capable sources that have a native ID
// for the seed paper and pools their records, ordered by source
// priority. sourceIDs maps provider name to that provider's ID for the
// seed. A failing source degrades the pool; the call fails only when
// every attempted source failed. With no usable source the pool is
// empty and the error nil.
func (r *Registry) Related(ctx context.Context, sourceIDs map[string]string, limit int) ([]domain.RawRecord, error) {
	type candidate struct {
		source RelatedSource
		id     string
	}
	var candidates []candidate
	for _, source := range r.selectSources(nil) {
		rel, ok := source.(RelatedSource)
		if !ok {
			continue
		}
		id := sourceIDs[string(source.SourceType())]
		if id == "" {
			continue
		}
		candidates = append(candidates, candidate{source: rel, id: id})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	resultChan := make(chan SourceResult, len(candidates))
	var wg sync.WaitGroup
	for _, c := range candidates {
		wg.Add(1)
		go func(c candidate) {
			defer wg.Done()

			relCtx := ctx
			if r.sourceTimeout > 0 {
				var cancel context.CancelFunc
				relCtx, cancel = context.WithTimeout(ctx, r.sourceTimeout)
				defer cancel()
			}

			records, err := c.source.Related(relCtx, c.id, limit)
			resultChan <- SourceResult{
				Source:  c.source.SourceType(),
				Records: records,
				Error:   err,
			}
		}(c)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	collected := make(map[domain.SourceType]SourceResult, len(candidates))
	for result := range resultChan {
		collected[result.Source] = result
	}

	var pool []domain.RawRecord
	failures := make(map[string]error)
	for _, c := range candidates {
		result := collected[c.source.SourceType()]
		name := string(result.Source)
		if result.Error != nil {
			failures[name] = &domain.SourceError{Source: name, Err: result.Error}
			continue
		}
		pool = append(pool, result.Records...)
	}

	if len(failures) == len(candidates) {
		return nil, &domain.AllSourcesError{Failures: failures}
	}
	return pool, nil
}
