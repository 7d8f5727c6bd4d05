// Package pipeline provides integration tests for the search pipeline.
// These tests verify the complete flow: aggregate -> normalize -> dedup ->
// prefilter -> rank -> render, using a fake aggregator in place of live
// provider APIs.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
	"github.com/arjunxplorer/Research-Paper-finder/internal/search"
)

// fakeAggregator replays a canned multi-source result set and counts
// how many times the pipeline actually fans out.
type fakeAggregator struct {
	mu         sync.Mutex
	calls      atomic.Int64
	lastParams papersources.SearchParams
	result     papersources.AggregateResult
	err        error
	delay      time.Duration
}

func (f *fakeAggregator) Aggregate(ctx context.Context, params papersources.SearchParams, sourceNames []string) (papersources.AggregateResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastParams = params
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return papersources.AggregateResult{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeAggregator) params() papersources.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastParams
}

// multiSourceRecords returns three distinct papers across three sources,
// with one paper reported by two sources under the same DOI and one
// record that normalization must drop.
func multiSourceRecords() []domain.RawRecord {
	resnetS2 := domain.NewRawRecord("semantic_scholar", "s2-resnet")
	resnetS2.Title = "Deep Residual Learning for Image Recognition"
	resnetS2.DOI = "10.1109/cvpr.2016.90"
	resnetS2.Year = 2016
	resnetS2.Venue = "CVPR"
	resnetS2.Authors = []domain.Author{{Name: "Kaiming He"}}
	resnetS2.CitationCount = 150000

	resnetOA := domain.NewRawRecord("openalex", "W123")
	resnetOA.Title = "Deep residual learning for image recognition"
	resnetOA.DOI = "10.1109/CVPR.2016.90"
	resnetOA.Year = 2016
	resnetOA.Venue = "CVPR"
	resnetOA.Authors = []domain.Author{{Name: "Kaiming He"}}
	resnetOA.CitationCount = 149500
	resnetOA.IsOpenAccess = true
	resnetOA.OAURL = "https://arxiv.org/pdf/1512.03385"

	attention := domain.NewRawRecord("crossref", "10.5555/attention")
	attention.Title = "Attention Is All You Need"
	attention.DOI = "10.5555/attention"
	attention.Year = 2017
	attention.Venue = "NeurIPS"
	attention.Authors = []domain.Author{{Name: "Ashish Vaswani"}}
	attention.CitationCount = 90000

	registers := domain.NewRawRecord("openalex", "W456")
	registers.Title = "Vision Transformers Need Registers"
	registers.DOI = "10.5555/registers"
	registers.Year = 2024
	registers.Venue = "ICLR"
	registers.Authors = []domain.Author{{Name: "Timothee Darcet"}}
	registers.CitationCount = 400

	untitled := domain.NewRawRecord("crossref", "10.5555/untitled")
	untitled.Year = 2020

	return []domain.RawRecord{resnetS2, attention, registers, resnetOA, untitled}
}

func newAggregator() *fakeAggregator {
	return &fakeAggregator{
		result: papersources.AggregateResult{
			Records: multiSourceRecords(),
			Stats: map[string]domain.SourceStat{
				"semantic_scholar": {Count: 1},
				"openalex":         {Count: 2},
				"crossref":         {Count: 2},
			},
		},
	}
}

func newService(agg search.Aggregator) *search.Service {
	return search.NewService(search.Config{
		SourcePriority: []string{"semantic_scholar", "openalex", "crossref"},
	}, agg, zerolog.Nop())
}

func TestPipeline_EndToEnd(t *testing.T) {
	agg := newAggregator()
	svc := newService(agg)
	defer svc.Close()

	result, err := svc.Search(context.Background(), domain.SearchRequest{
		Query: "deep learning",
		Mode:  domain.SearchModeFoundational,
	})
	require.NoError(t, err)

	// Five raw records collapse to three papers: the DOI duplicate merges
	// and the untitled record is dropped in normalization.
	require.Len(t, result.Results, 3)
	assert.Equal(t, 3, result.TotalCandidates)
	assert.False(t, result.Cached)

	// Foundational mode puts the most cited, established paper first.
	top := result.Results[0]
	assert.Equal(t, "Deep Residual Learning for Image Recognition", top.Title)

	// The merged paper carries both contributing databases and keeps the
	// open-access link only one source reported.
	assert.ElementsMatch(t, []string{"semantic_scholar", "openalex"}, top.Databases)
	assert.True(t, top.IsOpenAccess)
	assert.NotEmpty(t, top.OAURL)

	// Per-source coverage survives to the caller.
	require.Contains(t, result.SourceStats, "crossref")
	assert.Equal(t, 2, result.SourceStats["crossref"].Count)
}

func TestPipeline_CachesIdenticalRequests(t *testing.T) {
	agg := newAggregator()
	svc := newService(agg)
	defer svc.Close()

	req := domain.SearchRequest{Query: "deep learning", Mode: domain.SearchModeRecent}

	first, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int64(1), agg.calls.Load())

	// A different mode is a different fingerprint, so the pipeline runs again.
	_, err = svc.Search(context.Background(), domain.SearchRequest{
		Query: "deep learning",
		Mode:  domain.SearchModeFoundational,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.calls.Load())
}

func TestPipeline_ConcurrentMissesShareOneRun(t *testing.T) {
	agg := newAggregator()
	agg.delay = 50 * time.Millisecond
	svc := newService(agg)
	defer svc.Close()

	req := domain.SearchRequest{Query: "deep learning", Mode: domain.SearchModeFoundational}

	var wg sync.WaitGroup
	results := make([]domain.SearchResult, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Search(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i].Results, 3)
	}
	assert.Equal(t, int64(1), agg.calls.Load(), "concurrent identical misses must share one pipeline run")
}

func TestPipeline_ForwardsFiltersToSources(t *testing.T) {
	agg := newAggregator()
	svc := newService(agg)
	defer svc.Close()

	_, err := svc.Search(context.Background(), domain.SearchRequest{
		Query: "deep learning",
		Mode:  domain.SearchModeRecent,
		Filters: domain.SearchFilters{
			YearFrom:       2020,
			YearTo:         2024,
			OpenAccessOnly: true,
		},
	})
	require.NoError(t, err)

	params := agg.params()
	assert.Equal(t, "deep learning", params.Query)
	assert.Equal(t, 2020, params.YearFrom)
	assert.Equal(t, 2024, params.YearTo)
	assert.True(t, params.OpenAccessOnly)
}

func TestPipeline_AllSourcesFailing(t *testing.T) {
	agg := &fakeAggregator{
		err: &domain.AllSourcesError{Failures: map[string]error{
			"openalex": context.DeadlineExceeded,
		}},
	}
	svc := newService(agg)
	defer svc.Close()

	_, err := svc.Search(context.Background(), domain.SearchRequest{
		Query: "deep learning",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllSourcesUnavailable)
	assert.Equal(t, int64(1), agg.calls.Load())
}

func TestPipeline_PaperLookupAfterSearch(t *testing.T) {
	agg := newAggregator()
	svc := newService(agg)
	defer svc.Close()

	result, err := svc.Search(context.Background(), domain.SearchRequest{
		Query: "deep learning",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Results)

	want := result.Results[0]
	got, err := svc.GetPaper(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.DOI, got.DOI)

	_, err = svc.GetPaper(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
