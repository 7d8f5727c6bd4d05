package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Enricher attaches open-access locations and venue-quality metadata to
// merged papers. Both steps are best effort: a failed lookup leaves the
// paper untouched.
type Enricher struct {
	resolver *UnpaywallResolver
	venues   *VenueIndex
	logger   zerolog.Logger
}

// NewEnricher creates an enricher. Either the resolver or the venue index
// may be nil, in which case that step is skipped.
func NewEnricher(resolver *UnpaywallResolver, venues *VenueIndex, logger zerolog.Logger) *Enricher {
	return &Enricher{
		resolver: resolver,
		venues:   venues,
		logger:   logger.With().Str("component", "enricher").Logger(),
	}
}

// Enrich augments the papers in place. Open-access resolution only runs
// for papers with a DOI that the sources did not already mark open access.
func (e *Enricher) Enrich(ctx context.Context, papers []*domain.Paper) {
	for _, paper := range papers {
		if paper == nil {
			continue
		}
		e.attachVenue(paper)
		e.resolveOpenAccess(ctx, paper)
	}
}

func (e *Enricher) attachVenue(paper *domain.Paper) {
	if e.venues == nil || paper.Publication != nil {
		return
	}

	if pub := e.venues.Lookup(paper.Venue, ""); pub != nil {
		paper.Publication = pub
	}
}

func (e *Enricher) resolveOpenAccess(ctx context.Context, paper *domain.Paper) {
	if e.resolver == nil || !e.resolver.Enabled() {
		return
	}
	if paper.IsOpenAccess || paper.DOI == "" {
		return
	}
	if ctx.Err() != nil {
		return
	}

	res, err := e.resolver.Resolve(ctx, paper.DOI)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("doi", paper.DOI).
			Msg("open-access resolution failed")
		return
	}
	if !res.IsOpenAccess {
		return
	}

	paper.IsOpenAccess = true
	if paper.OAURL == "" {
		paper.OAURL = res.OAURL
	}
	if paper.PDFURL == "" && res.PDFURL != "" {
		paper.PDFURL = res.PDFURL
	}
}
