package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/user/debatecoach/internal/repair"
	"github.com/user/debatecoach/internal/types"
)

const (
	DefaultMaxResults = 8
	DefaultCacheTTL   = 30 * time.Minute
	snippetBudget     = 500
)

var _ types.SourceGatherer = (*Gatherer)(nil)

// Searcher is one source of candidates.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Candidate, error)
}

// Gatherer fans a query out to every searcher, merges the hits in searcher
// order and drops repeated URLs. Results are cached per query.
type Gatherer struct {
	searchers  []Searcher
	maxResults int
	reader     *Reader
	cache      *cache.Cache
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithMaxResults sets the overall result budget, split evenly across
// searchers.
func WithMaxResults(n int) Option {
	return func(g *Gatherer) {
		if n > 0 {
			g.maxResults = n
		}
	}
}

// WithCacheTTL sets how long a query's results are reused. Zero disables
// caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *Gatherer) {
		if ttl <= 0 {
			g.cache = nil
			return
		}
		g.cache = cache.New(ttl, 2*ttl)
	}
}

// WithEnrichment fills empty snippets by reading the page.
func WithEnrichment(r *Reader) Option {
	return func(g *Gatherer) { g.reader = r }
}

func NewGatherer(searchers []Searcher, opts ...Option) *Gatherer {
	g := &Gatherer{
		searchers:  searchers,
		maxResults: DefaultMaxResults,
		cache:      cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather returns deduplicated candidates. It fails only when every searcher
// fails.
func (g *Gatherer) Gather(ctx context.Context, query string) ([]types.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(g.searchers) == 0 {
		return []types.Candidate{}, nil
	}
	if g.cache != nil {
		if hit, ok := g.cache.Get(query); ok {
			return append([]types.Candidate(nil), hit.([]types.Candidate)...), nil
		}
	}

	limit := g.maxResults / len(g.searchers)
	if limit < 1 {
		limit = 1
	}

	results := make([][]types.Candidate, len(g.searchers))
	errs := make([]error, len(g.searchers))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range g.searchers {
		eg.Go(func() error {
			hits, err := s.Search(egCtx, query, limit)
			if err != nil {
				slog.Warn("research search failed", "searcher", s.Name(), "error", err)
				errs[i] = err
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(g.searchers) {
		return nil, fmt.Errorf("gather sources: %w", errs[0])
	}

	merged := Dedupe(results...)
	if g.reader != nil {
		g.enrich(ctx, merged)
	}
	if g.cache != nil {
		g.cache.SetDefault(query, append([]types.Candidate(nil), merged...))
	}
	return merged, nil
}

func (g *Gatherer) enrich(ctx context.Context, cands []types.Candidate) {
	var wg sync.WaitGroup
	for i := range cands {
		if cands[i].Snippet != "" {
			continue
		}
		wg.Add(1)
		go func(c *types.Candidate) {
			defer wg.Done()
			md, err := g.reader.Read(ctx, c.URL)
			if err != nil {
				slog.Debug("snippet enrichment failed", "url", c.URL, "error", err)
				return
			}
			c.Snippet = repair.Truncate(strings.Join(strings.Fields(md), " "), snippetBudget)
		}(&cands[i])
	}
	wg.Wait()
}

// Dedupe concatenates lists, keeping the first candidate for each URL and
// dropping candidates without one.
func Dedupe(lists ...[]types.Candidate) []types.Candidate {
	seen := make(map[string]bool)
	out := []types.Candidate{}
	for _, list := range lists {
		for _, c := range list {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			out = append(out, c)
		}
	}
	return out
}
