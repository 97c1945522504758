package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"khata/internal/cache"
	"khata/internal/core"
	"khata/internal/store"
)

const (
	searchMinTermLen = 2
	searchPageSize   = 50
	searchResultCap  = 15
	searchCacheTTL   = 5 * time.Minute
	searchCacheSize  = 256
)

const (
	ResultWorker = "worker"
	ResultPair   = "pair"
)

// SearchResult is one ranked hit: a worker or a joint pair account.
type SearchResult struct {
	Type        string
	ID          string
	Name        string
	Description string
	Score       int
}

// Search is the fuzzy name index over workers and pair accounts. Results
// are cached per (org, lowercased term) for five minutes; mutating callers
// that need immediate visibility call ClearCache.
type Search struct {
	store store.Store
	cache *cache.TTLCache[[]SearchResult]
}

func NewSearch(s store.Store) *Search {
	return &Search{
		store: s,
		cache: cache.New[[]SearchResult](searchCacheSize, searchCacheTTL),
	}
}

func (s *Search) Search(ctx context.Context, org, term string) ([]SearchResult, error) {
	term = strings.TrimSpace(term)
	if len(term) < searchMinTermLen {
		return nil, nil
	}

	key := org + "\x00" + strings.ToLower(term)
	if hit, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "Search cache hit", "org", org, "term", term)
		return hit, nil
	}

	labours, err := s.store.ListLabours(ctx, store.LabourFilter{
		Org:    org,
		Status: core.StatusActive,
		Limit:  searchPageSize,
	})
	if err != nil {
		return nil, &core.DatabaseError{Op: "ListLabours", Err: err}
	}
	pairs, err := s.store.ListPairs(ctx, org)
	if err != nil {
		return nil, &core.DatabaseError{Op: "ListPairs", Err: err}
	}

	byID := make(map[string]core.Labour, len(labours))
	for _, l := range labours {
		byID[l.ID] = l
	}

	var results []SearchResult
	for _, l := range labours {
		if score := matchScore(l.Name, term); score > 0 {
			results = append(results, SearchResult{
				Type:        ResultWorker,
				ID:          l.ID,
				Name:        l.Name,
				Description: l.Code,
				Score:       score,
			})
		}
	}
	for _, p := range pairs {
		a, okA := byID[p.MemberA]
		b, okB := byID[p.MemberB]
		if !okA || !okB {
			continue
		}
		name := a.Name + " & " + b.Name
		if score := matchScore(name, term); score > 0 {
			results = append(results, SearchResult{
				Type:        ResultPair,
				ID:          p.ID,
				Name:        name,
				Description: "joint account of " + a.Code + " and " + b.Code,
				Score:       score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > searchResultCap {
		results = results[:searchResultCap]
	}

	s.cache.Set(key, results)
	return results, nil
}

// ClearCache empties the result cache unconditionally. Nothing beyond TTL
// expiry invalidates it automatically.
func (s *Search) ClearCache() {
	s.cache.Clear()
}

// matchScore ranks how well name matches term: 100 for an exact match, 90
// for a prefix, 80 for containment, otherwise a Levenshtein match accepted
// only within 30% of the term length, scored 100 minus 10 per edit.
func matchScore(name, term string) int {
	n := strings.ToLower(name)
	t := strings.ToLower(term)
	switch {
	case n == t:
		return 100
	case strings.HasPrefix(n, t):
		return 90
	case strings.Contains(n, t):
		return 80
	}

	tolerance := int(0.3 * float64(len(t)))
	best := -1
	for _, word := range strings.Fields(n) {
		d := levenshtein(word, t)
		if d <= tolerance && (best == -1 || d < best) {
			best = d
		}
	}
	if best == -1 {
		return 0
	}
	score := 100 - 10*best
	if score < 0 {
		return 0
	}
	return score
}

// levenshtein computes the edit distance with the classic two-row dynamic
// program.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
