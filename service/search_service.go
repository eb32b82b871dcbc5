package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/pkg/metrics"
	"github.com/qitt/qitt-backend/repository"

	"go.uber.org/zap"
)

const (
	searchCandidateLimit = 100
	suggestionLimit      = 5
	trendingLimit        = 20
	recentSearchLimit    = 10

	recentSearchKeyPrefix = "qitt_recent_searches_"
)

// Shown when the top-liked query cannot be served.
var defaultSuggestions = []string{"CSC 301", "MAT 137", "PHY 151", "ECO 101", "CSC 209"}

// SearchFilters are the structural quick-filters applied after the text
// match. Empty string / nil means not active.
type SearchFilters struct {
	Type       string
	Department string
	Level      string
	IsPremium  *bool
}

// AdvancedCriteria drives the equality-filtered advanced search.
type AdvancedCriteria struct {
	CourseCode string
	Department string
	Level      string
	Type       string
	SearchText string
}

type SearchService interface {
	// Search runs the relevance-ranked full-text search. An empty term (after
	// trimming) returns no results and performs no repository call. The raw
	// term is recorded in the user's recent-search history when userID is set.
	Search(ctx context.Context, userID, term string, filters SearchFilters) ([]*models.Material, error)
	AdvancedSearch(ctx context.Context, criteria AdvancedCriteria) ([]*models.Material, error)
	SearchByTag(ctx context.Context, userID, tag string) ([]*models.Material, error)
	Suggestions(ctx context.Context) []string
	Trending(ctx context.Context) ([]*models.Material, error)
	RecentSearches(ctx context.Context, userID string) []string
	AddRecentSearch(ctx context.Context, userID, term string)
	ClearRecentSearches(ctx context.Context, userID string)
}

type SearchServiceImpl struct {
	repo repository.MaterialRepository
	kv   cache.KV
	log  *zap.Logger
}

func NewSearchService(repo repository.MaterialRepository, kv cache.KV, log *zap.Logger) SearchService {
	return &SearchServiceImpl{repo: repo, kv: kv, log: log}
}

func (s *SearchServiceImpl) Search(ctx context.Context, userID, term string, filters SearchFilters) ([]*models.Material, error) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return []*models.Material{}, nil
	}

	candidates, err := s.repo.ListRecent(searchCandidateLimit)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("fulltext", "error").Inc()
		s.log.Error("search fetch failed", zap.Error(err))
		return nil, err
	}

	results := make([]*models.Material, 0, len(candidates))
	for _, m := range candidates {
		if !matchesQuery(m, normalized) {
			continue
		}
		if !filters.match(m) {
			continue
		}
		results = append(results, m)
	}

	// Stable sort keeps fetch order as the tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return RelevanceScore(results[i], normalized) > RelevanceScore(results[j], normalized)
	})

	s.AddRecentSearch(ctx, userID, term)
	metrics.SearchesTotal.WithLabelValues("fulltext", "ok").Inc()
	return results, nil
}

func (s *SearchServiceImpl) AdvancedSearch(ctx context.Context, criteria AdvancedCriteria) ([]*models.Material, error) {
	materials, err := s.repo.ByCriteria(repository.SearchCriteria{
		CourseCode: strings.ToUpper(criteria.CourseCode),
		Department: criteria.Department,
		Level:      criteria.Level,
		Type:       criteria.Type,
	})
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("advanced", "error").Inc()
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(criteria.SearchText))
	if text == "" {
		metrics.SearchesTotal.WithLabelValues("advanced", "ok").Inc()
		return materials, nil
	}

	results := make([]*models.Material, 0, len(materials))
	for _, m := range materials {
		fields := []string{strings.ToLower(m.CourseCode), strings.ToLower(m.Description)}
		for _, tag := range m.Tags {
			fields = append(fields, strings.ToLower(tag))
		}
		if strings.Contains(strings.Join(fields, " "), text) {
			results = append(results, m)
		}
	}
	metrics.SearchesTotal.WithLabelValues("advanced", "ok").Inc()
	return results, nil
}

func (s *SearchServiceImpl) SearchByTag(ctx context.Context, userID, tag string) ([]*models.Material, error) {
	materials, err := s.repo.ByTag(tag)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("tag", "error").Inc()
		return nil, err
	}
	s.AddRecentSearch(ctx, userID, "#"+tag)
	metrics.SearchesTotal.WithLabelValues("tag", "ok").Inc()
	return materials, nil
}

func (s *SearchServiceImpl) Suggestions(ctx context.Context) []string {
	top, err := s.repo.TopByLikes(suggestionLimit)
	if err != nil {
		s.log.Warn("suggestion fetch failed, using defaults", zap.Error(err))
		return defaultSuggestions
	}

	seen := make(map[string]bool, len(top))
	suggestions := make([]string, 0, suggestionLimit)
	for _, m := range top {
		if m.CourseCode == "" || seen[m.CourseCode] {
			continue
		}
		seen[m.CourseCode] = true
		suggestions = append(suggestions, m.CourseCode)
		if len(suggestions) == suggestionLimit {
			break
		}
	}
	return suggestions
}

func (s *SearchServiceImpl) Trending(ctx context.Context) ([]*models.Material, error) {
	return s.repo.TopByLikes(trendingLimit)
}

func (s *SearchServiceImpl) RecentSearches(ctx context.Context, userID string) []string {
	if userID == "" {
		return nil
	}
	raw, err := s.kv.Get(ctx, recentSearchKeyPrefix+userID)
	if err != nil {
		return nil
	}
	var recents []string
	if err := json.Unmarshal([]byte(raw), &recents); err != nil {
		// Malformed history is dropped, not surfaced.
		return nil
	}
	return recents
}

func (s *SearchServiceImpl) AddRecentSearch(ctx context.Context, userID, term string) {
	trimmed := strings.TrimSpace(term)
	if userID == "" || trimmed == "" {
		return
	}

	recents := s.RecentSearches(ctx, userID)
	updated := make([]string, 0, recentSearchLimit)
	updated = append(updated, trimmed)
	for _, r := range recents {
		if r == trimmed {
			continue
		}
		updated = append(updated, r)
		if len(updated) == recentSearchLimit {
			break
		}
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, recentSearchKeyPrefix+userID, string(raw), 0); err != nil {
		s.log.Warn("failed to persist recent searches", zap.Error(err))
	}
}

func (s *SearchServiceImpl) ClearRecentSearches(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	_ = s.kv.Del(ctx, recentSearchKeyPrefix+userID)
}

// matchesQuery checks the normalized query against the concatenation of the
// searchable fields, all lower-cased.
func matchesQuery(m *models.Material, normalized string) bool {
	fields := []string{
		strings.ToLower(m.CourseCode),
		strings.ToLower(m.Description),
		strings.ToLower(m.Department),
		strings.ToLower(m.Faculty),
		strings.ToLower(m.Type),
	}
	for _, tag := range m.Tags {
		fields = append(fields, strings.ToLower(tag))
	}
	return strings.Contains(strings.Join(fields, " "), normalized)
}

func (f SearchFilters) match(m *models.Material) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Department != "" && m.Department != f.Department {
		return false
	}
	if f.Level != "" && m.Level != f.Level {
		return false
	}
	if f.IsPremium != nil && m.Premium() != *f.IsPremium {
		return false
	}
	return true
}
