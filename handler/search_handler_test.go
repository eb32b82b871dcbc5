package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSearchService struct {
	lastTerm    string
	lastFilters service.SearchFilters
	lastUserID  string
	results     []*models.Material
}

func (f *fakeSearchService) Search(ctx context.Context, userID, term string, filters service.SearchFilters) ([]*models.Material, error) {
	f.lastUserID = userID
	f.lastTerm = term
	f.lastFilters = filters
	return f.results, nil
}

func (f *fakeSearchService) AdvancedSearch(ctx context.Context, criteria service.AdvancedCriteria) ([]*models.Material, error) {
	return f.results, nil
}

func (f *fakeSearchService) SearchByTag(ctx context.Context, userID, tag string) ([]*models.Material, error) {
	f.lastUserID = userID
	f.lastTerm = "#" + tag
	return f.results, nil
}

func (f *fakeSearchService) Suggestions(ctx context.Context) []string {
	return []string{"CSC 301"}
}

func (f *fakeSearchService) Trending(ctx context.Context) ([]*models.Material, error) {
	return f.results, nil
}

func (f *fakeSearchService) RecentSearches(ctx context.Context, userID string) []string { return nil }
func (f *fakeSearchService) AddRecentSearch(ctx context.Context, userID, term string)   {}
func (f *fakeSearchService) ClearRecentSearches(ctx context.Context, userID string)     {}

func newSearchRouter(svc service.SearchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSearchHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/search", h.Search)
	r.GET("/api/search/suggestions", h.Suggestions)
	return r
}

func TestSearchHandlerPassesFilters(t *testing.T) {
	svc := &fakeSearchService{results: []*models.Material{{CourseCode: "CSC 301"}}}
	r := newSearchRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=csc+301&type=lecture-note&is_premium=false", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csc 301", svc.lastTerm)
	assert.Equal(t, "lecture-note", svc.lastFilters.Type)
	require.NotNil(t, svc.lastFilters.IsPremium)
	assert.False(t, *svc.lastFilters.IsPremium)

	var body struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Len(t, body.Results, 1)
}

func TestSearchHandlerRejectsBadPremiumFlag(t *testing.T) {
	r := newSearchRouter(&fakeSearchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=csc&is_premium=maybe", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestionsHandler(t *testing.T) {
	r := newSearchRouter(&fakeSearchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search/suggestions", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"CSC 301"}, body.Suggestions)
}
