package handler

import (
	"net/http"
	"strconv"

	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	search service.SearchService
	log    *zap.Logger
}

func NewSearchHandler(search service.SearchService, log *zap.Logger) *SearchHandler {
	return &SearchHandler{search: search, log: log}
}

// Search runs the relevance-ranked search with optional quick-filters.
// GET /api/search?q=...&type=...&department=...&level=...&is_premium=...
func (h *SearchHandler) Search(c *gin.Context) {
	filters := service.SearchFilters{
		Type:       c.Query("type"),
		Department: c.Query("department"),
		Level:      c.Query("level"),
	}
	if raw := c.Query("is_premium"); raw != "" {
		premium, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_premium must be a boolean"})
			return
		}
		filters.IsPremium = &premium
	}

	results, err := h.search.Search(c.Request.Context(), optionalUserID(c), c.Query("q"), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Advanced runs the equality-filtered search.
// GET /api/search/advanced?course_code=...&department=...&level=...&type=...&q=...
func (h *SearchHandler) Advanced(c *gin.Context) {
	results, err := h.search.AdvancedSearch(c.Request.Context(), service.AdvancedCriteria{
		CourseCode: c.Query("course_code"),
		Department: c.Query("department"),
		Level:      c.Query("level"),
		Type:       c.Query("type"),
		SearchText: c.Query("q"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ByTag
// GET /api/search/tag/:tag
func (h *SearchHandler) ByTag(c *gin.Context) {
	tag := c.Param("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag is required"})
		return
	}
	results, err := h.search.SearchByTag(c.Request.Context(), optionalUserID(c), tag)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Suggestions
// GET /api/search/suggestions
func (h *SearchHandler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": h.search.Suggestions(c.Request.Context())})
}

// Trending
// GET /api/search/trending
func (h *SearchHandler) Trending(c *gin.Context) {
	results, err := h.search.Trending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "trending fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// Recent returns the authenticated user's recent search terms.
// GET /api/search/recent
func (h *SearchHandler) Recent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recents := h.search.RecentSearches(c.Request.Context(), userID.String())
	if recents == nil {
		recents = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"recent_searches": recents})
}

// ClearRecent
// DELETE /api/search/recent
func (h *SearchHandler) ClearRecent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.search.ClearRecentSearches(c.Request.Context(), userID.String())
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}
