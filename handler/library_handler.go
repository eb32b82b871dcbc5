package handler

import (
	"net/http"

	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LibraryHandler struct {
	library service.LibraryService
	log     *zap.Logger
}

func NewLibraryHandler(library service.LibraryService, log *zap.Logger) *LibraryHandler {
	return &LibraryHandler{library: library, log: log}
}

// Saved
// GET /api/library/saved
func (h *LibraryHandler) Saved(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	materials, err := h.library.SavedMaterials(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
}

// AddSaved
// POST /api/library/saved/:id
func (h *LibraryHandler) AddSaved(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.library.AddToSaved(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}

// RemoveSaved
// DELETE /api/library/saved/:id
func (h *LibraryHandler) RemoveSaved(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.library.RemoveFromSaved(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}

// Uploads returns the user's uploads with the quota numbers.
// GET /api/library/uploads
func (h *LibraryHandler) Uploads(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.library.UserUploads(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"materials":          view.Materials,
		"uploads_today":      view.UploadsToday,
		"daily_upload_limit": view.DailyLimit,
		"remaining_uploads":  h.library.RemainingUploads(view.UploadsToday, view.DailyLimit),
		"can_upload_today":   h.library.CanUploadToday(view.UploadsToday, view.DailyLimit),
	})
}

// Stats aggregates over the user's uploads.
// GET /api/library/stats
func (h *LibraryHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.library.UserUploads(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.library.Stats(view.Materials))
}
