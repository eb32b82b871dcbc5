package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MaterialHandler struct {
	materials repository.MaterialRepository
	uploads   service.UploadService
	log       *zap.Logger
}

func NewMaterialHandler(materials repository.MaterialRepository, uploads service.UploadService, log *zap.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, uploads: uploads, log: log}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// List pages through the catalog.
// GET /api/materials?limit=...&offset=...
func (h *MaterialHandler) List(c *gin.Context) {
	limit, err := positiveIntQuery(c, "limit", defaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := positiveIntQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	materials, err := h.materials.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// Get
// GET /api/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material id"})
		return
	}
	material, err := h.materials.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "material not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

// Like
// POST /api/materials/:id/like
func (h *MaterialHandler) Like(c *gin.Context) {
	h.adjustLikes(c, h.materials.IncrementLikes)
}

// Unlike
// DELETE /api/materials/:id/like
func (h *MaterialHandler) Unlike(c *gin.Context) {
	h.adjustLikes(c, h.materials.DecrementLikes)
}

func (h *MaterialHandler) adjustLikes(c *gin.Context, adjust func(uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material id"})
		return
	}
	if err := adjust(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed", "detail": err.Error()})
		return
	}
	material, err := h.materials.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "material not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"material": material})
}

// Upload accepts the multipart upload form and runs the full save sequence.
// POST /api/materials/upload
func (h *MaterialHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	draft := &service.Draft{
		CourseCode:  strings.TrimSpace(c.PostForm("course_code")),
		Type:        c.PostForm("type"),
		Description: strings.TrimSpace(c.PostForm("description")),
		Department:  c.PostForm("department"),
		Faculty:     c.PostForm("faculty"),
		Level:       c.PostForm("level"),
	}
	if draft.CourseCode == "" || draft.Type == "" || draft.Description == "" ||
		draft.Department == "" || draft.Level == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_code, type, description, department and level are required"})
		return
	}
	if raw := c.PostForm("price"); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative integer"})
			return
		}
		draft.Price = price
	}
	for _, tag := range strings.Split(c.PostForm("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			draft.AddTag(tag)
		}
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required", "detail": err.Error()})
		return
	}
	defer file.Close()

	draft.SetFile(&service.FileInput{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	})

	h.log.Info("upload request",
		zap.String("user_id", userID.String()),
		zap.String("course_code", draft.CourseCode),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	result, err := h.uploads.Upload(c.Request.Context(), userID, draft)
	if err != nil {
		h.uploadFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"material_id": result.MaterialID,
		"file_url":    result.FileURL,
	})
}

// Progress reports the state of the user's in-flight upload.
// GET /api/materials/upload/progress
func (h *MaterialHandler) Progress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.uploads.Progress(userID))
}

func (h *MaterialHandler) uploadFailure(c *gin.Context, err error) {
	var quotaErr *service.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoFileSelected),
		errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrStorageNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
