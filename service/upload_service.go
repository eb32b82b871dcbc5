package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/qitt/qitt-backend/events"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/pkg/metrics"
	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxFileNameLength = 80

// Precondition errors carry the exact user-facing messages.
var (
	ErrStorageNotConfigured = errors.New("Object storage is not configured")
	ErrNoFileSelected       = errors.New("No file selected")
	ErrNotAuthenticated     = errors.New("User not authenticated")
)

// QuotaError blocks an upload before any storage call is made.
type QuotaError struct {
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("Daily upload limit reached (%d). Try again tomorrow.", e.Limit)
}

// UploadResult reports a completed upload.
type UploadResult struct {
	MaterialID string `json:"material_id"`
	FileURL    string `json:"file_url"`
}

// UploadState is the observable progress of a user's in-flight upload.
type UploadState struct {
	Progress  int    `json:"progress"`
	Uploading bool   `json:"uploading"`
	Error     string `json:"error,omitempty"`
}

type UploadService interface {
	// Upload runs the multi-step save sequence: preconditions, quota gate,
	// object upload with progress, record creation, async thumbnail job,
	// owner-list append.
	Upload(ctx context.Context, userID uuid.UUID, draft *Draft) (*UploadResult, error)
	// Progress reports the current upload state for the user.
	Progress(userID uuid.UUID) UploadState
}

type UploadServiceImpl struct {
	materials repository.MaterialRepository
	users     repository.UserRepository
	store     storage.ObjectStore
	publisher events.Publisher
	log       *zap.Logger

	mu     sync.Mutex
	states map[uuid.UUID]*UploadState
}

func NewUploadService(materials repository.MaterialRepository, users repository.UserRepository, store storage.ObjectStore, publisher events.Publisher, log *zap.Logger) *UploadServiceImpl {
	return &UploadServiceImpl{
		materials: materials,
		users:     users,
		store:     store,
		publisher: publisher,
		log:       log,
		states:    make(map[uuid.UUID]*UploadState),
	}
}

func (s *UploadServiceImpl) Progress(userID uuid.UUID) UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[userID]; ok {
		return *st
	}
	return UploadState{}
}

func (s *UploadServiceImpl) setState(userID uuid.UUID, update func(*UploadState)) {
	s.mu.Lock()
	st, ok := s.states[userID]
	if !ok {
		st = &UploadState{}
		s.states[userID] = st
	}
	update(st)
	s.mu.Unlock()
}

func (s *UploadServiceImpl) Upload(ctx context.Context, userID uuid.UUID, draft *Draft) (*UploadResult, error) {
	if s.store == nil {
		return s.fail(userID, draft, ErrStorageNotConfigured)
	}
	if draft.File == nil {
		return s.fail(userID, draft, ErrNoFileSelected)
	}
	if userID == uuid.Nil {
		return s.fail(userID, draft, ErrNotAuthenticated)
	}

	// Quota gate, calendar-day bucketed. Best effort: a failed profile read
	// does not block the upload.
	if err := s.checkQuota(userID); err != nil {
		return s.fail(userID, draft, err)
	}

	s.setState(userID, func(st *UploadState) {
		st.Uploading = true
		st.Progress = 0
		st.Error = ""
	})

	file := draft.File
	niceName := sanitizeFileName(file.Name, time.Now())
	objectName := fmt.Sprintf("materials/%s/%d_%s", sanitizeNamespace(draft.Faculty), time.Now().UnixMilli(), niceName)

	err := s.store.Upload(ctx, objectName, file.Reader, file.Size, contentTypeFor(file), func(pct int) {
		s.setState(userID, func(st *UploadState) {
			if pct > st.Progress {
				st.Progress = pct
			}
		})
	})
	if err != nil {
		return s.fail(userID, draft, mapStorageError(err))
	}

	fileURL, err := s.store.ResolveURL(ctx, objectName)
	if err != nil {
		return s.fail(userID, draft, mapStorageError(err))
	}

	material := &models.Material{
		CourseCode:  draft.CourseCode,
		Type:        draft.Type,
		Description: draft.Description,
		Tags:        draft.Tags,
		Department:  draft.Department,
		Faculty:     draft.Faculty,
		Level:       draft.Level,
		FileURL:     fileURL,
		Bucket:      s.store.Bucket(),
		ObjectName:  objectName,
		UploadedBy:  userID,
		Likes:       0,
		Price:       draft.Price,
		IsApproved:  false,
	}
	material.Metadata = datatypes.NewJSONType(models.FileMetadata{
		FileName:   niceName,
		FileSize:   file.Size,
		FileType:   contentTypeFor(file),
		UploadedAt: time.Now().Format(time.RFC3339),
	})
	if err := s.materials.Create(material); err != nil {
		return s.fail(userID, draft, err)
	}

	// Thumbnails are generated asynchronously for PDFs only; a failed
	// publish never fails the upload.
	if isPDF(file) && s.publisher != nil {
		job := events.ThumbnailJob{
			MaterialID: material.ID.String(),
			UserID:     userID.String(),
			ObjectName: objectName,
			CourseCode: material.CourseCode,
			Type:       material.Type,
		}
		if err := s.publisher.PublishMaterialUploaded(ctx, job); err != nil {
			s.log.Warn("failed to publish thumbnail job", zap.String("material_id", job.MaterialID), zap.Error(err))
		}
	}

	// The material exists even if the owner-list append fails.
	if err := s.users.AppendUpload(userID, material.ID.String()); err != nil {
		s.log.Error("failed to append material to user uploads", zap.String("material_id", material.ID.String()), zap.Error(err))
	}

	s.setState(userID, func(st *UploadState) {
		st.Uploading = false
		st.Progress = 100
		st.Error = ""
	})
	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	return &UploadResult{MaterialID: material.ID.String(), FileURL: fileURL}, nil
}

func (s *UploadServiceImpl) checkQuota(userID uuid.UUID) error {
	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("quota check skipped, profile read failed", zap.Error(err))
		return nil
	}

	limit := user.DailyUploadLimit
	if limit <= 0 {
		limit = models.DefaultDailyUploadLimit
	}

	y, m, d := time.Now().Local().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	count, err := s.materials.CountByUploaderSince(userID, midnight)
	if err != nil {
		s.log.Warn("quota check skipped, count failed", zap.Error(err))
		return nil
	}
	if count >= int64(limit) {
		return &QuotaError{Limit: limit}
	}
	return nil
}

// fail records the terminal error state: progress resets, uploading clears.
func (s *UploadServiceImpl) fail(userID uuid.UUID, draft *Draft, err error) (*UploadResult, error) {
	msg := err.Error()
	draft.LastError = msg
	if userID != uuid.Nil {
		s.setState(userID, func(st *UploadState) {
			st.Uploading = false
			st.Progress = 0
			st.Error = msg
		})
	}
	metrics.UploadsTotal.WithLabelValues("error").Inc()
	return nil, err
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnauthorized):
		return errors.New("Storage access denied. Check storage access rules.")
	case errors.Is(err, storage.ErrCanceled), errors.Is(err, context.Canceled):
		return errors.New("Upload was cancelled.")
	case errors.Is(err, storage.ErrUnknown):
		return errors.New("Unknown error. Check storage configuration.")
	}
	return err
}

var unsafeChars = regexp.MustCompile(`[^\w\- ]+`)

// sanitizeFileName strips the name to a safe character subset, caps its
// length, and falls back to a timestamp-based name when nothing is left.
func sanitizeFileName(name string, now time.Time) string {
	ext := ""
	base := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i+1:]
		base = name[:i]
	}

	base = unsafeChars.ReplaceAllString(base, "_")
	if len(base) > maxFileNameLength {
		base = base[:maxFileNameLength]
	}
	if base == "" {
		base = fmt.Sprintf("file_%d", now.UnixMilli())
	}
	if ext != "" {
		return base + "." + ext
	}
	return base
}

func sanitizeNamespace(faculty string) string {
	ns := strings.ToLower(strings.TrimSpace(faculty))
	if ns == "" {
		return "general"
	}
	return unsafeChars.ReplaceAllString(ns, "_")
}

func contentTypeFor(file *FileInput) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func isPDF(file *FileInput) bool {
	return file.ContentType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(file.Name), ".pdf")
}
