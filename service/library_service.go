package service

import (
	"context"
	"errors"
	"time"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadStats are derived from the current uploads list. Pure, no I/O.
type UploadStats struct {
	TotalUploads  int   `json:"total_uploads"`
	TotalLikes    int64 `json:"total_likes"`
	ApprovedCount int   `json:"approved_count"`
	PendingCount  int   `json:"pending_count"`
}

// UploadsView is the hydrated "my uploads" page: the resolved materials plus
// the quota numbers derived from them.
type UploadsView struct {
	Materials    []*models.Material `json:"materials"`
	UploadsToday int                `json:"uploads_today"`
	DailyLimit   int                `json:"daily_upload_limit"`
}

type LibraryService interface {
	// SavedMaterials returns the user's saved list, serving a fresh cache
	// entry when one exists and refreshing from the database in the
	// background in that case.
	SavedMaterials(ctx context.Context, userID uuid.UUID) ([]*models.Material, error)
	UserUploads(ctx context.Context, userID uuid.UUID) (*UploadsView, error)
	AddToSaved(ctx context.Context, userID uuid.UUID, materialID string) error
	RemoveFromSaved(ctx context.Context, userID uuid.UUID, materialID string) error
	Stats(uploads []*models.Material) UploadStats
	CanUploadToday(uploadsToday, dailyLimit int) bool
	RemainingUploads(uploadsToday, dailyLimit int) int
	// Reset drops the user's cached library entries.
	Reset(ctx context.Context, userID uuid.UUID)
}

type LibraryServiceImpl struct {
	users     repository.UserRepository
	materials repository.MaterialRepository
	cache     *cache.LibraryCache
	log       *zap.Logger
}

func NewLibraryService(users repository.UserRepository, materials repository.MaterialRepository, libCache *cache.LibraryCache, log *zap.Logger) LibraryService {
	return &LibraryServiceImpl{users: users, materials: materials, cache: libCache, log: log}
}

func (s *LibraryServiceImpl) SavedMaterials(ctx context.Context, userID uuid.UUID) ([]*models.Material, error) {
	var cached []*models.Material
	if s.cache.Get(ctx, userID.String(), cache.CategorySavedMaterials, &cached) {
		go s.refreshSaved(userID)
		return cached, nil
	}
	return s.loadSaved(ctx, userID)
}

func (s *LibraryServiceImpl) loadSaved(ctx context.Context, userID uuid.UUID) ([]*models.Material, error) {
	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache.Set(ctx, userID.String(), cache.CategorySavedMaterials, []*models.Material{})
		return []*models.Material{}, nil
	}
	if err != nil {
		return nil, err
	}

	materials, err := s.resolveMaterials(ctx, user.SavedMaterials)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, userID.String(), cache.CategorySavedMaterials, materials)
	return materials, nil
}

func (s *LibraryServiceImpl) refreshSaved(userID uuid.UUID) {
	if _, err := s.loadSaved(context.Background(), userID); err != nil {
		s.log.Warn("background saved refresh failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *LibraryServiceImpl) UserUploads(ctx context.Context, userID uuid.UUID) (*UploadsView, error) {
	var cached []*models.Material
	if s.cache.Get(ctx, userID.String(), cache.CategoryUserUploads, &cached) {
		view := &UploadsView{
			Materials:    cached,
			UploadsToday: 0,
			DailyLimit:   models.DefaultDailyUploadLimit,
		}
		var today int
		if s.cache.Get(ctx, userID.String(), cache.CategoryUploadsToday, &today) {
			view.UploadsToday = today
		}
		var limit int
		if s.cache.Get(ctx, userID.String(), cache.CategoryDailyLimit, &limit) && limit > 0 {
			view.DailyLimit = limit
		}
		go s.refreshUploads(userID)
		return view, nil
	}
	return s.loadUploads(ctx, userID)
}

func (s *LibraryServiceImpl) loadUploads(ctx context.Context, userID uuid.UUID) (*UploadsView, error) {
	view := &UploadsView{
		Materials:  []*models.Material{},
		DailyLimit: models.DefaultDailyUploadLimit,
	}

	user, err := s.users.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.writeUploadsCache(ctx, userID, view)
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	if user.DailyUploadLimit > 0 {
		view.DailyLimit = user.DailyUploadLimit
	}

	materials, err := s.resolveMaterials(ctx, user.Uploads)
	if err != nil {
		return nil, err
	}
	view.Materials = materials
	view.UploadsToday = countToday(materials, time.Now())

	s.writeUploadsCache(ctx, userID, view)
	return view, nil
}

func (s *LibraryServiceImpl) refreshUploads(userID uuid.UUID) {
	if _, err := s.loadUploads(context.Background(), userID); err != nil {
		s.log.Warn("background uploads refresh failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *LibraryServiceImpl) writeUploadsCache(ctx context.Context, userID uuid.UUID, view *UploadsView) {
	s.cache.Set(ctx, userID.String(), cache.CategoryUserUploads, view.Materials)
	s.cache.Set(ctx, userID.String(), cache.CategoryUploadsToday, view.UploadsToday)
	s.cache.Set(ctx, userID.String(), cache.CategoryDailyLimit, view.DailyLimit)
}

// resolveMaterials hydrates an id list via point reads, dropping ids that no
// longer resolve.
func (s *LibraryServiceImpl) resolveMaterials(ctx context.Context, ids []string) ([]*models.Material, error) {
	materials := make([]*models.Material, 0, len(ids))
	for _, id := range ids {
		mid, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		m, err := s.materials.GetByID(mid)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, nil
}

func (s *LibraryServiceImpl) AddToSaved(ctx context.Context, userID uuid.UUID, materialID string) error {
	if err := s.users.AddSaved(userID, materialID); err != nil {
		return err
	}
	// Addition re-fetches rather than optimistically inserting.
	s.cache.Delete(ctx, userID.String(), cache.CategorySavedMaterials)
	_, err := s.loadSaved(ctx, userID)
	return err
}

func (s *LibraryServiceImpl) RemoveFromSaved(ctx context.Context, userID uuid.UUID, materialID string) error {
	if err := s.users.RemoveSaved(userID, materialID); err != nil {
		return err
	}

	// Removal updates the cached list immediately after the confirmed write.
	var cached []*models.Material
	if s.cache.Get(ctx, userID.String(), cache.CategorySavedMaterials, &cached) {
		updated := make([]*models.Material, 0, len(cached))
		for _, m := range cached {
			if m.ID.String() == materialID {
				continue
			}
			updated = append(updated, m)
		}
		s.cache.Set(ctx, userID.String(), cache.CategorySavedMaterials, updated)
	}
	return nil
}

func (s *LibraryServiceImpl) Stats(uploads []*models.Material) UploadStats {
	stats := UploadStats{TotalUploads: len(uploads)}
	for _, m := range uploads {
		stats.TotalLikes += m.Likes
		if m.IsApproved {
			stats.ApprovedCount++
		} else {
			stats.PendingCount++
		}
	}
	return stats
}

func (s *LibraryServiceImpl) CanUploadToday(uploadsToday, dailyLimit int) bool {
	return uploadsToday < dailyLimit
}

func (s *LibraryServiceImpl) RemainingUploads(uploadsToday, dailyLimit int) int {
	remaining := dailyLimit - uploadsToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *LibraryServiceImpl) Reset(ctx context.Context, userID uuid.UUID) {
	s.cache.Clear(ctx, userID.String())
}

// countToday buckets on the metadata upload timestamp against the local
// calendar day (midnight-aligned).
func countToday(materials []*models.Material, now time.Time) int {
	y, m, d := now.Local().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	count := 0
	for _, material := range materials {
		meta := material.Metadata.Data()
		if meta.UploadedAt == "" {
			continue
		}
		uploaded, err := time.Parse(time.RFC3339, meta.UploadedAt)
		if err != nil {
			continue
		}
		uy, um, ud := uploaded.Local().Date()
		if time.Date(uy, um, ud, 0, 0, 0, 0, time.Local).Equal(midnight) {
			count++
		}
	}
	return count
}
