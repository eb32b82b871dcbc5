package repository

import (
	"encoding/json"
	"time"

	"github.com/qitt/qitt-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchCriteria carries the equality filters of an advanced search. Empty
// fields are skipped.
type SearchCriteria struct {
	CourseCode string
	Department string
	Level      string
	Type       string
}

type MaterialRepository interface {
	BaseRepository[models.Material]
	ListRecent(limit int) ([]*models.Material, error)
	ByCriteria(criteria SearchCriteria) ([]*models.Material, error)
	ByTag(tag string) ([]*models.Material, error)
	TopByLikes(limit int) ([]*models.Material, error)
	CountByUploaderSince(userID uuid.UUID, since time.Time) (int64, error)
	IncrementLikes(id uuid.UUID) error
	DecrementLikes(id uuid.UUID) error
	UpdateThumbnailURL(id uuid.UUID, url string) error
}

type MaterialRepositoryImpl struct {
	*BaseRepositoryImpl[models.Material]
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &MaterialRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Material](db),
	}
}

func (r *MaterialRepositoryImpl) ListRecent(limit int) ([]*models.Material, error) {
	var materials []*models.Material
	err := r.db.Limit(limit).Order("created_at DESC").Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) ByCriteria(criteria SearchCriteria) ([]*models.Material, error) {
	q := r.db.Model(&models.Material{})
	if criteria.CourseCode != "" {
		q = q.Where("course_code = ?", criteria.CourseCode)
	}
	if criteria.Department != "" {
		q = q.Where("department = ?", criteria.Department)
	}
	if criteria.Level != "" {
		q = q.Where("level = ?", criteria.Level)
	}
	if criteria.Type != "" {
		q = q.Where("type = ?", criteria.Type)
	}

	var materials []*models.Material
	err := q.Order("created_at DESC").Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) ByTag(tag string) ([]*models.Material, error) {
	needle, err := json.Marshal([]string{tag})
	if err != nil {
		return nil, err
	}

	var materials []*models.Material
	err = r.db.Where("tags @> ?", string(needle)).Order("created_at DESC").Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) TopByLikes(limit int) ([]*models.Material, error) {
	var materials []*models.Material
	err := r.db.Order("likes DESC").Limit(limit).Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) CountByUploaderSince(userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Material{}).
		Where("uploaded_by = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *MaterialRepositoryImpl) IncrementLikes(id uuid.UUID) error {
	return r.db.Model(&models.Material{}).Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error
}

// DecrementLikes floors at zero: the like count is never negative.
func (r *MaterialRepositoryImpl) DecrementLikes(id uuid.UUID) error {
	return r.db.Model(&models.Material{}).Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("GREATEST(likes - 1, 0)")).Error
}

func (r *MaterialRepositoryImpl) UpdateThumbnailURL(id uuid.UUID, url string) error {
	return r.db.Model(&models.Material{}).Where("id = ?", id).
		Update("thumbnail_url", url).Error
}
