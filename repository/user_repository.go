package repository

import (
	"errors"
	"slices"

	"github.com/qitt/qitt-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByEmail(email string) (*models.User, error)
	GetByGoogleID(googleID string) (*models.User, error)
	// AppendUpload adds a material id to the user's uploads list. A missing
	// profile row is created with defaults, duplicate ids are not appended.
	AppendUpload(userID uuid.UUID, materialID string) error
	// AddSaved / RemoveSaved are set-union / set-difference on the saved
	// list. Both are idempotent.
	AddSaved(userID uuid.UUID, materialID string) error
	RemoveSaved(userID uuid.UUID, materialID string) error
}

type UserRepositoryImpl struct {
	*BaseRepositoryImpl[models.User]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.User](db),
	}
}

func (r *UserRepositoryImpl) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) GetByGoogleID(googleID string) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, "google_id = ?", googleID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) AppendUpload(userID uuid.UUID, materialID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Base:             models.Base{ID: userID},
				DailyUploadLimit: models.DefaultDailyUploadLimit,
				Uploads:          []string{materialID},
				SavedMaterials:   []string{},
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		if slices.Contains(user.Uploads, materialID) {
			return nil
		}
		user.Uploads = append(user.Uploads, materialID)
		return tx.Model(&user).Update("uploads", user.Uploads).Error
	})
}

func (r *UserRepositoryImpl) AddSaved(userID uuid.UUID, materialID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error
		if err != nil {
			return err
		}
		if slices.Contains(user.SavedMaterials, materialID) {
			return nil
		}
		user.SavedMaterials = append(user.SavedMaterials, materialID)
		return tx.Model(&user).Update("saved_materials", user.SavedMaterials).Error
	})
}

func (r *UserRepositoryImpl) RemoveSaved(userID uuid.UUID, materialID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error
		if err != nil {
			return err
		}
		idx := slices.Index(user.SavedMaterials, materialID)
		if idx < 0 {
			return nil
		}
		user.SavedMaterials = slices.Delete(user.SavedMaterials, idx, idx+1)
		return tx.Model(&user).Update("saved_materials", user.SavedMaterials).Error
	})
}
