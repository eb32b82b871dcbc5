package models

import "gorm.io/datatypes"

const DefaultDailyUploadLimit = 10

type User struct {
	Base
	Email            string                      `gorm:"uniqueIndex;not null" json:"email"`
	Password         string                      `gorm:"not null;default:''" json:"-"` // bcrypt hash, empty for federated-only accounts
	GoogleID         string                      `gorm:"index" json:"-"`
	DisplayName      string                      `json:"display_name"`
	PhotoURL         string                      `json:"photo_url"`
	University       string                      `json:"university"`
	Department       string                      `json:"department"`
	Level            string                      `json:"level"`
	Phone            string                      `json:"phone"`
	DailyUploadLimit int                         `gorm:"not null;default:10" json:"daily_upload_limit"`
	Uploads          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"uploads"`
	SavedMaterials   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"saved_materials"`
}
