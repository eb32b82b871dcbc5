package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Material types accepted by the upload form.
const (
	TypeLectureNote   = "lecture-note"
	TypeStudyMaterial = "study-material"
	TypePastQuestion  = "past-question"
)

// FileMetadata is captured at upload time and stored alongside the record.
type FileMetadata struct {
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	FileType   string `json:"file_type"`
	UploadedAt string `json:"uploaded_at"` // RFC 3339
}

type Material struct {
	Base
	CourseCode   string                           `gorm:"not null;index" json:"course_code"`
	Type         string                           `gorm:"not null" json:"type"`
	Description  string                           `gorm:"type:text" json:"description"`
	Tags         datatypes.JSONSlice[string]      `gorm:"type:jsonb" json:"tags"`
	Department   string                           `json:"department"`
	Faculty      string                           `json:"faculty"`
	Level        string                           `json:"level"`
	FileURL      string                           `json:"file_url"`
	Bucket       string                           `gorm:"not null" json:"-"`
	ObjectName   string                           `gorm:"not null" json:"file_path"`
	ThumbnailURL string                           `json:"thumbnail_url"`
	UploadedBy   uuid.UUID                        `gorm:"type:uuid;not null;index" json:"uploaded_by"`
	Likes        int64                            `gorm:"not null;default:0" json:"likes"`
	Price        int64                            `gorm:"not null;default:0" json:"price"`
	IsPremium    bool                             `gorm:"not null;default:false" json:"is_premium"`
	IsApproved   bool                             `gorm:"not null;default:false" json:"is_approved"`
	Metadata     datatypes.JSONType[FileMetadata] `gorm:"type:jsonb" json:"metadata"`
}

// Premium is derived: an explicit flag or any non-zero price marks the
// material as premium.
func (m *Material) Premium() bool {
	return m.Price > 0 || m.IsPremium
}
