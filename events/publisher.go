package events

import "context"

// ThumbnailJob is the schema published on the material.uploaded topic and
// consumed by the thumbnailer worker.
type ThumbnailJob struct {
	MaterialID string `json:"material_id"`
	UserID     string `json:"user_id"`
	ObjectName string `json:"object_name"`
	CourseCode string `json:"course_code"`
	Type       string `json:"type"`
}

type Publisher interface {
	PublishMaterialUploaded(ctx context.Context, job ThumbnailJob) error
	Close() error
}
