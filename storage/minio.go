package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/qitt/qitt-backend/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 7 * 24 * time.Hour

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinIO.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinIO.BucketName, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.MinIO.BucketName}, nil
}

func (s *MinioStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string, progress ProgressFunc) error {
	body := io.Reader(r)
	if progress != nil {
		body = newProgressReader(r, size, progress)
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return mapMinioError(err)
	}
	return nil
}

func (s *MinioStore) Bucket() string { return s.bucket }

func (s *MinioStore) ResolveURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

func mapMinioError(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied":
		return ErrUnauthorized
	case "InternalError":
		return ErrUnknown
	}
	return err
}
