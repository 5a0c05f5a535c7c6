package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for a MinIO (or S3-compatible)
// object store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// MinioBlobStore is a BlobStore backed by a MinIO bucket. Metadata travels as
// object user metadata so no separate index is needed.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists.
func NewMinioBlobStore(ctx context.Context, cfg MinioConfig) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioBlobStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioBlobStore) Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}
	meta.ID = uuid.New().String()
	if meta.Key == "" {
		meta.Key = meta.ID
	}
	meta.CreatedAt = time.Now().UTC()

	info, err := s.client.PutObject(ctx, s.bucket, meta.Key, io.LimitReader(content, MaxFileSize), -1,
		minio.PutObjectOptions{
			ContentType: meta.ContentType,
			UserMetadata: map[string]string{
				"file-name":    meta.FileName,
				"expedient-id": meta.ExpedientID,
				"category":     meta.Category,
				"created-by":   meta.CreatedBy,
			},
		})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", meta.Key, err)
	}

	meta.Size = info.Size
	meta.Hash = info.ETag
	out := meta
	return &out, nil
}

func (s *MinioBlobStore) Download(ctx context.Context, key string) (io.ReadCloser, *BlobMetadata, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return obj, metaFromObjectInfo(key, stat), nil
}

func (s *MinioBlobStore) GetMetadata(ctx context.Context, key string) (*BlobMetadata, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return metaFromObjectInfo(key, stat), nil
}

func (s *MinioBlobStore) Delete(ctx context.Context, key string) error {
	// RemoveObject is a no-op for a missing key; confirm existence first so
	// callers get ErrBlobNotFound like the in-memory store reports.
	if _, err := s.GetMetadata(ctx, key); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func metaFromObjectInfo(key string, stat minio.ObjectInfo) *BlobMetadata {
	meta := &BlobMetadata{
		ID:          key,
		Key:         key,
		ContentType: stat.ContentType,
		Size:        stat.Size,
		Hash:        stat.ETag,
		CreatedAt:   stat.LastModified,
		FileName:    stat.UserMetadata["File-Name"],
		ExpedientID: stat.UserMetadata["Expedient-Id"],
		Category:    stat.UserMetadata["Category"],
		CreatedBy:   stat.UserMetadata["Created-By"],
	}
	if meta.FileName == "" {
		meta.FileName = key
	}
	return meta
}
