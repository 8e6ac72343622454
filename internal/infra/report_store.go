package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jourdash/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReportStore persists generated report files under a relative key.
type ReportStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewReportStore picks MinIO when an endpoint is configured, else the local directory.
func NewReportStore(ctx context.Context, cfg *config.Config) (ReportStore, error) {
	if cfg.UseMinIO() {
		return NewMinIOReportStore(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
	}
	return NewLocalReportStore(cfg.ReportStoragePath)
}

// ── Local directory ──────────────────────────────────────────────────────────

// LocalReportStore writes reports below a base directory.
type LocalReportStore struct {
	base string
}

func NewLocalReportStore(base string) (*LocalReportStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("report store: create dir: %w", err)
	}
	return &LocalReportStore{base: base}, nil
}

func (s *LocalReportStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if strings.Contains(key, "..") || clean == "/" {
		return "", fmt.Errorf("report store: invalid key %q", key)
	}
	return filepath.Join(s.base, clean), nil
}

func (s *LocalReportStore) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *LocalReportStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// ── MinIO / S3 ───────────────────────────────────────────────────────────────

// MinIOReportStore keeps reports in an S3-compatible bucket.
type MinIOReportStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOReportStore connects and creates the bucket when it is missing.
func NewMinIOReportStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOReportStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: make bucket: %w", err)
		}
	}
	return &MinIOReportStore{client: client, bucket: bucket}, nil
}

func (s *MinIOReportStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	return err
}

func (s *MinIOReportStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key now instead of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}
