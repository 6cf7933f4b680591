package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	cfg "github.com/clearhaul/docvalidator/config"
	"github.com/clearhaul/docvalidator/pkg/logger"
	"github.com/clearhaul/docvalidator/pkg/storage/minio"
	"github.com/clearhaul/docvalidator/pkg/storage/s3"
)

// Storage is the blob collaborator: submitted documents and samples are
// fetched by key, old blobs are deleted by the resubmission flow.
type Storage interface {
	// Store uploads a blob and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get fetches a blob by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a blob by key.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes blobs last modified before the threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds the storage backend configured by BLOB_BACKEND.
func NewStorage(log logger.Logger) (Storage, error) {
	blobCfg := cfg.GetBlobConfig()
	switch blobCfg.Backend {
	case "minio":
		return minio.NewClient(blobCfg, log)
	case "s3":
		return s3.NewClient(blobCfg, log)
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", blobCfg.Backend)
	}
}
