package config

import (
	"os"
	"sync"
)

var (
	blobOnce   sync.Once
	blobConfig *BlobConfig
)

// BlobConfig selects and configures the document store. Backend is either
// "minio" or "s3".
type BlobConfig struct {
	Backend    string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Region     string
	BucketName string
	UseSSL     bool
}

func GetBlobConfig() *BlobConfig {
	blobOnce.Do(func() {
		loadDotEnv()

		backend := os.Getenv("BLOB_BACKEND")
		if backend == "" {
			backend = "minio"
		}

		blobConfig = &BlobConfig{
			Backend:    backend,
			Endpoint:   os.Getenv("BLOB_ENDPOINT"),
			AccessKey:  os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey:  os.Getenv("BLOB_SECRET_KEY"),
			Region:     os.Getenv("BLOB_REGION"),
			BucketName: os.Getenv("BLOB_BUCKET_NAME"),
			UseSSL:     os.Getenv("BLOB_USE_SSL") == "true",
		}
	})
	return blobConfig
}
