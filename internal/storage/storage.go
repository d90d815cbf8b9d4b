package storage

import (
	"context"
	"io"
)

// Driver abstracts where uploaded images live. The application only keeps
// the public URL a driver returns; swapping backends never touches stored
// records.
type Driver interface {
	// Upload stores the file under key and returns its public URL.
	Upload(ctx context.Context, file io.Reader, key string) (string, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the public URL for an already-stored key.
	PublicURL(key string) string
}

// Config holds the storage configuration
type Config struct {
	Driver string // local, s3, r2

	// Local storage
	UploadsPath string

	// AWS S3
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	AWSBucket          string

	// Cloudflare R2
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2AccountID       string
	R2Bucket          string
	R2PublicURL       string
}

// NewDriver creates a storage driver based on configuration
func NewDriver(cfg *Config) (Driver, error) {
	switch cfg.Driver {
	case "local", "":
		uploadsPath := cfg.UploadsPath
		if uploadsPath == "" {
			uploadsPath = "./uploads"
		}
		return NewLocalStorage(uploadsPath), nil

	case "s3":
		return NewS3Storage(cfg)

	case "r2":
		return NewR2Storage(cfg)

	default:
		return nil, errUnsupportedDriver(cfg.Driver)
	}
}

type errUnsupportedDriver string

func (e errUnsupportedDriver) Error() string {
	return "unsupported storage driver: " + string(e)
}
