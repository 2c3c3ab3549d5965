package output

import "context"

// ObjectStorage defines the secondary port for delivering finished
// containers to object storage.
type ObjectStorage interface {
	// Upload copies a local file to the storage backend under key.
	Upload(ctx context.Context, localPath, key string) error

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeLocal StorageType = "local"
)
