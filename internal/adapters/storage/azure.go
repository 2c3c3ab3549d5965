package storage

import (
	"context"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureStorage implements ObjectStorage for Azure Blob Storage.
type AzureStorage struct {
	client    *azblob.Client
	container string
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string
	AccountName      string
	AccountKey       string
	ConnectionString string
}

// NewAzureStorage creates a new Azure Blob Storage adapter.
func NewAzureStorage(cfg AzureConfig) (*AzureStorage, error) {
	var client *azblob.Client
	var err error

	if cfg.ConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, err
		}
	} else {
		url := "https://" + cfg.AccountName + ".blob.core.windows.net/"
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		client, err = azblob.NewClientWithSharedKeyCredential(url, cred, nil)
		if err != nil {
			return nil, err
		}
	}

	return &AzureStorage{
		client:    client,
		container: cfg.Container,
	}, nil
}

// Upload copies a local file into the Azure container.
func (s *AzureStorage) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath) //#nosec G304 -- localPath is a file we exported
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = s.client.UploadFile(ctx, s.container, key, f, nil)
	return err
}

// Exists checks if a blob exists in the container.
func (s *AzureStorage) Exists(ctx context.Context, key string) (bool, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &key,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, err
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil && *blob.Name == key {
				return true, nil
			}
		}
	}
	return false, nil
}
