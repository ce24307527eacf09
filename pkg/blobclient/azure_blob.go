package blobclient

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
)

// AzureBlobClient implements BlobClient using Azure Blob Storage.
type AzureBlobClient struct {
	client      *azblob.Client
	logger      logging.Logger
	accountName string
}

// NewAzureBlobClient creates a new Azure Blob Storage client. Without an
// account key the default Azure credential chain is used.
func NewAzureBlobClient(accountName, accountKey string, logger logging.Logger) (*AzureBlobClient, error) {
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	var client *azblob.Client
	if accountKey == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	} else {
		cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
	}

	return &AzureBlobClient{
		client:      client,
		logger:      logger,
		accountName: accountName,
	}, nil
}

// Upload streams data to Azure Blob Storage.
func (a *AzureBlobClient) Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (string, error) {
	logger := a.logger.With(
		logging.NewField("operation", "blob.upload"),
		logging.NewField("container", container),
		logging.NewField("blob", blobName),
	)

	// the container usually exists already; a conflict here is expected
	if _, err := a.client.CreateContainer(ctx, container, nil); err != nil {
		logger.Debug("Container create result (may already exist)", logging.NewField("error", err.Error()))
	}

	uploadOptions := &azblob.UploadStreamOptions{}
	if opts.ContentType != "" {
		contentType := opts.ContentType
		uploadOptions.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if len(opts.Metadata) > 0 {
		uploadOptions.Metadata = make(map[string]*string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			v := v
			uploadOptions.Metadata[k] = &v
		}
	}

	if _, err := a.client.UploadStream(ctx, container, blobName, data, uploadOptions); err != nil {
		logger.Error("Failed to upload blob", logging.NewField("error", err))
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	url := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", a.accountName, container, blobName)
	logger.Info("Blob upload successful", logging.NewField("url", url))

	return url, nil
}

// Get downloads a blob from Azure Blob Storage.
func (a *AzureBlobClient) Get(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	resp, err := a.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		a.logger.Error("Failed to download blob",
			logging.NewField("container", container),
			logging.NewField("blob", blobName),
			logging.NewField("error", err),
		)
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}
