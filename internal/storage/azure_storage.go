package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const blobHostSuffix = ".blob.core.windows.net"

// AzureStorage fetches images from one Azure Storage account.
type AzureStorage struct {
	client   *azblob.Client
	account  string
	maxBytes int64
}

// NewAzureStorage creates a client authenticated with a shared key.
func NewAzureStorage(accountName, accountKey string, maxBytes int64) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s%s", accountName, blobHostSuffix),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating azure client: %w", err)
	}

	return &AzureStorage{client: client, account: strings.ToLower(accountName), maxBytes: maxBytes}, nil
}

// Handles reports whether blobURL points into this storage account.
func (s *AzureStorage) Handles(blobURL string) bool {
	account, _, _, err := ParseBlobURL(blobURL)
	return err == nil && account == s.account
}

// FetchImage downloads a blob addressed by its URL.
func (s *AzureStorage) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	account, container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	if account != s.account {
		return nil, fmt.Errorf("blob account %q is not configured", account)
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("blob %s/%s: %w", container, blob, ErrNotFound)
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	return readLimited(body, s.maxBytes)
}

// ParseBlobURL splits https://{account}.blob.core.windows.net/{container}/{blob}
// into its parts. The legacy form /{container}?blob={name} is accepted too.
func ParseBlobURL(blobURL string) (account, container, blob string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, blobHostSuffix) {
		return "", "", "", fmt.Errorf("not an azure blob URL: %s", host)
	}
	account = strings.TrimSuffix(host, blobHostSuffix)

	path := strings.TrimPrefix(u.Path, "/")
	if name := u.Query().Get("blob"); name != "" {
		container, blob = path, name
	} else {
		container, blob, _ = strings.Cut(path, "/")
	}
	if account == "" || container == "" || blob == "" {
		return "", "", "", fmt.Errorf("invalid blob URL: missing account, container or blob")
	}
	return account, container, blob, nil
}
