package storage

import (
	"context"
)

// Router sends Azure blob URLs of the configured account to Azure and
// everything else to the HTTP fetcher.
type Router struct {
	HTTP  ImageFetcher
	Azure *AzureStorage
}

func (r *Router) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if r.Azure != nil && r.Azure.Handles(imageURL) {
		return r.Azure.FetchImage(ctx, imageURL)
	}
	return r.HTTP.FetchImage(ctx, imageURL)
}
