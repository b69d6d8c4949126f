package repository

import (
	"context"
)

// ImageRepository defines the interface for remote image access
type ImageRepository interface {
	// FetchImage downloads the raw bytes of a validated image URL
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}
