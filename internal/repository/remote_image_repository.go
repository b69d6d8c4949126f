package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/storage"
	"go-glow-ai/pkg/validation"
)

// RemoteImageRepository validates imageUrl inputs and downloads them from
// HTTP or Azure Blob Storage.
type RemoteImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewRemoteImageRepository creates a repository. A nil validator allows any
// public http(s) host.
func NewRemoteImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) *RemoteImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &RemoteImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates and downloads imageURL.
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if r.fetcher == nil {
		return nil, ErrRepositoryUnavailable
	}
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	data, err := r.fetcher.FetchImage(ctx, strings.TrimSpace(imageURL))
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, fmt.Errorf("%w: %v", ErrImageTooLarge, err)
	case errors.Is(err, storage.ErrBlockedAddress), apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return nil, fmt.Errorf("%w: %w", ErrInvalidImageURL, err)
	case errors.Is(err, storage.ErrNotFound), err != nil && strings.Contains(err.Error(), "status code 404"):
		return nil, fmt.Errorf("%w: %v", ErrImageNotFound, err)
	case err != nil:
		return nil, err
	}
	return data, nil
}

// ValidateImageURL wraps the URL validator's error with ErrInvalidImageURL.
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImageURL, err)
	}
	return nil
}
