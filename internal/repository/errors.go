package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the remote image does not exist
	ErrImageNotFound = errors.New("image not found")

	// ErrImageTooLarge indicates the remote image exceeds the body limit
	ErrImageTooLarge = errors.New("image too large")

	// ErrRepositoryUnavailable indicates no remote source is configured
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
