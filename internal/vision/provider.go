// Package vision talks to the multimodal models that perform the
// color-season analysis.
package vision

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("vision: API key is not configured")
	// ErrInvalidEnvelope is returned when the provider reply lacks a message.
	ErrInvalidEnvelope = errors.New("vision: invalid response from provider")
	// ErrEmptyContent is returned when the model produced no text.
	ErrEmptyContent = errors.New("vision: provider returned no content")
)

// Request is a single analysis call.
type Request struct {
	// DataURI is the preprocessed JPEG as a data URI.
	DataURI string
	// JPEG is the same image as raw bytes.
	JPEG []byte
	// Note is an optional remark appended to the user prompt.
	Note string
}

// Provider performs one analysis call and returns the model's raw text
// output. Implementations never retry.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, req Request) (string, error)
}
