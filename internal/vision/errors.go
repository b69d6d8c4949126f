package vision

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/request"
)

// Categorize maps a provider failure onto an upstream AppError whose user
// message depends on the failure class: quota, unusable input or a generic
// service error. Status codes take precedence over error text.
func Categorize(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return apperrors.NewUpstreamError("API Key configuration error", apperrors.MsgServiceFailure, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUpstreamError("vision provider timed out", apperrors.MsgServiceFailure, err)
	case errors.Is(err, ErrInvalidEnvelope), errors.Is(err, ErrEmptyContent):
		return apperrors.NewUpstreamError("Invalid response from AI provider", apperrors.MsgServiceFailure, err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apperrors.NewUpstreamError("vision provider blocked the request", apperrors.MsgBadInput, err)
	}

	var statusErr *request.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return apperrors.NewUpstreamError("vision provider quota exceeded", apperrors.MsgQuotaExceeded, err)
		case statusErr.StatusCode == http.StatusBadRequest || statusErr.StatusCode == http.StatusUnprocessableEntity:
			return apperrors.NewUpstreamError("vision provider rejected the input", apperrors.MsgBadInput, err)
		case containsAny(strings.ToLower(string(statusErr.Body)), "quota", "rate limit"):
			return apperrors.NewUpstreamError("vision provider quota exceeded", apperrors.MsgQuotaExceeded, err)
		}
		return apperrors.NewUpstreamError("vision provider failed", apperrors.MsgServiceFailure, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "429", "rate limit", "rate_limit", "ratelimit", "resource_exhausted", "resourceexhausted"):
		return apperrors.NewUpstreamError("vision provider quota exceeded", apperrors.MsgQuotaExceeded, err)
	case containsAny(msg, "400", "invalid"):
		return apperrors.NewUpstreamError("vision provider rejected the input", apperrors.MsgBadInput, err)
	}
	return apperrors.NewUpstreamError("vision provider failed", apperrors.MsgServiceFailure, err)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
