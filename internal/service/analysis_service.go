package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/imageprep"
	"go-glow-ai/internal/observer"
	"go-glow-ai/internal/repository"
	"go-glow-ai/internal/strategy"
	"go-glow-ai/internal/vision"
	"go-glow-ai/pkg/models"
	"go-glow-ai/pkg/validation"
)

// AnalyzeInput carries exactly one image source. Data wins over Image,
// which wins over ImageURL.
type AnalyzeInput struct {
	// Data is a raw upload (multipart form).
	Data []byte
	// Image is a data URI or raw base64.
	Image string
	// ImageURL is a remote http(s) or Azure blob URL.
	ImageURL string

	RequestID string
}

// AnalysisService turns a selfie into a validated AnalysisResult
type AnalysisService interface {
	Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResult, error)
	ProviderName() string
}

// AnalysisOptions configures NewAnalysisService.
type AnalysisOptions struct {
	Preprocess imageprep.Options
	// Timeout bounds the provider call; zero means no extra bound.
	Timeout time.Duration
}

// analysisService implements AnalysisService with a single provider call
type analysisService struct {
	provider  vision.Provider
	imageRepo repository.ImageRepository
	sanitizer *validation.Sanitizer
	policy    strategy.FailurePolicy
	events    observer.Subject
	logger    *logrus.Logger
	opts      AnalysisOptions
}

// NewAnalysisService creates a new analysis service. imageRepo may be nil,
// in which case imageUrl inputs are rejected.
func NewAnalysisService(
	provider vision.Provider,
	imageRepo repository.ImageRepository,
	sanitizer *validation.Sanitizer,
	policy strategy.FailurePolicy,
	events observer.Subject,
	logger *logrus.Logger,
	opts AnalysisOptions,
) AnalysisService {
	if sanitizer == nil {
		sanitizer = validation.NewSanitizer()
	}
	if policy == nil {
		policy = strategy.NewStrictPolicy()
	}
	if events == nil {
		events = observer.NewEventPublisher(logger)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &analysisService{
		provider:  provider,
		imageRepo: imageRepo,
		sanitizer: sanitizer,
		policy:    policy,
		events:    events,
		logger:    logger,
		opts:      opts,
	}
}

func (s *analysisService) ProviderName() string {
	return s.provider.Name()
}

// Analyze preprocesses the image, makes one provider call and sanitizes the
// reply. Upstream failures go through the failure policy; input errors never
// do.
func (s *analysisService) Analyze(ctx context.Context, in AnalyzeInput) (*models.AnalysisResult, error) {
	start := time.Now()

	data, source, err := s.loadImage(ctx, in)
	if err != nil {
		return nil, err
	}

	prepared, err := imageprep.Preprocess(data, s.opts.Preprocess)
	if err != nil {
		return nil, apperrors.NewProcessingError("Invalid image data", err)
	}
	quality := imageprep.Inspect(prepared.Image)

	base := observer.AnalysisEvent{
		RequestID: in.RequestID,
		Source:    source,
		Provider:  s.provider.Name(),
	}
	started := base
	started.EventType = observer.AnalysisStarted
	started.Metadata = map[string]interface{}{
		"width":          prepared.Width,
		"height":         prepared.Height,
		"jpeg_bytes":     len(prepared.JPEG),
		"source_format":  prepared.SourceFormat,
		"quality_issues": strings.Join(quality.Issues(), ","),
		"laplacian_var":  quality.LaplacianVar,
		"avg_luminance":  quality.AvgLuminance,
	}
	s.events.NotifyObservers(ctx, started)

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	content, err := s.provider.Analyze(callCtx, vision.Request{
		DataURI: prepared.DataURI,
		JPEG:    prepared.JPEG,
		Note:    quality.PromptNote(),
	})
	if err != nil {
		return s.fail(ctx, base, start, vision.Categorize(err))
	}

	result, substituted, err := s.sanitizer.SanitizeContent(content)
	if err != nil {
		return s.fail(ctx, base, start,
			apperrors.NewUpstreamError("Failed to parse AI response", apperrors.MsgServiceFailure, err))
	}
	if substituted {
		s.notify(ctx, base, observer.DemoSubstituted, start, func(e *observer.AnalysisEvent) {
			e.Season = result.Season
			e.ErrorMessage = "implausible season in model output"
		})
	}

	s.notify(ctx, base, observer.AnalysisCompleted, start, func(e *observer.AnalysisEvent) {
		e.Success = true
		e.Season = result.Season
	})
	return &result, nil
}

func (s *analysisService) loadImage(ctx context.Context, in AnalyzeInput) ([]byte, string, error) {
	switch {
	case len(in.Data) > 0:
		return in.Data, "upload", nil
	case strings.TrimSpace(in.Image) != "":
		data, _, err := imageprep.DecodeDataURI(in.Image)
		if err != nil {
			return nil, "", apperrors.NewProcessingError("Invalid image data", err)
		}
		return data, "inline", nil
	case strings.TrimSpace(in.ImageURL) != "":
		data, err := s.fetchRemote(ctx, in)
		return data, "url", err
	default:
		return nil, "", apperrors.NewValidationError("No image provided", nil)
	}
}

func (s *analysisService) fetchRemote(ctx context.Context, in AnalyzeInput) ([]byte, error) {
	if s.imageRepo == nil {
		return nil, apperrors.NewValidationError("imageUrl is not supported", repository.ErrRepositoryUnavailable)
	}

	start := time.Now()
	data, err := s.imageRepo.FetchImage(ctx, in.ImageURL)
	base := observer.AnalysisEvent{RequestID: in.RequestID, Source: "url"}
	if err != nil {
		s.notify(ctx, base, observer.ImageFetchFailed, start, func(e *observer.AnalysisEvent) {
			e.ErrorMessage = err.Error()
		})
		switch {
		case errors.Is(err, repository.ErrInvalidImageURL):
			return nil, apperrors.NewValidationError("Invalid image URL", err)
		case errors.Is(err, repository.ErrImageTooLarge):
			return nil, apperrors.NewValidationError("Image too large", err)
		case errors.Is(err, repository.ErrImageNotFound):
			return nil, apperrors.NewValidationError("Image not found", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}
	s.notify(ctx, base, observer.ImageFetched, start, func(e *observer.AnalysisEvent) {
		e.Success = true
		e.Metadata = map[string]interface{}{"bytes": len(data)}
	})
	return data, nil
}

func (s *analysisService) fail(ctx context.Context, base observer.AnalysisEvent, start time.Time, appErr *apperrors.AppError) (*models.AnalysisResult, error) {
	s.notify(ctx, base, observer.AnalysisFailed, start, func(e *observer.AnalysisEvent) {
		e.ErrorMessage = appErr.Error()
	})

	result, err := s.policy.Recover(appErr)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, base, observer.DemoSubstituted, start, func(e *observer.AnalysisEvent) {
		e.Season = result.Season
		e.ErrorMessage = appErr.Message
		e.Metadata = map[string]interface{}{"policy": s.policy.GetStrategyName()}
	})
	return result, nil
}

func (s *analysisService) notify(ctx context.Context, base observer.AnalysisEvent, eventType observer.EventType, start time.Time, fill func(*observer.AnalysisEvent)) {
	event := base
	event.EventType = eventType
	event.Timestamp = time.Now()
	event.ProcessingTime = time.Since(start)
	if fill != nil {
		fill(&event)
	}
	s.events.NotifyObservers(ctx, event)
}
