package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"go-glow-ai/internal/config"
	"go-glow-ai/internal/factory"
	"go-glow-ai/internal/imageprep"
	"go-glow-ai/internal/logger"
	"go-glow-ai/internal/observer"
	"go-glow-ai/internal/presentation"
	"go-glow-ai/internal/repository"
	"go-glow-ai/internal/service"
	"go-glow-ai/internal/strategy"
	"go-glow-ai/internal/telegram"
	"go-glow-ai/internal/transport"
	"go-glow-ai/internal/vision"
	"go-glow-ai/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	logger              *logrus.Logger
	provider            vision.Provider
	metrics             *observer.MetricsObserver
	analysisService     service.AnalysisService
	subscriptionService service.SubscriptionService
	handler             http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Logger
	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	provider, err := components.ProviderFactory.CreateProvider(ctx, cfg.VisionProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision provider: %w", err)
	}
	if cfg.APIKey == "" && cfg.VisionProvider != config.ProviderMock {
		log.Warn("API_KEY is not set; analysis requests will fail")
	}

	fetcher, err := components.StorageFactory.CreateStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to create image storage: %w", err)
	}
	urlValidator := factory.NewImageURLValidator(cfg)
	imageRepository := repository.NewRemoteImageRepository(fetcher, urlValidator)

	policy, err := strategy.NewFailurePolicy(cfg.FailureMode, nil)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher(log)
	events.Subscribe(observer.NewLoggingObserver(log))
	events.Subscribe(metrics)

	prepOpts := imageprep.Options{MaxDimension: cfg.ImageMaxDimension, Quality: cfg.ImageJPEGQuality}
	analysisService := service.NewAnalysisService(
		provider,
		imageRepository,
		validation.NewSanitizer(),
		policy,
		events,
		log,
		service.AnalysisOptions{Preprocess: prepOpts, Timeout: cfg.AnalysisTimeout},
	)

	tg := telegram.NewClient(cfg.TelegramAPIURL, cfg.BotToken, &http.Client{Timeout: cfg.RequestTimeout})
	subscriptionService := service.NewSubscriptionService(tg, cfg.BotToken, events, log, service.SubscriptionOptions{
		DefaultChannelID: cfg.ChannelID,
		ChannelLink:      cfg.ChannelLink,
		InitDataMaxAge:   cfg.InitDataMaxAge,
	})
	if !tg.Configured() || cfg.ChannelID == "" {
		log.Warn("TELEGRAM_BOT_TOKEN or TELEGRAM_CHANNEL_ID is not set; subscription checks will report a configuration error")
	}

	renderer, err := presentation.NewRenderer(cfg.ChannelLink)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	pre := presentation.PreprocessFunc(func(data []byte) (*imageprep.Output, error) {
		return imageprep.Preprocess(data, prepOpts)
	})
	app := presentation.NewApp(pre, analysisService, subscriptionService, log)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := transport.NewHandler(transport.Dependencies{
		Analysis:           analysisService,
		Subscription:       subscriptionService,
		App:                app,
		Renderer:           renderer,
		Metrics:            metrics,
		Limiter:            limiter,
		Logger:             log,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	log.WithFields(logrus.Fields{
		"provider":     provider.Name(),
		"failure_mode": policy.GetStrategyName(),
		"azure":        cfg.AzureEnabled(),
		"rate_limit":   cfg.RateLimitRPS,
	}).Info("Container initialized")

	return &Container{
		config:              cfg,
		logger:              log,
		provider:            provider,
		metrics:             metrics,
		analysisService:     analysisService,
		subscriptionService: subscriptionService,
		handler:             handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the process logger
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Close releases provider resources.
func (c *Container) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
