package factory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-glow-ai/internal/config"
	"go-glow-ai/internal/storage"
	"go-glow-ai/internal/vision"
	"go-glow-ai/pkg/validation"
)

// ProviderFactory creates vision providers
type ProviderFactory interface {
	CreateProvider(ctx context.Context, providerType string) (vision.Provider, error)
}

// StorageFactory creates remote image sources
type StorageFactory interface {
	CreateStorage() (storage.ImageFetcher, error)
}

// providerFactory implements ProviderFactory
type providerFactory struct {
	cfg *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) ProviderFactory {
	return &providerFactory{cfg: cfg}
}

// CreateProvider creates a provider of the given type. A missing API key is
// not an error here: the provider reports it on each call.
func (f *providerFactory) CreateProvider(ctx context.Context, providerType string) (vision.Provider, error) {
	switch providerType {
	case config.ProviderOpenAI:
		return vision.NewOpenAI(vision.OpenAIConfig{
			BaseURL:    f.cfg.VisionBaseURL,
			APIKey:     f.cfg.APIKey,
			Model:      f.cfg.VisionModel,
			HTTPClient: &http.Client{Timeout: f.cfg.AnalysisTimeout},
		}), nil
	case config.ProviderGemini:
		if f.cfg.APIKey == "" {
			return &unconfiguredProvider{name: "gemini:" + f.cfg.VisionModel}, nil
		}
		return vision.NewGemini(ctx, vision.GeminiConfig{
			APIKey: f.cfg.APIKey,
			Model:  f.cfg.VisionModel,
		})
	case config.ProviderMock:
		return vision.NewMock(2 * time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// unconfiguredProvider fails every call with vision.ErrMissingAPIKey.
type unconfiguredProvider struct {
	name string
}

func (p *unconfiguredProvider) Name() string { return p.name }

func (p *unconfiguredProvider) Analyze(context.Context, vision.Request) (string, error) {
	return "", vision.ErrMissingAPIKey
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// NewImageURLValidator builds the imageUrl validator for cfg. With no
// allow-list only public hosts pass.
func NewImageURLValidator(cfg *config.Config) *validation.URLValidator {
	return validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedImageHosts)
}

// CreateStorage returns an HTTP fetcher, routed to Azure Blob Storage for
// the configured account when credentials are present. Redirects are
// validated like the original URL; internal addresses are only dialed when
// an allow-list names them.
func (f *storageFactory) CreateStorage() (storage.ImageFetcher, error) {
	opts := []storage.FetcherOption{
		storage.WithURLCheck(NewImageURLValidator(f.cfg).ValidateImageURL),
	}
	if len(f.cfg.AllowedImageHosts) > 0 {
		opts = append(opts, storage.WithPrivateNetworks())
	}
	router := &storage.Router{
		HTTP: storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize, opts...),
	}
	if f.cfg.AzureEnabled() {
		azure, err := storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxRequestBodySize)
		if err != nil {
			return nil, err
		}
		router.Azure = azure
	}
	return router, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ProviderFactory ProviderFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		ProviderFactory: NewProviderFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
