package factory

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-glow-ai/internal/config"
	"go-glow-ai/internal/storage"
	"go-glow-ai/internal/vision"
)

func testConfig() *config.Config {
	return &config.Config{
		VisionBaseURL:      "https://api.vsegpt.ru/v1",
		VisionModel:        "openai/gpt-4o-mini",
		AnalysisTimeout:    time.Minute,
		ImageFetchTimeout:  time.Second,
		MaxRequestBodySize: 1024,
	}
}

func TestCreateProvider(t *testing.T) {
	f := NewProviderFactory(testConfig())

	tests := []struct {
		providerType string
		wantPrefix   string
		wantErr      bool
	}{
		{config.ProviderOpenAI, "openai:", false},
		{config.ProviderGemini, "gemini:", false},
		{config.ProviderMock, "mock", false},
		{"claude", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.providerType, func(t *testing.T) {
			p, err := f.CreateProvider(context.Background(), tt.providerType)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !strings.HasPrefix(p.Name(), tt.wantPrefix) {
				t.Errorf("Expected name prefix %s, got %s", tt.wantPrefix, p.Name())
			}
		})
	}
}

func TestCreateProvider_GeminiWithoutKey(t *testing.T) {
	p, err := NewProviderFactory(testConfig()).CreateProvider(context.Background(), config.ProviderGemini)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := p.Analyze(context.Background(), vision.Request{}); !errors.Is(err, vision.ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCreateStorage(t *testing.T) {
	cfg := testConfig()
	fetcher, err := NewStorageFactory(cfg).CreateStorage()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r := fetcher.(*storage.Router); r.Azure != nil {
		t.Error("Expected no Azure source without credentials")
	}

	cfg.AzureStorageAccount = "glow"
	cfg.AzureStorageKey = base64.StdEncoding.EncodeToString([]byte("key"))
	fetcher, err = NewStorageFactory(cfg).CreateStorage()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r := fetcher.(*storage.Router); r.Azure == nil {
		t.Error("Expected Azure source with credentials")
	}

	cfg.AzureStorageKey = "%%%"
	if _, err := NewStorageFactory(cfg).CreateStorage(); err == nil {
		t.Error("Expected error for invalid Azure key")
	}
}

func TestCreateStorage_RejectsInternalRedirects(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SECRET-METADATA"))
	}))
	defer internal.Close()

	fetcher, err := NewStorageFactory(testConfig()).CreateStorage()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := fetcher.FetchImage(context.Background(), internal.URL); !errors.Is(err, storage.ErrBlockedAddress) {
		t.Errorf("Expected ErrBlockedAddress without an allow-list, got %v", err)
	}

	cfg := testConfig()
	cfg.AllowedImageHosts = []string{"127.0.0.1"}
	fetcher, err = NewStorageFactory(cfg).CreateStorage()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := fetcher.FetchImage(context.Background(), internal.URL)
	if err != nil || string(data) != "SECRET-METADATA" {
		t.Errorf("Expected allow-listed host to be fetched, got %q (%v)", data, err)
	}
}
