package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-glow-ai/pkg/validation"
)

func TestHTTPImageFetcher_SingleAttempt(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectError   bool
		errorContains string
	}{
		{"success", 200, false, ""},
		{"not found", 404, true, "client error: status code 404"},
		{"bad request", 400, true, "client error: status code 400"},
		{"server error is not retried", 500, true, "server error: status code 500"},
		{"bad gateway", 502, true, "server error: status code 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requestCount++
				w.WriteHeader(tt.status)
				w.Write([]byte(fmt.Sprintf("status %d", tt.status)))
			}))
			defer server.Close()

			data, err := NewHTTPImageFetcher(5*time.Second, 1024, WithPrivateNetworks()).FetchImage(context.Background(), server.URL)

			if requestCount != 1 {
				t.Errorf("Expected 1 request, got %d", requestCount)
			}
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if string(data) != "status 200" {
				t.Errorf("Unexpected body: %q", data)
			}
		})
	}
}

func TestHTTPImageFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 2048))
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcher(5*time.Second, 1024, WithPrivateNetworks()).FetchImage(context.Background(), server.URL)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}

	data, err := NewHTTPImageFetcher(5*time.Second, 2048, WithPrivateNetworks()).FetchImage(context.Background(), server.URL)
	if err != nil || len(data) != 2048 {
		t.Errorf("Expected 2048 bytes at the limit, got %d (%v)", len(data), err)
	}
}

func TestHTTPImageFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcher(50*time.Millisecond, 1024, WithPrivateNetworks()).FetchImage(context.Background(), server.URL)
	if err == nil {
		t.Error("Expected timeout error")
	}
}

func TestHTTPImageFetcher_InvalidURL(t *testing.T) {
	_, err := NewHTTPImageFetcher(time.Second, 1024, WithPrivateNetworks()).FetchImage(context.Background(), "://bad")
	if err == nil || !strings.Contains(err.Error(), "invalid URL") {
		t.Errorf("Expected invalid URL error, got %v", err)
	}
}

func TestHTTPImageFetcher_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewHTTPImageFetcher(5*time.Second, 1024, WithPrivateNetworks()).FetchImage(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestHTTPImageFetcher_RefusesInternalAddresses(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("SECRET-METADATA"))
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		url  string
	}{
		{"literal loopback", server.URL},
		{"hostname resolving to loopback", "http://localhost:" + u.Port() + "/selfie.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewHTTPImageFetcher(time.Second, 1024).FetchImage(context.Background(), tt.url)
			if !errors.Is(err, ErrBlockedAddress) {
				t.Errorf("Expected ErrBlockedAddress, got %v (data %q)", err, data)
			}
		})
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("Expected no request to reach the internal server, got %d", n)
	}
}

func TestHTTPImageFetcher_ChecksRedirectTargets(t *testing.T) {
	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("SECRET-METADATA"))
	}))
	defer internal.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/latest/meta-data", http.StatusFound)
	}))
	defer redirector.Close()

	fetcher := NewHTTPImageFetcher(time.Second, 1024,
		WithPrivateNetworks(),
		WithURLCheck(validation.NewURLValidator().ValidateImageURL),
	)
	data, err := fetcher.FetchImage(context.Background(), redirector.URL)
	if err == nil {
		t.Fatalf("Expected redirect to be rejected, got %q", data)
	}
	if !strings.Contains(err.Error(), "redirect") {
		t.Errorf("Expected redirect error, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("Expected no request to reach the redirect target, got %d", n)
	}
}

func TestHTTPImageFetcher_FollowsAllowedRedirect(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg"))
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer redirector.Close()

	fetcher := NewHTTPImageFetcher(time.Second, 1024,
		WithPrivateNetworks(),
		WithURLCheck(validation.NewURLValidatorWithOptions([]string{"http"}, []string{"127.0.0.1"}).ValidateImageURL),
	)
	data, err := fetcher.FetchImage(context.Background(), redirector.URL)
	if err != nil || string(data) != "jpeg" {
		t.Errorf("Expected allowed redirect to be followed, got %q (%v)", data, err)
	}
}
