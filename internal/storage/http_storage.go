package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"go-glow-ai/pkg/validation"
)

var (
	// ErrTooLarge is returned when a remote image exceeds the size limit.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrNotFound is returned when the remote image does not exist.
	ErrNotFound = errors.New("image not found")
	// ErrBlockedAddress is returned when a connection would reach a
	// loopback, private or link-local address.
	ErrBlockedAddress = errors.New("address not allowed")
)

// ImageFetcher downloads the raw bytes of a remote image.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPImageFetcher fetches images over plain HTTP(S) with a single attempt.
type HTTPImageFetcher struct {
	client   *http.Client
	maxBytes int64

	checkURL     func(string) error
	allowPrivate bool
}

// FetcherOption configures an HTTPImageFetcher.
type FetcherOption func(*HTTPImageFetcher)

// WithURLCheck runs check against every redirect target before it is
// followed.
func WithURLCheck(check func(string) error) FetcherOption {
	return func(h *HTTPImageFetcher) {
		h.checkURL = check
	}
}

// WithPrivateNetworks lets the fetcher connect to internal addresses. Used
// when the operator restricts image hosts with an explicit allow-list.
func WithPrivateNetworks() FetcherOption {
	return func(h *HTTPImageFetcher) {
		h.allowPrivate = true
	}
}

// NewHTTPImageFetcher creates an HTTP image fetcher. maxBytes caps the
// download size. Connections to internal addresses are refused after DNS
// resolution unless WithPrivateNetworks is given.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64, opts ...FetcherOption) *HTTPImageFetcher {
	h := &HTTPImageFetcher{maxBytes: maxBytes}
	for _, opt := range opts {
		opt(h)
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !h.allowPrivate {
		dialer.Control = guardDial
	}

	transport := &http.Transport{
		DialContext:            dialer.DialContext,
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	h.client = &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects (limit: 3)")
			}
			if h.checkURL != nil {
				if err := h.checkURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect to %s rejected: %w", req.URL.Redacted(), err)
				}
			}
			return nil
		},
	}
	return h
}

// guardDial runs after name resolution, so address is always ip:port.
func guardDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || validation.IsInternalIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	return nil
}

// FetchImage downloads imageURL. Failures are reported as is; there is no
// retry.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Glow-AI/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("client error: status code %d: %w", resp.StatusCode, ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	return readLimited(resp.Body, h.maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
