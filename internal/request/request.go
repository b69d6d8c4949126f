// Package request provides a small helper for JSON HTTP calls to upstream
// APIs.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClient is used when Params.HTTPClient is nil.
var DefaultClient = &http.Client{
	Timeout: 30 * time.Second,
}

// UserAgent is sent with every request.
const UserAgent = "Glow-AI/1.0"

// Params defines the parameters needed for making an HTTP request.
type Params struct {
	// Method is the HTTP method (GET, POST, etc.) for the request.
	Method string
	// URL is the target URL of the request.
	URL string
	// Headers is a map of key-value pairs for additional request headers.
	Headers map[string]string
	// Body is marshaled to JSON when not nil.
	Body any
	// HTTPClient overrides DefaultClient.
	HTTPClient *http.Client
	// Scrubber removes secrets (API keys, bot tokens) from error messages.
	Scrubber *strings.Replacer
}

// StatusError is returned when the server replies with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %q: want 2xx, got %d: %s", e.Method, e.URL, e.StatusCode, bytes.TrimSpace(e.Body))
}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string {
	if se.scrubber != nil {
		return se.scrubber.Replace(se.err.Error())
	}
	return se.err.Error()
}

func (se *scrubbedError) Unwrap() error { return se.err }

func scrubErr(err error, scrubber *strings.Replacer) error {
	if scrubber == nil {
		return err
	}
	return &scrubbedError{err: err, scrubber: scrubber}
}

// Scrubber returns a replacer hiding each non-empty secret.
func Scrubber(secrets ...string) *strings.Replacer {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, "[REDACTED]")
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return strings.NewReplacer(pairs...)
}

// MakeJSON performs the request and unmarshals a 2xx JSON response body into
// Response. Non-2xx replies yield a *StatusError carrying the raw body.
func MakeJSON[Response any](ctx context.Context, p Params) (Response, error) {
	var resp Response

	status, b, err := Do(ctx, p)
	if err != nil {
		return resp, err
	}
	if status < 200 || status > 299 {
		return resp, scrubErr(&StatusError{
			Method:     p.Method,
			URL:        p.URL,
			StatusCode: status,
			Body:       b,
		}, p.Scrubber)
	}

	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, scrubErr(fmt.Errorf("decoding response from %q: %w", p.URL, err), p.Scrubber)
	}
	return resp, nil
}

// Do performs the request and returns the status code and body without
// interpreting them. Only transport failures are errors.
func Do(ctx context.Context, p Params) (int, []byte, error) {
	var br io.Reader
	if p.Body != nil {
		data, err := json.Marshal(p.Body)
		if err != nil {
			return 0, nil, scrubErr(err, p.Scrubber)
		}
		br = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, br)
	if err != nil {
		return 0, nil, scrubErr(err, p.Scrubber)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if br != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpc := DefaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return 0, nil, scrubErr(err, p.Scrubber)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, scrubErr(err, p.Scrubber)
	}
	return res.StatusCode, b, nil
}
