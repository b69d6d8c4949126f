package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/observer"
	"go-glow-ai/internal/service"
	"go-glow-ai/internal/telegram"
	"go-glow-ai/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalysis struct {
	result *models.AnalysisResult
	err    error
	calls  int
	last   service.AnalyzeInput
}

func (s *stubAnalysis) Analyze(ctx context.Context, in service.AnalyzeInput) (*models.AnalysisResult, error) {
	s.calls++
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	if in.Image == "" && in.ImageURL == "" && len(in.Data) == 0 {
		return nil, apperrors.NewValidationError("No image provided", nil)
	}
	return s.result, nil
}

func (s *stubAnalysis) ProviderName() string { return "stub" }

type stubSubscription struct {
	res  *service.CheckResult
	err  error
	last service.CheckRequest
}

func (s *stubSubscription) Check(ctx context.Context, req service.CheckRequest) (*service.CheckResult, error) {
	s.last = req
	return s.res, s.err
}

func (s *stubSubscription) ChannelLink() string { return "https://t.me/groupaifaily" }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestHandler(deps Dependencies) http.Handler {
	deps.Logger = quietLogger()
	if deps.Analysis == nil {
		deps.Analysis = &stubAnalysis{}
	}
	if deps.Subscription == nil {
		deps.Subscription = &stubSubscription{res: &service.CheckResult{}}
	}
	if deps.MaxRequestBodySize == 0 {
		deps.MaxRequestBodySize = 1 << 20
	}
	return NewHandler(deps)
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestAnalyzeFace(t *testing.T) {
	result := models.FallbackProfile(0)

	tests := []struct {
		name       string
		body       string
		analysis   *stubAnalysis
		wantStatus int
		wantError  string
	}{
		{"empty object", `{}`, &stubAnalysis{}, http.StatusBadRequest, "No image provided"},
		{"empty body", ``, &stubAnalysis{}, http.StatusBadRequest, "No image provided"},
		{"not json", `image=abc`, &stubAnalysis{}, http.StatusBadRequest, "Invalid request body"},
		{"undecodable", `{"image":"abc"}`, &stubAnalysis{err: apperrors.NewProcessingError("Invalid image data", nil)}, http.StatusBadRequest, "Invalid image data"},
		{"upstream quota", `{"image":"abc"}`, &stubAnalysis{err: apperrors.NewUpstreamError("429", apperrors.MsgQuotaExceeded, nil)}, http.StatusInternalServerError, apperrors.MsgQuotaExceeded},
		{"ok", `{"image":"abc"}`, &stubAnalysis{result: &result}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Dependencies{Analysis: tt.analysis})
			w := do(h, http.MethodPost, "/api/analyze-face", tt.body, map[string]string{"Content-Type": "application/json"})

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d (%s)", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantError != "" {
				if got := decodeError(t, w); got != tt.wantError {
					t.Errorf("Expected error %q, got %q", tt.wantError, got)
				}
				return
			}
			var got models.AnalysisResult
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("Failed to decode result: %v", err)
			}
			if diff := cmp.Diff(result, got); diff != "" {
				t.Errorf("Result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzeFace_PassesRequest(t *testing.T) {
	a := &stubAnalysis{result: &models.AnalysisResult{Season: "Мягкое Лето"}}
	h := newTestHandler(Dependencies{Analysis: a})

	w := do(h, http.MethodPost, "/api/analyze-face", `{"imageUrl":"https://example.com/a.jpg"}`,
		map[string]string{RequestIDHeader: "req-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if a.last.ImageURL != "https://example.com/a.jpg" || a.last.RequestID != "req-1" {
		t.Errorf("Unexpected input: %+v", a.last)
	}
	if got := w.Header().Get(RequestIDHeader); got != "req-1" {
		t.Errorf("Expected request id echoed, got %q", got)
	}
}

func TestAnalyzeFace_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(Dependencies{})
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := do(h, method, "/api/analyze-face", "", nil)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, w.Code)
			continue
		}
		if got := decodeError(t, w); got != "Method Not Allowed" {
			t.Errorf("%s: expected Method Not Allowed, got %q", method, got)
		}
	}
}

func TestAnalyzeFace_RateLimited(t *testing.T) {
	result := models.FallbackProfile(1)
	a := &stubAnalysis{result: &result}
	h := newTestHandler(Dependencies{Analysis: a, Limiter: rate.NewLimiter(rate.Every(1<<62), 1)})

	if w := do(h, http.MethodPost, "/api/analyze-face", `{"image":"x"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", w.Code)
	}
	w := do(h, http.MethodPost, "/api/analyze-face", `{"image":"x"}`, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if got := decodeError(t, w); got != apperrors.MsgQuotaExceeded {
		t.Errorf("Expected quota message, got %q", got)
	}
	if a.calls != 1 {
		t.Errorf("Expected one analysis call, got %d", a.calls)
	}
}

func TestAnalyzeFace_BodyTooLarge(t *testing.T) {
	h := newTestHandler(Dependencies{MaxRequestBodySize: 16})
	w := do(h, http.MethodPost, "/api/analyze-face", `{"image":"`+strings.Repeat("a", 64)+`"}`, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestCheckSubscription_BotAPI(t *testing.T) {
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"user":{"id":42,"is_bot":false,"first_name":"A"},"status":"member"}}`))
	}))
	defer bot.Close()

	client := telegram.NewClient(bot.URL, "123:ABC", nil)
	sub := service.NewSubscriptionService(client, "123:ABC", nil, quietLogger(), service.SubscriptionOptions{DefaultChannelID: "@glow"})
	h := newTestHandler(Dependencies{Subscription: sub})

	w := do(h, http.MethodGet, "/api/check-subscription?user_id=42", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"subscribed":true}` {
		t.Errorf("Expected {\"subscribed\":true}, got %s", got)
	}
}

func TestCheckSubscription(t *testing.T) {
	tests := []struct {
		name       string
		sub        *stubSubscription
		wantStatus int
		wantBody   string
	}{
		{"config missing", &stubSubscription{res: &service.CheckResult{Error: service.ErrConfigMissing}}, http.StatusOK,
			`{"subscribed":false,"error":"Server configuration missing"}`},
		{"telegram error", &stubSubscription{res: &service.CheckResult{TelegramError: "Bad Request: chat not found"}}, http.StatusOK,
			`{"subscribed":false,"telegramError":"Bad Request: chat not found"}`},
		{"transport failure", &stubSubscription{err: context.DeadlineExceeded}, http.StatusInternalServerError,
			`{"error":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(Dependencies{Subscription: tt.sub})
			w := do(h, http.MethodGet, "/api/check-subscription?user_id=1&channel_id=-100", "",
				map[string]string{InitDataHeader: "query_id=AAH"})

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("Expected %s, got %s", tt.wantBody, got)
			}
			want := service.CheckRequest{UserID: "1", ChannelID: "-100", InitData: "query_id=AAH", RequestID: tt.sub.last.RequestID}
			if diff := cmp.Diff(want, tt.sub.last); diff != "" {
				t.Errorf("Request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := newTestHandler(Dependencies{})

	t.Run("preflight", func(t *testing.T) {
		w := do(h, http.MethodOptions, "/api/analyze-face", "", map[string]string{
			"Origin":                        "https://web.telegram.org",
			"Access-Control-Request-Method": "POST",
		})
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
			t.Error("Expected Access-Control-Allow-Origin header")
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body, got %q", w.Body.String())
		}
	})

	t.Run("bare options", func(t *testing.T) {
		for _, path := range []string{"/api/analyze-face", "/api/check-subscription", "/api/unknown"} {
			w := do(h, http.MethodOptions, path, "", nil)
			if w.Code != http.StatusOK || w.Body.Len() != 0 {
				t.Errorf("%s: expected bare 200, got %d %q", path, w.Code, w.Body.String())
			}
		}
	})

	t.Run("simple request", func(t *testing.T) {
		w := do(h, http.MethodGet, "/api/check-subscription", "", map[string]string{"Origin": "https://web.telegram.org"})
		if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
			t.Error("Expected Access-Control-Allow-Origin header")
		}
	})
}

func TestHealthCheck(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	metrics.OnEvent(context.Background(), observer.AnalysisEvent{EventType: observer.AnalysisStarted})
	h := newTestHandler(Dependencies{Metrics: metrics})

	w := do(h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.Status != "available" || resp.Version != Version || resp.Time == "" {
		t.Errorf("Unexpected health response: %+v", resp)
	}
	if got := resp.Analyses["total_analyses"]; got != float64(1) {
		t.Errorf("Expected total_analyses 1, got %v", got)
	}
}

func TestRecoverJSON(t *testing.T) {
	h := newTestHandler(Dependencies{Analysis: panicAnalysis{}})
	w := do(h, http.MethodPost, "/api/analyze-face", `{"image":"x"}`, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Internal Server Error")) {
		t.Errorf("Unexpected body: %s", w.Body.String())
	}
}

type panicAnalysis struct{}

func (panicAnalysis) Analyze(context.Context, service.AnalyzeInput) (*models.AnalysisResult, error) {
	panic("boom")
}

func (panicAnalysis) ProviderName() string { return "panic" }
