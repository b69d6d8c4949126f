package presentation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/imageprep"
	"go-glow-ai/internal/service"
	"go-glow-ai/pkg/models"
)

type stubAnalyzer struct {
	result *models.AnalysisResult
	err    error
	calls  int
	last   service.AnalyzeInput
}

func (a *stubAnalyzer) Analyze(ctx context.Context, in service.AnalyzeInput) (*models.AnalysisResult, error) {
	a.calls++
	a.last = in
	return a.result, a.err
}

type stubGate struct {
	res   *service.CheckResult
	err   error
	calls []service.CheckRequest
}

func (g *stubGate) Check(ctx context.Context, req service.CheckRequest) (*service.CheckResult, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	res := *g.res
	if req.Verbose && !res.Subscribed && res.Message == "" {
		res.Message = apperrors.MsgNotSubscribed
	}
	return &res, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var defaultPre = PreprocessFunc(func(data []byte) (*imageprep.Output, error) {
	return imageprep.Preprocess(data, imageprep.DefaultOptions())
})

func photo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{200, uint8(4 * x), uint8(5 * y), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUpload_DecodeFailure(t *testing.T) {
	analyzer := &stubAnalyzer{}
	gate := &stubGate{res: &service.CheckResult{}}
	app := NewApp(defaultPre, analyzer, gate, quietLogger())

	v := app.Upload(context.Background(), Identity{}, false, []byte("definitely not a photo"))
	if v.State != StateError {
		t.Fatalf("Expected error state, got %s", v.State)
	}
	if v.ErrorMessage != "Не удалось обработать изображение" {
		t.Errorf("Expected decode message, got %q", v.ErrorMessage)
	}
	if !v.ShowUpload {
		t.Error("Expected upload form next to the error")
	}
	if analyzer.calls != 0 || len(gate.calls) != 0 {
		t.Errorf("Expected no analysis or gate calls, got %d/%d", analyzer.calls, len(gate.calls))
	}
}

func TestUpload_AnalysisFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: apperrors.NewQuotaError("rate limited", nil)}
	app := NewApp(defaultPre, analyzer, &stubGate{res: &service.CheckResult{}}, quietLogger())

	v := app.Upload(context.Background(), Identity{}, false, photo(t))
	if v.State != StateError || v.ErrorMessage != apperrors.MsgQuotaExceeded {
		t.Errorf("Expected quota error view, got %s %q", v.State, v.ErrorMessage)
	}
	if !v.ShowUpload {
		t.Error("Expected upload form next to the error")
	}
}

func TestUpload_SendsPreparedJPEG(t *testing.T) {
	result := models.FallbackProfile(0)
	analyzer := &stubAnalyzer{result: &result}
	app := NewApp(defaultPre, analyzer, &stubGate{res: &service.CheckResult{}}, quietLogger())

	v := app.Upload(context.Background(), Identity{RequestID: "req-1"}, false, photo(t))
	if v.State != StateResultLocked {
		t.Fatalf("Expected %s, got %s", StateResultLocked, v.State)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(analyzer.last.Data))
	if err != nil || format != "jpeg" {
		t.Errorf("Expected the prepared jpeg to be analyzed, got %q (%v)", format, err)
	}
	if analyzer.last.RequestID != "req-1" {
		t.Errorf("Expected request id req-1, got %q", analyzer.last.RequestID)
	}
}

func TestUpload_EmptyAnalysisResult(t *testing.T) {
	gate := &stubGate{res: &service.CheckResult{Subscribed: true}}
	app := NewApp(defaultPre, &stubAnalyzer{}, gate, quietLogger())

	v := app.Upload(context.Background(), Identity{}, false, photo(t))
	if v.State != StateError {
		t.Fatalf("Expected %s, got %s", StateError, v.State)
	}
	if v.ErrorMessage != apperrors.MsgServiceFailure {
		t.Errorf("Expected %q, got %q", apperrors.MsgServiceFailure, v.ErrorMessage)
	}
	if !v.ShowUpload {
		t.Error("Expected upload form next to the error")
	}
	if len(gate.calls) != 0 {
		t.Errorf("Expected no gate check, got %d", len(gate.calls))
	}
}

func TestUpload_Gate(t *testing.T) {
	result := models.FallbackProfile(3)

	tests := []struct {
		name       string
		remembered bool
		gate       *stubGate
		want       State
		wantChecks int
	}{
		{"subscribed", false, &stubGate{res: &service.CheckResult{Subscribed: true}}, StateResultUnlocked, 1},
		{"not subscribed", false, &stubGate{res: &service.CheckResult{}}, StateResultLocked, 1},
		{"gate down", false, &stubGate{err: errors.New("dial tcp: refused")}, StateResultLocked, 1},
		{"remembered", true, &stubGate{res: &service.CheckResult{}}, StateResultUnlocked, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(defaultPre, &stubAnalyzer{result: &result}, tt.gate, quietLogger())
			v := app.Upload(context.Background(), Identity{UserID: "42", InitData: "q=1"}, tt.remembered, photo(t))

			if v.State != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, v.State)
			}
			if diff := cmp.Diff(&result, v.Result); diff != "" {
				t.Errorf("Result mismatch (-want +got):\n%s", diff)
			}
			if len(tt.gate.calls) != tt.wantChecks {
				t.Fatalf("Expected %d gate checks, got %d", tt.wantChecks, len(tt.gate.calls))
			}
			for _, c := range tt.gate.calls {
				if c.Verbose {
					t.Error("Expected the upload check to be silent")
				}
				if c.UserID != "42" || c.InitData != "q=1" {
					t.Errorf("Unexpected identity in check: %+v", c)
				}
			}
			if v.GateMessage != "" {
				t.Errorf("Expected no gate message after a silent check, got %q", v.GateMessage)
			}
			if !strings.HasPrefix(v.Preview, "data:image/jpeg;base64,") {
				t.Errorf("Expected jpeg preview, got %.30q", v.Preview)
			}
		})
	}
}

func TestUnlock(t *testing.T) {
	result := models.FallbackProfile(2)
	field := ResultField(&result)

	tests := []struct {
		name    string
		gate    *stubGate
		want    State
		message string
	}{
		{"subscribed", &stubGate{res: &service.CheckResult{Subscribed: true}}, StateResultUnlocked, ""},
		{"not subscribed", &stubGate{res: &service.CheckResult{}}, StateResultLocked, apperrors.MsgNotSubscribed},
		{"no user", &stubGate{res: &service.CheckResult{Error: service.ErrUserIDMissing, Message: apperrors.MsgIdentityMissing}}, StateResultLocked, apperrors.MsgIdentityMissing},
		{"gate down", &stubGate{err: errors.New("timeout")}, StateResultLocked, apperrors.MsgConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(defaultPre, &stubAnalyzer{}, tt.gate, quietLogger())
			v := app.Unlock(context.Background(), Identity{UserID: "42"}, field)

			if v.State != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, v.State)
			}
			if v.GateMessage != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, v.GateMessage)
			}
			if diff := cmp.Diff(&result, v.Result); diff != "" {
				t.Errorf("Result mismatch (-want +got):\n%s", diff)
			}
			if len(tt.gate.calls) != 1 || !tt.gate.calls[0].Verbose {
				t.Errorf("Expected one verbose check, got %+v", tt.gate.calls)
			}
		})
	}
}

func TestUnlock_BadResultField(t *testing.T) {
	gate := &stubGate{res: &service.CheckResult{Subscribed: true}}
	app := NewApp(defaultPre, &stubAnalyzer{}, gate, quietLogger())

	v := app.Unlock(context.Background(), Identity{}, "not json")
	if v.State != StateError || !v.ShowUpload {
		t.Errorf("Expected error view with upload form, got %+v", v)
	}
	if len(gate.calls) != 0 {
		t.Errorf("Expected no gate call, got %d", len(gate.calls))
	}
}

func TestReset(t *testing.T) {
	app := NewApp(defaultPre, &stubAnalyzer{}, &stubGate{}, quietLogger())
	v := app.Reset(Identity{InitData: "q=1"}, true)
	if v.State != StateIdle || !v.Subscribed || v.InitData != "q=1" {
		t.Errorf("Unexpected reset view: %+v", v)
	}
}
