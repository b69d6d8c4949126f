package vision

import (
	"context"
	"encoding/json"
	"time"

	"go-glow-ai/pkg/models"
)

// Mock returns a fixed profile after an optional delay.
type Mock struct {
	Delay  time.Duration
	Result models.AnalysisResult
}

// NewMock returns a Mock answering with the first fallback profile.
func NewMock(delay time.Duration) *Mock {
	return &Mock{Delay: delay, Result: models.FallbackProfile(0)}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Analyze(ctx context.Context, _ Request) (string, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	b, err := json.Marshal(m.Result)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
