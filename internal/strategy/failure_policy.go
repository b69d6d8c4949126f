package strategy

import (
	"fmt"
	"math/rand/v2"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/pkg/models"
)

// FailurePolicy decides what the analysis handler returns when the vision
// provider fails.
type FailurePolicy interface {
	// Recover either substitutes a result or returns the error to surface.
	Recover(err *apperrors.AppError) (*models.AnalysisResult, error)
	GetStrategyName() string
}

// StrictPolicy surfaces every upstream failure to the caller.
type StrictPolicy struct{}

// NewStrictPolicy creates a strict failure policy
func NewStrictPolicy() FailurePolicy {
	return &StrictPolicy{}
}

func (p *StrictPolicy) Recover(err *apperrors.AppError) (*models.AnalysisResult, error) {
	return nil, err
}

func (p *StrictPolicy) GetStrategyName() string {
	return "error"
}

// DemoPolicy replaces a failed analysis with a random fallback profile.
// The substitute is always flagged isDemo.
type DemoPolicy struct {
	intn func(n int) int
}

// NewDemoPolicy creates a demo policy. A nil intn uses math/rand/v2.
func NewDemoPolicy(intn func(n int) int) FailurePolicy {
	if intn == nil {
		intn = rand.IntN
	}
	return &DemoPolicy{intn: intn}
}

func (p *DemoPolicy) Recover(err *apperrors.AppError) (*models.AnalysisResult, error) {
	result := models.RandomFallback(p.intn)
	return &result, nil
}

func (p *DemoPolicy) GetStrategyName() string {
	return "demo"
}

// NewFailurePolicy returns the policy for an ANALYZE_FAILURE_MODE value.
func NewFailurePolicy(mode string, intn func(n int) int) (FailurePolicy, error) {
	switch mode {
	case "", "error":
		return NewStrictPolicy(), nil
	case "demo":
		return NewDemoPolicy(intn), nil
	default:
		return nil, fmt.Errorf("unsupported failure mode: %s", mode)
	}
}
