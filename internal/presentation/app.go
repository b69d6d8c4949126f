package presentation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/imageprep"
	"go-glow-ai/internal/service"
	"go-glow-ai/pkg/models"
)

// Preprocessor prepares an uploaded photo.
type Preprocessor interface {
	Preprocess(data []byte) (*imageprep.Output, error)
}

// PreprocessFunc adapts a function to Preprocessor.
type PreprocessFunc func(data []byte) (*imageprep.Output, error)

func (f PreprocessFunc) Preprocess(data []byte) (*imageprep.Output, error) {
	return f(data)
}

// Analyzer runs the color-season analysis.
type Analyzer interface {
	Analyze(ctx context.Context, in service.AnalyzeInput) (*models.AnalysisResult, error)
}

// Gate checks channel membership.
type Gate interface {
	Check(ctx context.Context, req service.CheckRequest) (*service.CheckResult, error)
}

// Identity is who is acting, as far as the page knows.
type Identity struct {
	InitData  string
	UserID    string
	RequestID string
}

// App drives one user action end to end and returns the view to render.
// Errors never escape: every failure ends up in the view.
type App struct {
	pre      Preprocessor
	analyzer Analyzer
	gate     Gate
	logger   *logrus.Logger
}

// NewApp creates an App.
func NewApp(pre Preprocessor, analyzer Analyzer, gate Gate, logger *logrus.Logger) *App {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &App{pre: pre, analyzer: analyzer, gate: gate, logger: logger}
}

// Upload analyzes photo. When the user is already known to be subscribed
// the result is shown unlocked; otherwise a silent gate check decides.
func (a *App) Upload(ctx context.Context, id Identity, subscribed bool, photo []byte) *View {
	v := NewView(subscribed)
	v.InitData = id.InitData
	v.Start()

	prepared, err := a.pre.Preprocess(photo)
	if err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Warn("Photo preprocessing failed")
		v.Fail(apperrors.MsgImageDecode, true)
		return v
	}
	v.Preview = prepared.DataURI

	result, err := a.analyzer.Analyze(ctx, service.AnalyzeInput{Data: prepared.JPEG, RequestID: id.RequestID})
	if err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Error("Analysis failed")
		v.Fail(apperrors.UserMessage(err), true)
		return v
	}
	if err := v.Lock(result); err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Error("Analysis returned no result")
		v.Fail(apperrors.MsgServiceFailure, true)
		return v
	}

	if v.Subscribed || a.check(ctx, id, false).Subscribed {
		v.Unlock()
	}
	return v
}

// Unlock runs the explicit "I've subscribed" check for a result carried
// back by the page.
func (a *App) Unlock(ctx context.Context, id Identity, resultField string) *View {
	v := NewView(false)
	v.InitData = id.InitData

	result, err := ParseResultField(resultField)
	if err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Warn("Bad result field")
		v.Start()
		v.Fail(apperrors.MsgBadInput, true)
		return v
	}
	v.Start()
	if err := v.Lock(result); err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Warn("Bad result field")
		v.Fail(apperrors.MsgBadInput, true)
		return v
	}

	res := a.check(ctx, id, true)
	if res.Subscribed {
		v.Unlock()
	} else {
		v.DenyUnlock(res.Message)
	}
	return v
}

// Reset returns to the upload screen, keeping the subscription flag.
func (a *App) Reset(id Identity, subscribed bool) *View {
	v := NewView(subscribed)
	v.InitData = id.InitData
	v.Reset()
	return v
}

// check never fails: transport errors become the connectivity message.
func (a *App) check(ctx context.Context, id Identity, verbose bool) *service.CheckResult {
	res, err := a.gate.Check(ctx, service.CheckRequest{
		UserID:    id.UserID,
		InitData:  id.InitData,
		Verbose:   verbose,
		RequestID: id.RequestID,
	})
	if err != nil {
		a.logger.WithError(err).WithField("request_id", id.RequestID).Error("Subscription check failed")
		res = &service.CheckResult{}
		if verbose {
			res.Message = apperrors.MsgConnectivity
		}
	}
	if verbose && !res.Subscribed && res.Message == "" {
		res.Message = apperrors.MsgNotSubscribed
	}
	return res
}

// ResultField encodes result for the hidden form field.
func ResultField(result *models.AnalysisResult) string {
	if result == nil {
		return ""
	}
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseResultField decodes a hidden result field.
func ParseResultField(s string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
