package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/observer"
	"go-glow-ai/internal/telegram"
	"go-glow-ai/internal/tgauth"
)

// Gate errors reported in CheckResult.Error.
const (
	ErrConfigMissing = "Server configuration missing"
	ErrUserIDMissing = "User ID missing"
)

// CheckRequest identifies whose subscription to check.
type CheckRequest struct {
	UserID    string
	ChannelID string
	// InitData is the raw Telegram WebApp initData; when valid its user wins
	// over UserID.
	InitData string
	// Verbose fills CheckResult.Message for the explicit "I've subscribed"
	// check. The silent on-load check leaves it empty.
	Verbose bool

	RequestID string
}

// CheckResult is the gate outcome. Error and TelegramError mirror the
// check-subscription endpoint fields.
type CheckResult struct {
	Subscribed    bool
	Error         string
	TelegramError string
	// Message is a user-facing explanation, set only for verbose checks
	// that did not succeed.
	Message string
}

// SubscriptionService checks channel membership through the Bot API
type SubscriptionService interface {
	// Check returns an error only for transport failures.
	Check(ctx context.Context, req CheckRequest) (*CheckResult, error)
	ChannelLink() string
}

// SubscriptionOptions configures NewSubscriptionService.
type SubscriptionOptions struct {
	DefaultChannelID string
	ChannelLink      string
	// InitDataMaxAge bounds the age of initData; zero disables the check.
	InitDataMaxAge time.Duration
}

type subscriptionService struct {
	client *telegram.Client
	auth   *tgauth.Validator
	events observer.Subject
	logger *logrus.Logger
	opts   SubscriptionOptions
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(client *telegram.Client, botToken string, events observer.Subject, logger *logrus.Logger, opts SubscriptionOptions) SubscriptionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if events == nil {
		events = observer.NewEventPublisher(logger)
	}
	var auth *tgauth.Validator
	if botToken != "" {
		auth = &tgauth.Validator{Token: botToken, MaxAge: opts.InitDataMaxAge}
	}
	return &subscriptionService{
		client: client,
		auth:   auth,
		events: events,
		logger: logger,
		opts:   opts,
	}
}

func (s *subscriptionService) ChannelLink() string {
	return s.opts.ChannelLink
}

// Check performs at most one getChatMember lookup.
func (s *subscriptionService) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	channel := strings.TrimSpace(req.ChannelID)
	if channel == "" {
		channel = s.opts.DefaultChannelID
	}

	if !s.client.Configured() || channel == "" {
		s.logger.Error("Missing TELEGRAM_BOT_TOKEN or Channel ID")
		return s.result(req, &CheckResult{Error: ErrConfigMissing}, apperrors.MsgConnectivity), nil
	}

	userID := s.resolveUser(req)
	if userID == "" {
		return s.result(req, &CheckResult{Error: ErrUserIDMissing}, apperrors.MsgIdentityMissing), nil
	}

	start := time.Now()
	member, err := s.client.GetChatMember(ctx, channel, userID)
	if err != nil {
		s.logger.WithError(err).WithField("request_id", req.RequestID).Error("Subscription check failed")
		return nil, err
	}

	res := &CheckResult{Subscribed: member.Subscribed()}
	if !member.OK {
		s.logger.WithFields(logrus.Fields{
			"request_id":  req.RequestID,
			"error_code":  member.ErrorCode,
			"description": s.client.Scrub(member.Description),
		}).Error("Telegram API Error")
		res.TelegramError = member.Description
	}

	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.SubscriptionChecked,
		RequestID:      req.RequestID,
		ProcessingTime: time.Since(start),
		Success:        res.Subscribed,
		Metadata: map[string]interface{}{
			"status":  member.Status,
			"verbose": req.Verbose,
		},
	})

	return s.result(req, res, apperrors.MsgNotSubscribed), nil
}

func (s *subscriptionService) resolveUser(req CheckRequest) string {
	if req.InitData != "" && s.auth != nil {
		data, err := s.auth.Validate(req.InitData)
		if err == nil {
			return data.UserID()
		}
		s.logger.WithError(err).WithField("request_id", req.RequestID).Warn("Ignoring invalid init data")
	}
	return strings.TrimSpace(req.UserID)
}

// result sets Message for verbose checks that did not unlock.
func (s *subscriptionService) result(req CheckRequest, res *CheckResult, message string) *CheckResult {
	if req.Verbose && !res.Subscribed {
		res.Message = message
	}
	return res
}
