package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis lifecycle event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Source         string                 `json:"source,omitempty"`
	Provider       string                 `json:"provider,omitempty"`
	Season         string                 `json:"season,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a photo has been accepted for analysis
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when the provider returned a usable result
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the provider call or parsing failed
	AnalysisFailed EventType = "analysis_failed"
	// DemoSubstituted when a fallback profile replaced the result
	DemoSubstituted EventType = "demo_substituted"
	// ImageFetched when a remote imageUrl was downloaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a remote imageUrl could not be downloaded
	ImageFetchFailed EventType = "image_fetch_failed"
	// SubscriptionChecked after a getChatMember lookup
	SubscriptionChecked EventType = "subscription_checked"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.Provider != "" {
		fields["provider"] = event.Provider
	}
	if event.Season != "" {
		fields["season"] = event.Season
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Face analysis started")
	case AnalysisCompleted:
		entry.Info("Face analysis completed")
	case AnalysisFailed:
		entry.Error("Face analysis failed")
	case DemoSubstituted:
		entry.Warn("Fallback profile substituted")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case SubscriptionChecked:
		entry.Info("Subscription checked")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a snapshot of the counters kept by MetricsObserver.
type Metrics struct {
	TotalAnalyses      int64         `json:"total_analyses"`
	SuccessfulAnalyses int64         `json:"successful_analyses"`
	FailedAnalyses     int64         `json:"failed_analyses"`
	DemoSubstitutions  int64         `json:"demo_substitutions"`
	SubscriptionChecks int64         `json:"subscription_checks"`
	AvgProcessingTime  time.Duration `json:"avg_processing_time"`
}

// MetricsObserver collects in-memory counters from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	demoSubstitutions   int64
	subscriptionChecks  int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
	case DemoSubstituted:
		o.demoSubstitutions++
	case SubscriptionChecked:
		o.subscriptionChecks++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Snapshot returns the current counters
func (o *MetricsObserver) Snapshot() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		DemoSubstitutions:  o.demoSubstitutions,
		SubscriptionChecks: o.subscriptionChecks,
	}
	if o.successfulAnalyses > 0 {
		m.AvgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}
	return m
}

// GetMetrics returns current metrics in a form suitable for /health
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	m := o.Snapshot()
	return map[string]interface{}{
		"total_analyses":      m.TotalAnalyses,
		"successful_analyses": m.SuccessfulAnalyses,
		"failed_analyses":     m.FailedAnalyses,
		"demo_substitutions":  m.DemoSubstitutions,
		"subscription_checks": m.SubscriptionChecks,
		"avg_processing_time": m.AvgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *logrus.Logger
}

// NewEventPublisher creates a new event publisher. Panics in observers are
// logged to logger.
func NewEventPublisher(logger *logrus.Logger) *EventPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventPublisher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in the calling
// goroutine. Observers must be quick; a panicking observer is logged and
// skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		p.notify(ctx, obs, event)
	}
}

func (p *EventPublisher) notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
