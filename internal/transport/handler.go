package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/logger"
	"go-glow-ai/internal/observer"
	"go-glow-ai/internal/presentation"
	"go-glow-ai/internal/service"
	"go-glow-ai/pkg/models"
)

// Version is reported by /health.
const Version = "1.0.0"

// InitDataHeader carries Telegram WebApp initData on API calls.
const InitDataHeader = "X-Telegram-Init-Data"

// Dependencies are the collaborators of the HTTP handler. App and Renderer
// may be nil, in which case the Mini App pages are not mounted.
type Dependencies struct {
	Analysis     service.AnalysisService
	Subscription service.SubscriptionService
	App          *presentation.App
	Renderer     *presentation.Renderer
	Metrics      *observer.MetricsObserver
	// Limiter guards the analysis endpoints; nil disables it.
	Limiter *rate.Limiter
	Logger  *logrus.Logger

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type handler struct {
	deps Dependencies
	log  *logrus.Logger
}

func NewHandler(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.Logger
	}
	h := &handler{deps: deps, log: deps.Logger}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Add middleware
	r.Use(
		requestID(),
		requestLogger(h.log),
		gin.CustomRecovery(h.recoverJSON),
		cors.New(corsConfig()),
		preflight(),
		requestSizeLimiter(deps.MaxRequestBodySize),
	)
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method Not Allowed"})
	})

	// Configure routes
	r.GET("/health", h.healthCheck)
	api := r.Group("/api")
	api.POST("/analyze-face", h.analyzeFace)
	api.GET("/check-subscription", h.checkSubscription)

	if deps.App != nil && deps.Renderer != nil {
		h.mountWebApp(r)
	}
	return r
}

func corsConfig() cors.Config {
	return cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
		AllowHeaders: []string{
			"X-CSRF-Token",
			"X-Requested-With",
			"Accept",
			"Accept-Version",
			"Content-Length",
			"Content-MD5",
			"Content-Type",
			"Date",
			"X-Api-Version",
			InitDataHeader,
			RequestIDHeader,
		},
		ExposeHeaders:             []string{RequestIDHeader},
		AllowCredentials:          true,
		OptionsResponseStatusCode: http.StatusOK,
		MaxAge:                    12 * time.Hour,
	}
}

func (h *handler) analyzeFace(c *gin.Context) {
	startTime := time.Now()
	requestID := c.GetString(requestIDKey)

	if !h.allow() {
		h.respondError(c, apperrors.NewQuotaError("analysis rate limit exceeded", nil))
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, &apperrors.AppError{
				Type:       apperrors.ErrorTypeValidation,
				Message:    "Request body too large",
				StatusCode: http.StatusRequestEntityTooLarge,
				Cause:      err,
			})
			return
		}
		h.respondError(c, apperrors.NewValidationError("Invalid request body", err))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.deps.Analysis.Analyze(ctx, service.AnalyzeInput{
		Image:     req.Image,
		ImageURL:  req.ImageURL,
		RequestID: requestID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id":         requestID,
		"provider":           h.deps.Analysis.ProviderName(),
		"season":             result.Season,
		"demo":               result.IsDemo,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Face analysis completed")

	c.JSON(http.StatusOK, result)
}

func (h *handler) checkSubscription(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	initData := c.GetHeader(InitDataHeader)
	if initData == "" {
		initData = c.Query("init_data")
	}

	res, err := h.deps.Subscription.Check(ctx, service.CheckRequest{
		UserID:    c.Query("user_id"),
		ChannelID: c.Query("channel_id"),
		InitData:  initData,
		RequestID: c.GetString(requestIDKey),
	})
	if err != nil {
		h.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Subscription check failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, models.SubscriptionResponse{
		Subscribed:    res.Subscribed,
		Error:         res.Error,
		TelegramError: res.TelegramError,
	})
}

func (h *handler) healthCheck(c *gin.Context) {
	resp := models.HealthResponse{
		Status:  "available",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if h.deps.Metrics != nil {
		resp.Analyses = h.deps.Metrics.GetMetrics()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) allow() bool {
	return h.deps.Limiter == nil || h.deps.Limiter.Allow()
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.deps.RequestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.deps.RequestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

// errorMessage is the "error" field for err. Input errors keep their
// literal message; everything else shows the user-facing text.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation, apperrors.ErrorTypeProcessing:
			return appErr.Message
		}
	}
	return apperrors.UserMessage(err)
}

func (h *handler) respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	// Log the error with context
	entry := h.log.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString(requestIDKey),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{Error: errorMessage(err)})
}

func (h *handler) recoverJSON(c *gin.Context, recovered any) {
	h.log.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
		"panic":      recovered,
	}).Error("Recovered from panic")
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal Server Error"})
}
