package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeProcessing    ErrorType = "processing"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeQuota         ErrorType = "quota"
	ErrorTypeUpstream      ErrorType = "upstream"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// User-facing messages shown by the Mini App.
const (
	MsgImageDecode    = "Не удалось обработать изображение"
	MsgQuotaExceeded  = "Слишком много запросов к сервису анализа. Попробуйте через минуту."
	MsgBadInput       = "Не удалось распознать фото. Попробуйте другое изображение."
	MsgServiceFailure = "Сервис анализа временно недоступен. Попробуйте еще раз."

	MsgIdentityMissing = "Не удалось определить пользователя. Откройте приложение через Telegram."
	MsgNotSubscribed   = "Подписка не найдена. Подпишитесь на канал и нажмите кнопку еще раз."
	MsgConnectivity    = "Не удалось проверить подписку. Проверьте соединение и попробуйте снова."
	MsgCrash           = "Что-то пошло не так. Перезапустите приложение."
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	// UserMessage is safe to show to the end user.
	UserMessage string `json:"user_message,omitempty"`
	Cause       error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeValidation,
		Message:     message,
		StatusCode:  http.StatusBadRequest,
		UserMessage: message,
		Cause:       cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeNetwork,
		Message:     message,
		StatusCode:  http.StatusBadGateway,
		UserMessage: MsgServiceFailure,
		Cause:       cause,
	}
}

// NewProcessingError reports an image that could not be decoded. It is a
// client error: the upload itself is unusable.
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeProcessing,
		Message:     message,
		StatusCode:  http.StatusBadRequest,
		UserMessage: MsgImageDecode,
		Cause:       cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeTimeout,
		Message:     message,
		StatusCode:  http.StatusGatewayTimeout,
		UserMessage: MsgServiceFailure,
		Cause:       cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeInternal,
		Message:     message,
		StatusCode:  http.StatusInternalServerError,
		UserMessage: MsgServiceFailure,
		Cause:       cause,
	}
}

// NewQuotaError reports a rate limit or exhausted quota, either upstream or
// in our own limiter.
func NewQuotaError(message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeQuota,
		Message:     message,
		StatusCode:  http.StatusTooManyRequests,
		UserMessage: MsgQuotaExceeded,
		Cause:       cause,
	}
}

// NewUpstreamError reports a failed call to the vision provider. The user
// message is picked by the caller from the failure category.
func NewUpstreamError(message, userMessage string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeUpstream,
		Message:     message,
		StatusCode:  http.StatusInternalServerError,
		UserMessage: userMessage,
		Cause:       cause,
	}
}

// NewConfigurationError reports missing server configuration such as an API
// key.
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Type:        ErrorTypeConfiguration,
		Message:     message,
		StatusCode:  http.StatusInternalServerError,
		UserMessage: MsgServiceFailure,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// UserMessage extracts the user-facing message from an error, falling back
// to the generic service failure text.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	return MsgServiceFailure
}
