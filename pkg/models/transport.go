package models

// AnalyzeRequest is the body of POST /api/analyze-face.
type AnalyzeRequest struct {
	// Image is a data URI or raw base64 JPEG.
	Image string `json:"image,omitempty"`
	// ImageURL points to a remote image (http(s) or Azure blob).
	ImageURL string `json:"imageUrl,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubscriptionResponse is the body of GET /api/check-subscription.
type SubscriptionResponse struct {
	Subscribed    bool   `json:"subscribed"`
	Error         string `json:"error,omitempty"`
	TelegramError string `json:"telegramError,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Time     string         `json:"time"`
	Analyses map[string]any `json:"analyses,omitempty"`
}
