// Package telegram is a minimal Bot API client for channel membership
// lookups.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-glow-ai/internal/request"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// subscribedStatuses are the member statuses that count as subscribed.
var subscribedStatuses = map[string]bool{
	"creator":       true,
	"administrator": true,
	"member":        true,
}

// IsSubscribedStatus reports whether a getChatMember status counts as a
// subscription. Left, kicked, restricted and unknown statuses do not.
func IsSubscribedStatus(status string) bool {
	return subscribedStatuses[status]
}

// Membership is the outcome of a getChatMember call.
type Membership struct {
	// OK mirrors the Bot API "ok" field.
	OK          bool
	Status      string
	ErrorCode   int
	Description string
}

// Subscribed reports whether the lookup succeeded with an allowed status.
func (m *Membership) Subscribed() bool {
	return m != nil && m.OK && IsSubscribedStatus(m.Status)
}

// Client calls the Bot API with a single bot token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	scrubber   *strings.Replacer
}

// NewClient creates a client. An empty baseURL selects DefaultAPIURL.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		scrubber:   request.Scrubber(token),
	}
}

// Configured reports whether a bot token is set.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// Scrub hides the bot token in s.
func (c *Client) Scrub(s string) string {
	if c.scrubber == nil {
		return s
	}
	return c.scrubber.Replace(s)
}

// GetChatMember performs one getChatMember lookup. A Bot API error reply
// (ok:false) is returned as a Membership, not an error; errors are reserved
// for transport and decoding failures.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID string) (*Membership, error) {
	if !c.Configured() {
		return nil, errors.New("telegram: bot token is not configured")
	}

	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("user_id", userID)
	endpoint := fmt.Sprintf("%s/bot%s/getChatMember?%s", c.baseURL, c.token, q.Encode())

	status, body, err := request.Do(ctx, request.Params{
		Method:     http.MethodGet,
		URL:        endpoint,
		HTTPClient: c.httpClient,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: getChatMember: %w", err)
	}

	// The Bot API answers errors with 4xx and a regular envelope.
	var resp tgbotapi.APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("telegram: getChatMember: decoding %d response: %w", status, err)
	}
	if !resp.Ok {
		return &Membership{OK: false, ErrorCode: resp.ErrorCode, Description: resp.Description}, nil
	}

	var member tgbotapi.ChatMember
	if err := json.Unmarshal(resp.Result, &member); err != nil {
		return nil, fmt.Errorf("telegram: getChatMember: decoding result: %w", err)
	}
	return &Membership{OK: true, Status: member.Status}, nil
}
