// Package deepseek is a client for the OpenAI compatible DeepSeek chat API
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perr "arguxai/internal/platform/errors"
	"arguxai/internal/platform/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"
	defaultTimeout = 60 * time.Second
)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithModel sets the chat model
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithBreaker replaces the default circuit breaker settings
func WithBreaker(st gobreaker.Settings) ClientOption {
	return func(c *Client) { c.breaker = gobreaker.NewCircuitBreaker(st) }
}

// WithLogger sets the client logger
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// Client calls /chat/completions behind a rate limiter and a circuit breaker
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        logger.Logger
}

// NewClient creates a client; an empty apiKey yields a client whose calls fail as unavailable
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		log:        logger.Get().With().Str("component", "deepseek").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.breaker == nil {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "deepseek",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				// caller mistakes do not say anything about upstream health
				return err == nil || perr.IsCode(err, perr.ErrorCodeInvalidArgument)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		})
	}
	return c
}

// Model returns the configured chat model
func (c *Client) Model() string { return c.model }

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects json_object output
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the subset of the chat completion request we send
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is the subset of the chat completion response we read
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateChatCompletion sends one request; it waits on the limiter and fails fast while the breaker is open
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, perr.Unavailablef("deepseek api key not configured")
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeTooManyRequests, "deepseek rate limit wait")
	}

	out, err := c.breaker.Execute(func() (interface{}, error) { return c.do(ctx, req) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "deepseek circuit open")
		}
		return nil, err
	}
	return out.(*ChatResponse), nil
}

func (c *Client) do(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "marshal chat request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "deepseek request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read deepseek response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, raw)
	}

	var out ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "decode deepseek response")
	}
	if len(out.Choices) == 0 {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "deepseek returned no choices")
	}
	return &out, nil
}

func statusError(status int, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	var ae apiError
	if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}
	code := perr.ErrorCodeUnknown
	switch {
	case status == http.StatusTooManyRequests:
		code = perr.ErrorCodeTooManyRequests
	case status >= 500:
		code = perr.ErrorCodeUnavailable
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = perr.ErrorCodeInvalidArgument
	}
	return perr.Newf(code, "deepseek api error (status %d): %s", status, msg)
}

// String is for logs
func (c *Client) String() string { return fmt.Sprintf("deepseek(%s, %s)", c.baseURL, c.model) }
