// Package oracle talks to an OpenAI-compatible chat completion endpoint.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/draftrank/internal/domain/model"
	"github.com/okian/draftrank/pkg/logger"
	"github.com/okian/draftrank/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 2000
	defaultTemperature = 0.2
	completionsPath    = "/chat/completions"
	maxErrorBody       = 200
)

// Client is safe for concurrent use.
type Client struct {
	base        url.URL
	model       string
	apiKey      string
	http        *http.Client
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
	logger      logger.Logger
}

// New creates a Client for the service at baseURL, e.g. https://api.openai.com/v1.
func New(baseURL, modelName string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse oracle base url: %w", err)
	}
	if modelName == "" {
		return nil, ErrMissingModel
	}
	c := &Client{
		base:        *base,
		model:       modelName,
		http:        &http.Client{Timeout: defaultTimeout},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []model.Message `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      model.Message `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Invoke sends the conversation and returns the first choice's content.
// With expectJSON the service is asked for a JSON object reply.
func (c *Client) Invoke(ctx context.Context, messages []model.Message, expectJSON bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordOracleRequest("rate_limited")
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body := completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if expectJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	start := time.Now()
	var resp completionResponse
	err := c.do(ctx, completionsPath, body, &resp)
	metrics.RecordOracleLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordOracleRequest(statusLabel(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		metrics.RecordOracleRequest("empty")
		return "", ErrNoChoices
	}
	metrics.RecordOracleRequest("ok")

	c.logger.Debug(ctx, "oracle call completed",
		logger.Int("prompt_tokens", resp.Usage.PromptTokens),
		logger.Int("completion_tokens", resp.Usage.CompletionTokens),
		logger.String("finish_reason", resp.Choices[0].FinishReason),
		logger.Duration("took", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) do(ctx context.Context, path string, reqData, respData any) error {
	payload, err := json.Marshal(reqData)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	reqURL := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: truncate(respBody, maxErrorBody)}
	}
	if err := json.Unmarshal(respBody, respData); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusLabel(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	return "error"
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
