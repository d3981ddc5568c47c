// Package llm is a minimal chat-completions client for the analysis
// pipeline: one request, one response, no tool calling.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/policywatch/policywatch-backend/pkg/logger"
)

// Message is one entry of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat-completions call.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Response is the portion of the provider reply the pipeline consumes.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	FinishReason string `json:"finish_reason"`
}

// Client talks OpenAI chat-completions format to a provider or proxy.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	baseBackoff time.Duration
	// priceTable maps model name to USD per million tokens {input, output}.
	priceTable map[string]Price
}

// Price is the per-million-token cost of one model.
type Price struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	PriceTable  map[string]Price
}

// NewClient creates a chat client. Zero options get conservative defaults.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 4
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = 2 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
		priceTable:  opts.PriceTable,
	}
}

// ErrExhausted is wrapped by Chat when every retry attempt has failed.
var ErrExhausted = errors.New("llm: retry attempts exhausted")

// retryableError marks a failure worth another attempt (connection
// errors, 429, 5xx, empty content).
type retryableError struct {
	err error
	// retryAfter, when positive, overrides the computed backoff (429
	// Retry-After header).
	retryAfter time.Duration
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Chat issues one chat-completions request, retrying transient failures
// with exponential backoff until the attempt ceiling or the context
// deadline, whichever comes first.
func (c *Client) Chat(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.doChat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var re *retryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}

		wait := c.backoff(attempt)
		if re.retryAfter > 0 {
			wait = re.retryAfter
		}
		logger.GetLogger().Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("model", req.Model).
			Msg("llm call failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.maxAttempts, lastErr)
}

// backoff returns the exponential wait for an attempt with jitter.
func (c *Client) backoff(attempt int) time.Duration {
	wait := c.baseBackoff * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int63n(int64(wait) / 4))
	return wait + jitter
}

func (c *Client) doChat(ctx context.Context, req Request) (*Response, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		re := &retryableError{err: fmt.Errorf("provider error (%d): %s",
			resp.StatusCode, truncate(string(respBody), 200))}
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, perr := strconv.Atoi(s); perr == nil && secs > 0 {
				re.retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, re
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider error (%d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &retryableError{err: fmt.Errorf("parse response JSON: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &retryableError{err: errors.New("response has no choices")}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		// Reasoning-only models can return empty content; treat it as a
		// failed attempt rather than handing garbage downstream.
		return nil, &retryableError{err: errors.New("response content is empty")}
	}

	return &Response{
		Content:      content,
		Model:        parsed.Model,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

// Cost converts a token count into USD using the configured price table.
// Unknown models cost zero rather than erroring; accounting is advisory.
func (c *Client) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := c.priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1e6*price.InputPerMillion +
		float64(outputTokens)/1e6*price.OutputPerMillion
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
