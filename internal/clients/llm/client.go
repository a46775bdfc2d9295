// internal/clients/llm/client.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"advisory-engine/internal/common/errors"
	httpclient "advisory-engine/internal/common/http"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/metrics"
)

// Client talks to an OpenAI-compatible chat-completion API. Every caller
// in the pipeline treats it as optional: a failure here always has a
// deterministic fallback at the call site.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxRetries  int
	maxTokens   int
	temperature float64
	httpClient  *httpclient.Client
	logger      logger.Logger
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  httpclient.NewClient(cfg.Timeout),
		logger:      log.WithFields(map[string]interface{}{"client": "llm"}),
	}
}

// Enabled reports whether the client has a credential. Without one, every
// caller goes straight to its fallback path.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Options override the client defaults for a single completion.
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// Complete sends a system/user prompt pair and returns the raw completion
// text.
func (c *Client) Complete(ctx context.Context, system, user string, opts *Options) (string, error) {
	if !c.Enabled() {
		return "", errors.NewLLMValidationFailedError(fmt.Errorf("no API key configured"))
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if opts != nil {
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", errors.NewLLMTimeoutError()
			case <-time.After(backoff):
			}
		}

		content, err := c.complete(ctx, &req)
		if err == nil {
			return content, nil
		}
		lastErr = err

		c.logger.Warn("llm call failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	metrics.UpstreamErrors.WithLabelValues("llm", "chat-completions").Inc()
	if ctx.Err() != nil {
		return "", errors.NewLLMTimeoutError()
	}
	return "", errors.NewLLMValidationFailedError(lastErr)
}

func (c *Client) complete(ctx context.Context, req *chatRequest) (string, error) {
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+"/v1/chat/completions", req, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm returned no completion text")
	}
	return parsed.Choices[0].Message.Content, nil
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON strips an optional markdown code fence from a completion and
// returns the JSON payload inside it. The raw text is returned unchanged
// when no fence is present.
func ExtractJSON(completion string) string {
	if match := fencedJSONPattern.FindStringSubmatch(completion); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(completion)
}
