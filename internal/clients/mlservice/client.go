// internal/clients/mlservice/client.go
package mlservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"advisory-engine/internal/common/errors"
	httpclient "advisory-engine/internal/common/http"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/metrics"
	"advisory-engine/internal/common/validation"
)

// Client calls the external ML scoring service. Both endpoints are
// load-bearing for the pipeline, so transport failures surface as
// StandardErrors for the orchestrator to translate into degraded results.
type Client struct {
	baseURL    string
	maxRetries int
	httpClient *httpclient.Client
	logger     logger.Logger
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

func NewClient(cfg Config, log logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: httpclient.NewClient(cfg.Timeout),
		logger:     log.WithFields(map[string]interface{}{"client": "ml-service"}),
	}
}

// PredictFields sends the fixed-shape profile request to /predict-fields.
// A malformed response body returns ErrCodeMalformedUpstreamResponse; the
// caller decides whether that empties the field list.
func (c *Client) PredictFields(ctx context.Context, req *FieldPredictionRequest) (*FieldPredictionResponse, error) {
	body, err := c.post(ctx, "/predict-fields", req)
	if err != nil {
		return nil, err
	}

	if result, err := validation.ValidateJSON(body, validation.FieldPredictionResponseSchema); err != nil || !result.Valid {
		detail := "schema validation unavailable"
		if result != nil {
			detail = result.FirstError()
		}
		return nil, errors.NewMalformedUpstreamResponseError("ml-service", detail)
	}

	var resp FieldPredictionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMalformedUpstreamResponseError("ml-service", err.Error())
	}
	return &resp, nil
}

// RecommendPrograms sends candidates plus the profile to /recommend.
func (c *Client) RecommendPrograms(ctx context.Context, req *RecommendationRequest) (*RecommendationResponse, error) {
	body, err := c.post(ctx, "/recommend", req)
	if err != nil {
		return nil, err
	}

	if result, err := validation.ValidateJSON(body, validation.ProgramRecommendationResponseSchema); err != nil || !result.Valid {
		detail := "schema validation unavailable"
		if result != nil {
			detail = result.FirstError()
		}
		return nil, errors.NewMalformedUpstreamResponseError("ml-service", detail)
	}

	var resp RecommendationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewMalformedUpstreamResponseError("ml-service", err.Error())
	}
	return &resp, nil
}

// post issues the request with exponential backoff between attempts.
func (c *Client) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, errors.NewMLTimeoutError(endpoint)
			case <-time.After(backoff):
			}
		}

		body, err := c.doPost(ctx, endpoint, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Typed errors carry their own retry semantics. Plain transport
		// errors always retry.
		if _, ok := err.(*errors.StandardError); ok && !errors.IsRetryable(err) {
			return nil, err
		}

		c.logger.Warn("ml service call failed, retrying", map[string]interface{}{
			"endpoint": endpoint,
			"attempt":  attempt,
			"error":    err.Error(),
		})
	}

	metrics.UpstreamErrors.WithLabelValues("ml-service", endpoint).Inc()
	if ctx.Err() != nil {
		return nil, errors.NewMLTimeoutError(endpoint)
	}
	return nil, errors.NewMLServiceUnavailableError(endpoint, lastErr)
}

func (c *Client) doPost(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+endpoint, payload, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ml service returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
