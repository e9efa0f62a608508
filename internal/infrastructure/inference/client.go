package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/config"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Client talks to the external sentiment-classification service. The model
// is a black box: one request in, one same-length result list out.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client from configuration.
func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		endpoint: cfg.URL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type classifyRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Classify sends one batch of texts for scoring. A length mismatch between
// request and response is an error, never silently truncated.
func (c *Client) Classify(ctx context.Context, texts []string) ([]ports.RawScore, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(classifyRequest{Model: c.model, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if closeErr := resp.Body.Close(); closeErr != nil {
			return nil, fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return nil, fmt.Errorf("close response body: %w", err)
	}

	if len(decoded.Results) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d results for %d texts", len(decoded.Results), len(texts))
	}

	scores := make([]ports.RawScore, len(decoded.Results))
	for i, r := range decoded.Results {
		scores[i] = ports.RawScore{Label: r.Label, Score: r.Score}
	}

	return scores, nil
}
