package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Config holds the configuration for connecting to the trustd API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
	APIKey string // Optional API key for gateway deployments
}

// TrustClient is a pure HTTP client for the trustd API.
type TrustClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewTrustClient creates a new client for the trustd API.
func NewTrustClient(cfg Config) *TrustClient {
	return &TrustClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *TrustClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// GetTrustScore returns the latest trust score for a wallet.
func (c *TrustClient) GetTrustScore(ctx context.Context, wallet string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/trust/"+wallet, nil, nil)
}

// ExplainTrustScore returns the arithmetic trace behind a wallet's score.
func (c *TrustClient) ExplainTrustScore(ctx context.Context, wallet string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/trust/"+wallet+"/explain", nil, nil)
}

// GetWalletTrend returns the behavioral trend verdict for a wallet.
func (c *TrustClient) GetWalletTrend(ctx context.Context, wallet string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/trust/"+wallet+"/trend", nil, nil)
}

// GetAccountImage returns the base64 on-chain account image for a wallet.
func (c *TrustClient) GetAccountImage(ctx context.Context, wallet string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/trust/"+wallet+"/account", nil, nil)
}

// BatchTrustScores returns trust scores for up to 100 wallets in one call.
func (c *TrustClient) BatchTrustScores(ctx context.Context, wallets []string) (json.RawMessage, error) {
	body := map[string]any{"wallets": wallets}
	return c.doRequest(ctx, http.MethodPost, "/v1/trust/batch", nil, body)
}
