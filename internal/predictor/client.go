package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// Client talks to the prediction service over HTTP. It implements
// Predictor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new prediction service client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Training can be slow
		},
		logger: logger,
	}
}

// Train sends the price history to the prediction service for model fitting
func (c *Client) Train(ctx context.Context, symbol string, bars []model.PriceBar) error {
	payload := map[string]interface{}{
		"symbol": symbol,
		"bars":   bars,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal training request: %w", err)
	}

	url := fmt.Sprintf("%s/train", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("Sending training request",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send request to prediction service", zap.Error(err))
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("prediction service returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("prediction service error: %s", errorResp.Error)
	}

	return nil
}

// Predict requests direction signals for the given price window
func (c *Client) Predict(ctx context.Context, symbol string, bars []model.PriceBar) ([]model.Signal, error) {
	payload := map[string]interface{}{
		"symbol": symbol,
		"bars":   bars,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send request to prediction service", zap.Error(err))
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("prediction service error: %s", errorResp.Error)
	}

	var result struct {
		Symbol  string         `json:"symbol"`
		Signals []model.Signal `json:"signals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Error("Failed to decode prediction response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Signals, nil
}

// CheckHealth checks if the prediction service is healthy
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to send health check to prediction service", zap.Error(err))
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
