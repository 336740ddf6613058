// Package client holds outbound HTTP clients for third-party APIs.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

const (
	MassiveAPIBaseURL = "https://api.massive.com/v2"

	// DefaultRequestsPerMinute matches the provider's free-tier quota.
	DefaultRequestsPerMinute = 5
)

// Sentinel errors for provider responses that callers branch on.
var (
	ErrUnauthorized  = errors.New("market data provider rejected the API key")
	ErrForbidden     = errors.New("market data provider denied access to this dataset")
	ErrSymbolUnknown = errors.New("market data provider has no data for this symbol")
	ErrRateLimited   = errors.New("market data provider rate limit exceeded")
)

// MassiveClient handles communication with the Massive market data API
type MassiveClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *zap.Logger
}

// NewMassiveClient creates a new Massive API client. requestsPerMinute
// caps the outbound rate; pass 0 for the free-tier default.
func NewMassiveClient(baseURL, apiKey string, requestsPerMinute int, logger *zap.Logger) *MassiveClient {
	if baseURL == "" {
		baseURL = MassiveAPIBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &MassiveClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: NewRateLimiter(requestsPerMinute),
		logger:  logger,
	}
}

// GetDailyPrices retrieves daily OHLCV bars for a symbol within the given
// date range, oldest first.
func (c *MassiveClient) GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]model.ProviderBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	reqURL := fmt.Sprintf("%s/aggs/ticker/%s/daily", c.baseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Add("from", start.Format("2006-01-02"))
	params.Add("to", end.Format("2006-01-02"))
	params.Add("sort", "asc")
	reqURL = reqURL + "?" + params.Encode()

	c.logger.Debug("Calling Massive API", zap.String("url", reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch prices from Massive",
			zap.Error(err),
			zap.String("symbol", symbol))
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, symbol)
	}

	var priceResp model.ProviderPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		c.logger.Error("Failed to decode Massive price response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	if len(priceResp.Results) == 0 {
		c.logger.Warn("Massive returned no bars",
			zap.String("symbol", symbol),
			zap.Time("from", start),
			zap.Time("to", end))
	}

	return priceResp.Results, nil
}

// statusError maps provider HTTP statuses to sentinel errors so callers
// can decide between aborting, skipping a symbol, and backing off.
func (c *MassiveClient) statusError(resp *http.Response, symbol string) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	c.logger.Error("Massive API error response",
		zap.Int("statusCode", resp.StatusCode),
		zap.String("symbol", symbol),
		zap.String("response", string(bodyBytes)))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrSymbolUnknown, symbol)
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("Massive API returned status code %d: %s", resp.StatusCode, string(bodyBytes))
	}
}

// ToPriceBars converts provider bars to internal price bars, skipping
// records whose date does not parse.
func ToPriceBars(stockID int, bars []model.ProviderBar, logger *zap.Logger) []model.PriceBar {
	out := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		date, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			logger.Warn("Skipping provider bar with malformed date",
				zap.String("date", b.Date),
				zap.Error(err))
			continue
		}
		out = append(out, model.PriceBar{
			StockID:       stockID,
			Date:          date,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			Volume:        b.Volume,
			AdjustedClose: b.AdjustedClose,
		})
	}
	return out
}
