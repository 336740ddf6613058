package model

import "time"

// MarketDataSource identifies an upstream price data provider
type MarketDataSource string

const (
	SourceMassive MarketDataSource = "massive"
)

// ProviderBar is one OHLCV record as returned by the upstream market data
// API before conversion to a PriceBar.
type ProviderBar struct {
	Date          string   `json:"date"`
	Open          float64  `json:"open"`
	High          float64  `json:"high"`
	Low           float64  `json:"low"`
	Close         float64  `json:"close"`
	Volume        int64    `json:"volume"`
	AdjustedClose *float64 `json:"adjusted_close,omitempty"`
}

// ProviderPriceResponse is the upstream API response envelope
type ProviderPriceResponse struct {
	Symbol  string        `json:"symbol"`
	Results []ProviderBar `json:"results"`
}

// FetchRequest represents the input for triggering a historical price fetch
type FetchRequest struct {
	Symbol    string    `json:"symbol" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// FetchResult summarizes a completed price fetch
type FetchResult struct {
	Symbol       string    `json:"symbol"`
	BarsImported int       `json:"bars_imported"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}
