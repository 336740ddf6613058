package model

import "time"

// PriceBar represents one daily OHLCV record for a stock. Dates are
// strictly increasing per stock with exactly one bar per trading day.
type PriceBar struct {
	ID            int       `json:"id,omitempty" db:"id"`
	StockID       int       `json:"stock_id" db:"stock_id"`
	Date          time.Time `json:"date" db:"date"`
	Open          float64   `json:"open" db:"open"`
	High          float64   `json:"high" db:"high"`
	Low           float64   `json:"low" db:"low"`
	Close         float64   `json:"close" db:"close"`
	Volume        int64     `json:"volume" db:"volume"`
	AdjustedClose *float64  `json:"adjusted_close,omitempty" db:"adjusted_close"`
}

// AdjClose returns the adjusted close when present, falling back to the
// raw close.
func (b PriceBar) AdjClose() float64 {
	if b.AdjustedClose != nil {
		return *b.AdjustedClose
	}
	return b.Close
}

// DateRange represents a range of dates with available data
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
