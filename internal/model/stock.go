package model

import "time"

// Stock represents a tradeable instrument tracked by the system
type Stock struct {
	ID        int       `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Name      string    `json:"name" db:"name"`
	Exchange  string    `json:"exchange,omitempty" db:"exchange"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StockRequest represents the input for creating or updating a stock
type StockRequest struct {
	Symbol   string `json:"symbol" binding:"required,max=10"`
	Name     string `json:"name" binding:"required"`
	Exchange string `json:"exchange,omitempty"`
}
