package model

import "time"

// Direction is a predicted or realized price direction
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Signal represents one directional prediction for a stock on a date,
// produced by the external predictor. Confidence is in [0, 1].
type Signal struct {
	Date       time.Time `json:"date"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
}
