// Package predictor defines the boundary to the direction prediction
// service. The engine never trains or scores models itself; it consumes
// signals produced behind this interface.
package predictor

import (
	"context"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// Predictor produces next-day direction signals for a price series.
// Implementations must align each signal to a trading day present in the
// bars they were given; the simulator treats a misaligned signal as a
// data gap.
type Predictor interface {
	// Train fits a model for the symbol on the given history. Training is
	// idempotent: repeated calls with the same data replace the model.
	Train(ctx context.Context, symbol string, bars []model.PriceBar) error

	// Predict returns one signal per scorable trading day in the given
	// window. Days the model cannot score are omitted, not zero-filled.
	Predict(ctx context.Context, symbol string, bars []model.PriceBar) ([]model.Signal, error)
}
