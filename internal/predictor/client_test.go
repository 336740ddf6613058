package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

func testBars(n int) []model.PriceBar {
	bars := make([]model.PriceBar, 0, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		bars = append(bars, model.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100.5,
			Volume: 1000,
		})
	}
	return bars
}

func TestClientPredict(t *testing.T) {
	bars := testBars(5)
	want := []model.Signal{
		{Date: bars[1].Date, Direction: model.DirectionUp, Confidence: 0.72},
		{Date: bars[3].Date, Direction: model.DirectionDown, Confidence: 0.55},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}

		var payload struct {
			Symbol string           `json:"symbol"`
			Bars   []model.PriceBar `json:"bars"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Symbol != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", payload.Symbol)
		}
		if len(payload.Bars) != 5 {
			t.Errorf("got %d bars, want 5", len(payload.Bars))
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":  "AAPL",
			"signals": want,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	got, err := client.Predict(context.Background(), "AAPL", bars)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d signals, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Direction != want[i].Direction || got[i].Confidence != want[i].Confidence {
			t.Errorf("signal %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Date.Equal(want[i].Date) {
			t.Errorf("signal %d date = %v, want %v", i, got[i].Date, want[i].Date)
		}
	}
}

func TestClientPredictServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "not enough history to score"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.Predict(context.Background(), "AAPL", testBars(3))
	if err == nil {
		t.Fatal("expected error from failing service")
	}
}

func TestClientTrain(t *testing.T) {
	var gotSymbol string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			Symbol string `json:"symbol"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotSymbol = payload.Symbol
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	if err := client.Train(context.Background(), "MSFT", testBars(120)); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if gotSymbol != "MSFT" {
		t.Errorf("service received symbol %q, want MSFT", gotSymbol)
	}
}

func TestClientCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	healthy, err := client.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !healthy {
		t.Error("expected healthy service")
	}
}
