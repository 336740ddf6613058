package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetDailyPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		if from := r.URL.Query().Get("from"); from != "2024-01-02" {
			t.Errorf("from = %q, want 2024-01-02", from)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": "AAPL",
			"results": []map[string]interface{}{
				{"date": "2024-01-02", "open": 100.0, "high": 101.0, "low": 99.0, "close": 100.5, "volume": 5000},
				{"date": "2024-01-03", "open": 100.5, "high": 102.0, "low": 100.0, "close": 101.5, "volume": 6000},
			},
		})
	}))
	defer srv.Close()

	c := NewMassiveClient(srv.URL, "test-key", 600, zap.NewNop())
	bars, err := c.GetDailyPrices(context.Background(),
		"AAPL",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetDailyPrices failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 100.5 || bars[1].Volume != 6000 {
		t.Errorf("unexpected bar values: %+v", bars)
	}
}

func TestGetDailyPricesStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrSymbolUnknown},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := NewMassiveClient(srv.URL, "test-key", 600, zap.NewNop())
		_, err := c.GetDailyPrices(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got err = %v, want %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestToPriceBarsSkipsMalformedDates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": "AAPL",
			"results": []map[string]interface{}{
				{"date": "2024-01-02", "open": 100.0, "high": 101.0, "low": 99.0, "close": 100.5, "volume": 5000},
				{"date": "not-a-date", "open": 1.0, "high": 1.0, "low": 1.0, "close": 1.0, "volume": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewMassiveClient(srv.URL, "test-key", 600, zap.NewNop())
	provider, err := c.GetDailyPrices(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("GetDailyPrices failed: %v", err)
	}

	bars := ToPriceBars(7, provider, zap.NewNop())
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1 (malformed date skipped)", len(bars))
	}
	if bars[0].StockID != 7 {
		t.Errorf("StockID = %d, want 7", bars[0].StockID)
	}
}

func TestRateLimiterBlocksUntilToken(t *testing.T) {
	rl := NewRateLimiter(600) // 10 per second
	ctx := context.Background()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait should pass immediately: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("second Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait returned after %v, expected a refill delay", elapsed)
	}
}

func TestRateLimiterHonorsCancellation(t *testing.T) {
	rl := NewRateLimiter(1) // one per minute
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("first Wait should pass immediately: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got err = %v, want context.DeadlineExceeded", err)
	}
}
