package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

func TestRateToEUR_InvertsAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/latest" || r.URL.Query().Get("base") != "EUR" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"USD":1.25,"GBP":0.8,"ILS":4}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})
	ctx := context.Background()

	usd, err := client.RateToEUR(ctx, "usd")
	if err != nil {
		t.Fatalf("rate usd: %v", err)
	}
	if !usd.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("unexpected usd rate: %s", usd)
	}
	gbp, err := client.RateToEUR(ctx, "GBP")
	if err != nil {
		t.Fatalf("rate gbp: %v", err)
	}
	if !gbp.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("unexpected gbp rate: %s", gbp)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single API call, got=%d", calls.Load())
	}

	eur, err := client.RateToEUR(ctx, "EUR")
	if err != nil || !eur.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected eur rate: %s err=%v", eur, err)
	}

	converted, err := client.Convert(ctx, decimal.NewFromInt(100), "ILS")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !converted.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected converted amount: %s", converted)
	}
}

func TestRateToEUR_FallsBackToFixedRates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Logger: logging.NewNop()})
	rate, err := client.RateToEUR(context.Background(), "USD")
	if err != nil {
		t.Fatalf("rate usd: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.92")) {
		t.Fatalf("expected fallback rate 0.92, got=%s", rate)
	}

	if _, err := client.RateToEUR(context.Background(), "JPY"); err == nil {
		t.Fatalf("expected error for unsupported currency")
	}
}
