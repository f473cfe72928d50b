package observability

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	otellog "go.opentelemetry.io/otel/log"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog("http_request", []any{"http_path", "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if !shouldSkipUptraceLog("http_request", []any{"http_path", "/metrics"}) {
		t.Fatalf("expected metrics scrape log to be skipped")
	}
	if shouldSkipUptraceLog("http_request", []any{"http_path", "/v1/worker/status"}) {
		t.Fatalf("did not expect status request log to be skipped")
	}
	if shouldSkipUptraceLog("price update finished", []any{"http_path", "/healthz"}) {
		t.Fatalf("did not expect non-http_request event to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{
		"league_slug", "epl",
		"api_calls", 12,
		"min_price", decimal.RequireFromString("85.50"),
		"error", errors.New("timeout"),
		"dangling",
	})
	if len(attrs) != 5 {
		t.Fatalf("expected 5 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "league_slug" || attrs[0].Value.AsString() != "epl" {
		t.Fatalf("unexpected league_slug attribute")
	}
	if attrs[1].Value.AsInt64() != 12 {
		t.Fatalf("unexpected api_calls attribute")
	}
	if attrs[2].Value.AsString() != "85.5" {
		t.Fatalf("unexpected min_price attribute: %s", attrs[2].Value.AsString())
	}
	if attrs[3].Value.AsString() != "timeout" {
		t.Fatalf("unexpected error attribute")
	}
	if attrs[4].Key != "dangling" || attrs[4].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute")
	}
}

func TestToOTelLogValue_StructsBecomeJSON(t *testing.T) {
	v := toOTelLogValue(workerrun.Stats{APICalls: 3})
	if v.Kind() != otellog.KindString {
		t.Fatalf("expected string value, got %s", v.Kind())
	}
	if got := v.AsString(); got == "" || got[0] != '{' {
		t.Fatalf("expected JSON object, got %q", got)
	}
}
