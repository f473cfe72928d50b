package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/config"
	"github.com/riskibarqy/ticket-marketplace/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		HTTPAddr:             ":0",
		Storage:              config.StorageMemory,
		CacheEnabled:         true,
		CacheTTL:             time.Minute,
		MetricsEnabled:       true,
		InternalJobToken:     "token",
		PriceUpdateLeagues:   []string{"premier-league"},
		WorkerSchedule:       "0 0,8-23 * * *",
		WorkerLocation:       time.UTC,
		WorkerLeaseTTL:       time.Hour,
		WorkerRunTimeout:     time.Minute,
		MinContainmentLength: 4,
		FixtureTolerance:     72 * time.Hour,
		PricePageSize:        100,
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if _, ok := a.Repos.Teams.(*cache.TeamRepository); !ok {
		t.Fatalf("expected cached team repository, got %T", a.Repos.Teams)
	}
	if a.ScheduleImport != nil {
		t.Fatalf("schedule import must stay unset while sportmonks is disabled")
	}
	if a.PriceWorker == nil || a.FeedWorker == nil {
		t.Fatalf("expected both workers to be wired")
	}
}

func TestNewHTTPServer_ServesStatusAndMetrics(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	srv, err := a.NewHTTPServer()
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/worker/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "hellotickets_prices") {
		t.Fatalf("expected price worker in status body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics code=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected go collector output in /metrics")
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if _, err := a.NewHTTPServer(); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
