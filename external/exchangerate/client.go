package exchangerate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/resilience"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.exchangerate.host"
	defaultCacheTTL = 24 * time.Hour
	baseCurrency    = "EUR"
)

// SupportedCurrencies are the currencies offers may be priced in.
var SupportedCurrencies = []string{"EUR", "USD", "ILS", "GBP"}

// FallbackRates convert one unit of currency into EUR when the API and
// every cached value are unavailable.
var FallbackRates = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("0.92"),
	"ILS": decimal.RequireFromString("0.25"),
	"GBP": decimal.RequireFromString("1.16"),
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	AccessKey  string
	Timeout    time.Duration
	CacheTTL   time.Duration
	Logger     *logging.Logger
}

// Client resolves currency-to-EUR rates. Fresh rates are cached for the
// TTL; past that the last known rate is used, then the fixed fallback.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	logger     *logging.Logger
	cache      *gocache.Cache
	flight     resilience.SingleFlight

	mu        sync.RWMutex
	lastKnown map[string]decimal.Decimal
}

var _ usecase.ExchangeRateProvider = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		accessKey:  strings.TrimSpace(cfg.AccessKey),
		logger:     logger.Named("exchangerate"),
		cache:      gocache.New(ttl, time.Hour),
		lastKnown:  make(map[string]decimal.Decimal, len(SupportedCurrencies)),
	}
}

// RateToEUR returns how many EUR one unit of currency is worth.
func (c *Client) RateToEUR(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return decimal.Zero, fmt.Errorf("%w: currency is required", usecase.ErrInvalidInput)
	}
	if currency == baseCurrency {
		return decimal.NewFromInt(1), nil
	}
	if cached, ok := c.cache.Get(currency); ok {
		if rate, ok := cached.(decimal.Decimal); ok {
			return rate, nil
		}
	}

	if _, err, _ := c.flight.Do("latest", func() (any, error) {
		return nil, c.refresh(ctx)
	}); err != nil {
		c.logger.WarnContext(ctx, "exchange rate refresh failed, using stale or fallback rate", "currency", currency, "error", err)
	}

	if cached, ok := c.cache.Get(currency); ok {
		if rate, ok := cached.(decimal.Decimal); ok {
			return rate, nil
		}
	}
	c.mu.RLock()
	stale, ok := c.lastKnown[currency]
	c.mu.RUnlock()
	if ok {
		return stale, nil
	}
	if fallback, ok := FallbackRates[currency]; ok {
		return fallback, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unsupported currency %s", usecase.ErrInvalidInput, currency)
}

// Convert turns amount in currency into EUR.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, err := c.RateToEUR(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (c *Client) refresh(ctx context.Context) error {
	symbols := make([]string, 0, len(SupportedCurrencies))
	for _, code := range SupportedCurrencies {
		if code != baseCurrency {
			symbols = append(symbols, code)
		}
	}
	values := url.Values{}
	values.Set("base", baseCurrency)
	values.Set("symbols", strings.Join(symbols, ","))
	if c.accessKey != "" {
		values.Set("access_key", c.accessKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: provider status=%d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}

	var payload latestEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	if len(payload.Rates) == 0 {
		return fmt.Errorf("invalid response from exchange rate API: no rates")
	}

	loaded := 0
	c.mu.Lock()
	defer c.mu.Unlock()
	for code, perEUR := range payload.Rates {
		code = strings.ToUpper(code)
		if !perEUR.IsPositive() {
			continue
		}
		// The API quotes currency per EUR; invert for EUR per currency.
		rate := decimal.NewFromInt(1).DivRound(perEUR, 8)
		c.cache.SetDefault(code, rate)
		c.lastKnown[code] = rate
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("invalid response from exchange rate API: no usable rates")
	}
	return nil
}

type latestEnvelope struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}
