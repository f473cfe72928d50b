package hellotickets

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/platform/resilience"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

const (
	defaultBaseURL    = "https://api-live.hellotickets.com/v1"
	defaultCategoryID = "1"
	publicKeyHeader   = "X-Public-Key"
)

var errHelloTicketsTransient = crerr.New("hellotickets transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	PublicKey      string
	CategoryID     string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads performances from the HelloTickets public API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	categoryID string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.SingleFlight
}

var _ usecase.PerformanceProvider = (*Client)(nil)

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
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	categoryID := strings.TrimSpace(cfg.CategoryID)
	if categoryID == "" {
		categoryID = defaultCategoryID
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		publicKey:  strings.TrimSpace(cfg.PublicKey),
		categoryID: categoryID,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("hellotickets"),
		breaker:    cfg.CircuitBreaker.Build(nil),
	}
}

// FetchPerformances returns one page of football performances for a performer.
func (c *Client) FetchPerformances(ctx context.Context, performerID string, page, limit int) (usecase.PerformancePage, error) {
	performerID = strings.TrimSpace(performerID)
	if performerID == "" {
		return usecase.PerformancePage{}, fmt.Errorf("%w: performer id is required", usecase.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = usecase.DefaultPerformancePageSize
	}

	query := map[string]string{
		"performer_id": performerID,
		"category_id":  c.categoryID,
		"page":         strconv.Itoa(page),
		"limit":        strconv.Itoa(limit),
	}

	var envelope performancesEnvelope
	if err := c.doJSON(ctx, "/performances", query, &envelope); err != nil {
		return usecase.PerformancePage{}, fmt.Errorf("fetch performances performer_id=%s page=%d: %w", performerID, page, err)
	}

	out := usecase.PerformancePage{
		Page:         page,
		PerPage:      envelope.PerPage,
		TotalCount:   envelope.TotalCount,
		Performances: make([]usecase.ExternalPerformance, 0, len(envelope.Performances)),
	}
	for _, item := range envelope.Performances {
		id := strings.TrimSpace(string(item.ID))
		if id == "" {
			continue
		}
		out.Performances = append(out.Performances, usecase.ExternalPerformance{
			ID:       id,
			Name:     strings.TrimSpace(item.Name),
			URL:      strings.TrimSpace(item.URL),
			StartsAt: parseProviderDateTime(item.StartDate),
			MinPrice: item.PriceRange.MinPrice.decimal(),
			MaxPrice: item.PriceRange.MaxPrice.decimal(),
			Currency: strings.ToUpper(strings.TrimSpace(item.PriceRange.Currency)),
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "hellotickets circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: ticket provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.breaker != nil {
			if reqErr != nil && isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(publicKeyHeader, c.publicKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errHelloTicketsTransient, c.redact(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errHelloTicketsTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errHelloTicketsTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "hellotickets request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) redact(value string) string {
	if c.publicKey == "" {
		return value
	}
	return strings.ReplaceAll(value, c.publicKey, "REDACTED")
}

func isCircuitFailure(err error) bool {
	return err != nil && stderrors.Is(err, errHelloTicketsTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

type performancesEnvelope struct {
	TotalCount   int               `json:"total_count"`
	PerPage      int               `json:"per_page"`
	Performances []performanceItem `json:"performances"`
}

type performanceItem struct {
	ID         flexValue  `json:"id"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	StartDate  string     `json:"start_date"`
	PriceRange priceRange `json:"price_range"`
}

type priceRange struct {
	MinPrice flexValue `json:"min_price"`
	MaxPrice flexValue `json:"max_price"`
	Currency string    `json:"currency"`
}

// flexValue accepts a JSON number or string and keeps its literal text.
type flexValue string

func (v *flexValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := sonic.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = flexValue(strings.TrimSpace(s))
		return nil
	}
	*v = flexValue(trimmed)
	return nil
}

func (v flexValue) decimal() *decimal.Decimal {
	if v == "" {
		return nil
	}
	parsed, err := decimal.NewFromString(string(v))
	if err != nil || !parsed.IsPositive() {
		return nil
	}
	return &parsed
}
