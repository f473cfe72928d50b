package p1feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/platform/logging"
	"github.com/riskibarqy/ticket-marketplace/internal/usecase"
)

// FileSource reads a feed dump from disk; ".csv" files are read as CSV,
// everything else as XML.
type FileSource struct {
	path string
}

var _ usecase.FeedSource = (*FileSource)(nil)

func NewFileSource(path string) *FileSource {
	return &FileSource{path: strings.TrimSpace(path)}
}

func (s *FileSource) Products(ctx context.Context, visit func(usecase.FeedProduct) error) error {
	if s.path == "" {
		return fmt.Errorf("%w: feed file path is required", usecase.ErrInvalidInput)
	}
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open feed file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(s.path), ".csv") {
		return DecodeCSV(ctx, file, visit)
	}
	return DecodeXML(ctx, file, visit)
}

type URLSourceConfig struct {
	HTTPClient *http.Client
	URL        string
	Timeout    time.Duration
	MaxRetries int
	Logger     *logging.Logger
}

// URLSource downloads the XML feed and decodes it while streaming.
type URLSource struct {
	httpClient *http.Client
	url        string
	maxRetries int
	logger     *logging.Logger
}

var _ usecase.FeedSource = (*URLSource)(nil)

func NewURLSource(cfg URLSourceConfig) *URLSource {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 60 * time.Second
	}
	return &URLSource{
		httpClient: httpClient,
		url:        strings.TrimSpace(cfg.URL),
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("p1feed"),
	}
}

func (s *URLSource) Products(ctx context.Context, visit func(usecase.FeedProduct) error) error {
	if s.url == "" {
		return fmt.Errorf("%w: feed url is required", usecase.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err := s.open(ctx)
		if err == nil {
			err = DecodeXML(ctx, resp.Body, visit)
			_ = resp.Body.Close()
			return err
		}
		lastErr = err
		if !isRetryable(err) || attempt == s.maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		s.logger.WarnContext(ctx, "feed download failed, retrying", "attempt", attempt+1, "backoff", backoff.String(), "error", err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("feed status=%d", e.code)
}

func (s *URLSource) open(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download feed: %v", usecase.ErrDependencyUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, statusError{code: resp.StatusCode}
	}
	return resp, nil
}

func isRetryable(err error) bool {
	var status statusError
	if errors.As(err, &status) {
		return status.code == http.StatusTooManyRequests || status.code >= http.StatusInternalServerError
	}
	return errors.Is(err, usecase.ErrDependencyUnavailable)
}
