package resilience

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// CircuitBreakerConfig is one provider's breaker setting as read from env.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      15 * time.Second,
		HalfOpenMaxReq:   2,
	}
}

// WithDefaults fills thresholds left at zero. Enabled is kept as given.
func (cfg CircuitBreakerConfig) WithDefaults() CircuitBreakerConfig {
	defaults := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}

// Build returns nil when the breaker is disabled. Provider clients skip
// the breaker entirely on a nil value.
func (cfg CircuitBreakerConfig) Build(clock clockwork.Clock) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return NewCircuitBreakerFromConfig(cfg, clock)
}
