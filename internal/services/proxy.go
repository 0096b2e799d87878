package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/authdemo/console/internal/metrics"
	"github.com/sony/gobreaker"
)

// Proxy failure classes, mapped by App1 onto 504, 502 and 500.
var (
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrUpstreamRequest = errors.New("upstream request error")
)

// Upstream fetches a URL through a circuit breaker. Only transport failures
// count against the breaker; whatever status App2 answers with is returned.
type Upstream struct {
	name    string
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewUpstream creates an upstream for url. The breaker opens after five
// consecutive transport failures and probes again after 30 seconds.
func NewUpstream(name, url string, timeout time.Duration, logger *slog.Logger) *Upstream {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	return &Upstream{
		name:    name,
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state.
func (u *Upstream) State() gobreaker.State {
	return u.breaker.State()
}

// Get performs the upstream GET and returns the raw body.
func (u *Upstream) Get(ctx context.Context) ([]byte, error) {
	out, err := u.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := u.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		outcome, wrapped := classify(err)
		metrics.ProxyRequestsTotal.WithLabelValues(u.name, outcome).Inc()
		return nil, wrapped
	}
	metrics.ProxyRequestsTotal.WithLabelValues(u.name, "ok").Inc()
	return out.([]byte), nil
}

func classify(err error) (string, error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "open", fmt.Errorf("%w: %v", ErrUpstreamRequest, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout", fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return "error", fmt.Errorf("%w: %v", ErrUpstreamRequest, err)
}
