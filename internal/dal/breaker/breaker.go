package breaker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/metrics"
	"github.com/sony/gobreaker"
)

// CircuitBreaker wraps gobreaker with metrics.
type CircuitBreaker struct {
	*gobreaker.CircuitBreaker
	name string
}

// New creates a circuit breaker that trips when at least 60% of three or more calls fail.
func New(name string) *CircuitBreaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))

			slog.Info("Circuit breaker state changed",
				"circuit", cbName,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &CircuitBreaker{
		CircuitBreaker: cb,
		name:           name,
	}
}

// Execute runs fn through the circuit breaker and counts failures.
func (cb *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	result, err := cb.CircuitBreaker.Execute(fn)
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}

	return result, formatError(cb.name, err)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func formatError(circuitName string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit breaker %s is open (service unavailable): %w", circuitName, err)
	}
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("circuit breaker %s: too many requests in half-open state: %w", circuitName, err)
	}

	return err
}
