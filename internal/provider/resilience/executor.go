package resilience

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Executor applies the same timeout, retry and breaker policy as Client to calls that
// do not go through net/http directly, such as SDK clients.
type Executor[T any] struct {
	circuitBreaker *gobreaker.CircuitBreaker[T]
	config         ClientConfig
}

// NewExecutor creates an executor and registers it when a registry is set.
func NewExecutor[T any](cfg ClientConfig) *Executor[T] {
	cfg = cfg.withDefaults()
	if cfg.Retryable == nil {
		cfg.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}

	e := &Executor[T]{
		circuitBreaker: NewCircuitBreaker[T](*cfg.CircuitBreaker),
		config:         cfg,
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, e)
	}
	return e
}

// Execute runs op with a per-attempt timeout, retrying retryable failures with backoff.
func (e *Executor[T]) Execute(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		result, err := e.circuitBreaker.Execute(func() (T, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
			defer cancel()
			return op(attemptCtx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return result, backoff.Permanent(ErrCircuitOpen)
			}
			if !e.config.Retryable(err) {
				return result, backoff.Permanent(err)
			}
			return result, err
		}
		return result, nil
	}

	result, err := backoff.RetryWithData(attempt, e.config.backOff(ctx))
	if e.config.Registry != nil {
		if err != nil {
			e.config.Registry.RecordFailure(e.config.Name, err)
		} else {
			e.config.Registry.RecordSuccess(e.config.Name)
		}
	}
	return result, err
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor[T]) CircuitBreakerState() gobreaker.State {
	return e.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (e *Executor[T]) CircuitBreakerCounts() gobreaker.Counts {
	return e.circuitBreaker.Counts()
}
