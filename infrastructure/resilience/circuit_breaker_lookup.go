package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"exerciselinks/application/ports"
	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	apperrors "exerciselinks/pkg/errors"
)

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// Trip when at least MinRequests were seen and the failure ratio reaches FailureThreshold
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreakerLookup guards an ExerciseLookup owned by another service.
// Unknown exercises are answers, not failures; only errors count.
type CircuitBreakerLookup struct {
	next    ports.ExerciseLookup
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewCircuitBreakerLookup wraps next with a circuit breaker
func NewCircuitBreakerLookup(next ports.ExerciseLookup, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerLookup {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the dependency
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &CircuitBreakerLookup{next: next, breaker: breaker, logger: logger}
}

var _ ports.ExerciseLookup = (*CircuitBreakerLookup)(nil)

// GetByID delegates through the breaker
func (c *CircuitBreakerLookup) GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.next.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewUnavailableError("exercise catalog").WithCause(err)
		}
		return nil, err
	}

	exercise, _ := result.(*entities.Exercise)
	return exercise, nil
}

// State exposes the breaker state for readiness checks
func (c *CircuitBreakerLookup) State() gobreaker.State {
	return c.breaker.State()
}
