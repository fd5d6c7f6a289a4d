package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type CircuitBreakerService struct {
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *logrus.Logger
	metrics  *Metrics
}

// NewCircuitBreakerService creates one breaker per feed source. A breaker
// opens after threshold consecutive failures and probes again after timeout.
func NewCircuitBreakerService(sources []string, threshold int, timeout time.Duration, logger *logrus.Logger, metrics *Metrics) *CircuitBreakerService {
	if threshold < 1 {
		threshold = 1
	}

	cb := &CircuitBreakerService{
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(sources)),
		logger:   logger,
		metrics:  metrics,
	}
	for _, source := range sources {
		cb.metrics.setBreakerState(source, gobreaker.StateClosed)
		cb.breakers[source] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        source,
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"service":   name,
					"from":      from.String(),
					"to":        to.String(),
				}).Info("Circuit breaker state changed")
				cb.metrics.setBreakerState(name, to)
			},
		})
	}

	return cb
}

// Execute wraps a function call with circuit breaker protection
func (cb *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	breaker, exists := cb.breakers[service]
	if !exists {
		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"service":   service,
		}).Warn("No circuit breaker found for service, executing without protection")
		return fn()
	}

	return breaker.Execute(fn)
}

// GetState returns the current state of a circuit breaker
func (cb *CircuitBreakerService) GetState(service string) gobreaker.State {
	if breaker, exists := cb.breakers[service]; exists {
		return breaker.State()
	}
	return gobreaker.StateClosed
}

// States reports every breaker's state by source name.
func (cb *CircuitBreakerService) States() map[string]string {
	states := make(map[string]string, len(cb.breakers))
	for name, breaker := range cb.breakers {
		states[name] = breaker.State().String()
	}
	return states
}
