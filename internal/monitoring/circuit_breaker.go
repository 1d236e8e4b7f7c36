package monitoring

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// CircuitBreakerAdapter wraps chain.IAdapter with circuit breaker functionality.
// It satisfies chain.IPinger whether or not the wrapped adapter does.
type CircuitBreakerAdapter struct {
	name           string
	wrapped        chain.IAdapter
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

// NewCircuitBreakerAdapter creates a new circuit breaker wrapper for a chain adapter
func NewCircuitBreakerAdapter(name string, wrapped chain.IAdapter, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) (*CircuitBreakerAdapter, error) {
	return NewCircuitBreakerAdapterWithTimeout(name, wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerAdapterWithTimeout creates a new circuit breaker wrapper with custom timeout config
func NewCircuitBreakerAdapterWithTimeout(name string, wrapped chain.IAdapter, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) (*CircuitBreakerAdapter, error) {
	if err := validateCircuitBreakerConfig(config); err != nil {
		return nil, err
	}

	cb := &CircuitBreakerAdapter{
		name:          name,
		wrapped:       wrapped,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// an unknown token is an answer from a healthy chain, a caller hanging up says nothing about it
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			switch errs.KindOf(err) {
			case "", errs.KindUnsupportedToken, errs.KindValidation:
				return true
			}
			return false
		},
		OnStateChange: func(service string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": service,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(service, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	return cb, nil
}

func (cb *CircuitBreakerAdapter) ChainType() model.ChainType {
	return cb.wrapped.ChainType()
}

func (cb *CircuitBreakerAdapter) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerAdapter) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	result, err := cb.execute(ctx, "native_balance", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.NativeBalance(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return result.(*big.Int), nil
}

func (cb *CircuitBreakerAdapter) TokenBalance(ctx context.Context, token, address string) (*big.Int, error) {
	result, err := cb.execute(ctx, "token_balance", func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.TokenBalance(ctx, token, address)
	})
	if err != nil {
		return nil, err
	}
	return result.(*big.Int), nil
}

// Ping goes through the breaker so an open circuit reports unhealthy without a network call.
func (cb *CircuitBreakerAdapter) Ping(ctx context.Context) error {
	pinger, ok := cb.wrapped.(chain.IPinger)
	if !ok {
		return nil
	}
	_, err := cb.execute(ctx, "health_check", func(ctx context.Context) (interface{}, error) {
		return nil, pinger.Ping(ctx)
	})
	return err
}

// execute runs fn under the breaker with a per-operation timeout and records metrics
func (cb *CircuitBreakerAdapter) execute(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()

	var timeout time.Duration
	switch operation {
	case "health_check":
		timeout = cb.timeoutConfig.HealthCheckTimeout
	default:
		timeout = cb.timeoutConfig.RequestTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := cb.circuitBreaker.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})

	duration := time.Since(start).Seconds()
	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		status = "canceled"
	default:
		status = "error"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			cb.metrics.RecordTimeout(cb.name, operation)
		}
		cb.logError(operation, duration, err)
	}
	cb.metrics.RecordAPICall(cb.name, operation, status, duration)

	if err != nil {
		return nil, cb.classify(operation, err)
	}
	return result, nil
}

// classify keeps adapter kinds and turns breaker rejections and timeouts into AdapterUnavailable.
func (cb *CircuitBreakerAdapter) classify(operation string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errs.Wrap(errs.KindAdapterUnavailable, operation, errors.Wrapf(err, "%s circuit", cb.name))
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(errs.KindAdapterUnavailable, operation, err)
}

func (cb *CircuitBreakerAdapter) logError(operation string, duration float64, err error) {
	cb.logger.Error("External API call failed", map[string]string{
		"service":    cb.name,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   cb.circuitBreaker.State().String(),
	})
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") ||
		strings.Contains(errMsg, "context canceled") {
		return ErrorTypeTimeout
	}

	if strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dns") {
		return ErrorTypeNetworkError
	}

	if strings.Contains(errMsg, "500") ||
		strings.Contains(errMsg, "502") ||
		strings.Contains(errMsg, "503") ||
		strings.Contains(errMsg, "504") ||
		strings.Contains(errMsg, "internal server error") ||
		strings.Contains(errMsg, "bad gateway") ||
		strings.Contains(errMsg, "service unavailable") {
		return ErrorTypeServerError
	}

	if strings.Contains(errMsg, "400") ||
		strings.Contains(errMsg, "401") ||
		strings.Contains(errMsg, "403") ||
		strings.Contains(errMsg, "404") ||
		strings.Contains(errMsg, "429") ||
		strings.Contains(errMsg, "bad request") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "forbidden") ||
		strings.Contains(errMsg, "not found") {
		return ErrorTypeClientError
	}

	return ErrorTypeUnknown
}

func validateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be greater than 0")
	}

	if config.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be greater than 0")
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if config.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}
