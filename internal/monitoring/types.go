package monitoring

import (
	"time"
)

// CircuitBreakerConfig defines the configuration for circuit breakers
type CircuitBreakerConfig struct {
	MaxRequests                 uint32        `json:"max_requests"`
	Interval                    time.Duration `json:"interval"`
	Timeout                     time.Duration `json:"timeout"`
	ConsecutiveFailureThreshold int           `json:"consecutive_failure_threshold"`
}

// TimeoutConfig bounds each adapter call by kind
type TimeoutConfig struct {
	RequestTimeout     time.Duration `json:"request_timeout"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout"`
}

// APIErrorType represents different types of API errors for classification
type APIErrorType string

const (
	ErrorTypeTimeout      APIErrorType = "timeout"
	ErrorTypeNetworkError APIErrorType = "network_error"
	ErrorTypeServerError  APIErrorType = "server_error"
	ErrorTypeClientError  APIErrorType = "client_error"
	ErrorTypeUnknown      APIErrorType = "unknown"
)

// CircuitBreakerConfigs holds the defaults per chain type
var CircuitBreakerConfigs = map[string]CircuitBreakerConfig{
	"bitcoin": {
		MaxRequests:                 5,
		Interval:                    30 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 3,
	},
	"evm": {
		MaxRequests:                 3,
		Interval:                    45 * time.Second,
		Timeout:                     120 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
	"sui": {
		MaxRequests:                 3,
		Interval:                    45 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
}

var DefaultTimeoutConfig = TimeoutConfig{
	RequestTimeout:     10 * time.Second,
	HealthCheckTimeout: 3 * time.Second,
}

// BreakerConfigFor returns the defaults for a chain type, falling back to the evm ones.
func BreakerConfigFor(chainType string) CircuitBreakerConfig {
	if c, ok := CircuitBreakerConfigs[chainType]; ok {
		return c
	}
	return CircuitBreakerConfigs["evm"]
}
