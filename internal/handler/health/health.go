package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/monitoring"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	logger           *logger.Logger
	db               *gorm.DB
	storeDriver      string
	adapters         *chain.Set
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance. db may be nil when storeDriver is "memory".
func New(logger *logger.Logger, db *gorm.DB, storeDriver string, adapters *chain.Set, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		logger:           logger,
		db:               db,
		storeDriver:      storeDriver,
		adapters:         adapters,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	response := BasicHealthResponse{
		Message: "ok",
	}
	c.JSON(http.StatusOK, response)
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates database connectivity and performance
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	dbCheck := h.checkDatabase(c.Request.Context())
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if dbCheck.Status == "healthy" {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// External handles the chain adapter health check endpoint
// @Summary Chain adapters health check
// @Description Pings every registered chain endpoint through its circuit breaker
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var chainIDs []string
	if h.adapters != nil {
		chainIDs = h.adapters.ChainIDs()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, chainID := range chainIDs {
		wg.Add(1)
		go func(chainID string) {
			defer wg.Done()
			check := h.checkChain(ctx, chainID)
			mu.Lock()
			response.Checks[chainID] = check
			mu.Unlock()
		}(chainID)
	}
	wg.Wait()
	response.DurationMs = time.Since(start).Milliseconds()

	allHealthy := len(response.Checks) > 0
	for _, check := range response.Checks {
		if check.Status != "healthy" {
			allHealthy = false
			break
		}
	}

	if allHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		h.logger.Warn("[HealthHandler][External] unhealthy chain endpoints", map[string]string{
			"duration": fmt.Sprintf("%dms", response.DurationMs),
		})
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// checkDatabase performs database health validation
func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: map[string]interface{}{"driver": h.storeDriver},
	}

	if h.storeDriver == "memory" {
		check.Status = "healthy"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	if h.db == nil {
		check.Status = "unhealthy"
		check.Error = "database connection not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = "unhealthy"
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = "unhealthy"
		if pingCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()

	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	return check
}

// checkChain pings one chain adapter. Adapters without a ping are reported healthy.
func (h *HealthHandler) checkChain(ctx context.Context, chainID string) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	adapter, err := h.adapters.Get(chainID)
	if err != nil {
		check.Status = "unhealthy"
		check.Error = "adapter not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}
	check.Metadata["chain_type"] = string(adapter.ChainType())

	pinger, ok := adapter.(chain.IPinger)
	if !ok {
		check.Status = "healthy"
		check.Metadata["probe"] = "none"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	checkCtx, cancel := context.WithTimeout(ctx, monitoring.DefaultTimeoutConfig.HealthCheckTimeout)
	defer cancel()

	if err := pinger.Ping(checkCtx); err != nil {
		check.Status = "unhealthy"
		if checkCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			// raw adapter errors stay in the log
			check.Error = "unreachable"
		}
		h.logger.Error("[HealthHandler][checkChain]", map[string]string{
			"chain_id": chainID,
			"error":    err.Error(),
		})
	} else {
		check.Status = "healthy"
	}

	check.Latency = time.Since(start).Milliseconds()
	return check
}
