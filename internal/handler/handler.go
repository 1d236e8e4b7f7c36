package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/bridge-relayer/internal/chain"
	"github.com/dwarvesf/bridge-relayer/internal/controller"
	"github.com/dwarvesf/bridge-relayer/internal/handler/health"
	"github.com/dwarvesf/bridge-relayer/internal/handler/intent"
	"github.com/dwarvesf/bridge-relayer/internal/handler/metrics"
	"github.com/dwarvesf/bridge-relayer/internal/handler/token"
	"github.com/dwarvesf/bridge-relayer/internal/monitoring"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/utils/config"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

type Handler struct {
	IntentHandler  intent.IHandler
	TokenHandler   token.IHandler
	HealthHandler  health.IHealthHandler
	MetricsHandler *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	controller controller.IController,
	registry registry.IRegistry,
	adapters *chain.Set,
	db *gorm.DB,
	metricsRegistry *prometheus.Registry,
	businessMetrics *monitoring.BusinessMetricsRecorder,
	jobStatusManager *monitoring.JobStatusManager) *Handler {
	return &Handler{
		IntentHandler:  intent.New(controller, registry, logger, businessMetrics),
		TokenHandler:   token.New(registry),
		HealthHandler:  health.New(logger, db, appConfig.Store.Driver, adapters, jobStatusManager),
		MetricsHandler: metrics.NewMetricsHandler(metricsRegistry),
	}
}
