package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/bridge-relayer/internal/handler"
	"github.com/dwarvesf/bridge-relayer/internal/utils/config"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "bridge relayer is running")
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/quote", h.IntentHandler.Quote)
		v1.POST("/deposited", h.IntentHandler.Deposited)
		v1.GET("/intents/:intentId", h.IntentHandler.Get)
		v1.GET("/tokens", h.TokenHandler.List)
	}

	// paths clients of the first relayer release still call
	legacy := r.Group("")
	{
		legacy.GET("/quotes", h.IntentHandler.Quote)
		legacy.POST("/quotes/deposited", h.IntentHandler.Deposited)
		legacy.GET("/tokens", h.TokenHandler.List)
	}

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}

	r.GET("/healthz", h.HealthHandler.Basic)
}
