package intent

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/dwarvesf/bridge-relayer/internal/controller"
	"github.com/dwarvesf/bridge-relayer/internal/errs"
	"github.com/dwarvesf/bridge-relayer/internal/monitoring"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
	"github.com/dwarvesf/bridge-relayer/internal/view"
)

type QuoteRequest struct {
	CoinID          string `form:"coinId" validate:"required"`
	Amount          string `form:"amount" validate:"required,numeric"`
	OutputCoinID    string `form:"outputCoinId" validate:"required"`
	ReceiverAddress string `form:"receiverAddress" validate:"required"`
}

type DepositedRequest struct {
	IntentID string `json:"intentId" validate:"required,startswith=0x,len=66,hexadecimal"`
}

type handler struct {
	controller      controller.IController
	registry        registry.IRegistry
	logger          *logger.Logger
	validate        *validator.Validate
	metricsRecorder *monitoring.BusinessMetricsRecorder
}

func New(controller controller.IController, registry registry.IRegistry, logger *logger.Logger, metricsRecorder *monitoring.BusinessMetricsRecorder) IHandler {
	return &handler{
		controller:      controller,
		registry:        registry,
		logger:          logger,
		validate:        validator.New(),
		metricsRecorder: metricsRecorder,
	}
}

// Quote godoc
// @Summary Quote a bridge transfer
// @Description Prices the transfer, issues a one-off deposit address and records the intent
// @id quote
// @Tags Intent
// @Produce json
// @Param coinId query string true "Input coin id"
// @Param amount query string true "Input amount as a decimal in token units"
// @Param outputCoinId query string true "Output coin id"
// @Param receiverAddress query string true "Receiver on the destination chain"
// @Success 200 {object} view.QuoteResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 500 {object} view.ErrorResponse
// @Router /quote [get]
func (h *handler) Quote(c *gin.Context) {
	start := time.Now()

	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "[Quote][ShouldBindQuery]", err, req)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(c, "[Quote][Validator]", err, req)
		return
	}

	intent, err := h.controller.CreateIntent(c.Request.Context(), controller.CreateIntentRequest{
		InputCoinID:     req.CoinID,
		OutputCoinID:    req.OutputCoinID,
		Amount:          req.Amount,
		ReceiverAddress: req.ReceiverAddress,
	})
	if err != nil {
		h.logger.Error("[Quote][CreateIntent]", map[string]string{
			"coinId":       req.CoinID,
			"outputCoinId": req.OutputCoinID,
			"error":        err.Error(),
		})
		h.record(func(r *monitoring.BusinessMetricsRecorder) {
			r.RecordQuote(req.CoinID, "error", time.Since(start).Seconds())
		})
		c.JSON(view.StatusOf(err), view.CreateResponse[any](nil, err, nil, "can't create quote"))
		return
	}

	input, _ := h.registry.LookupToken(intent.InputTokenID)
	output, _ := h.registry.LookupToken(intent.OutputTokenID)

	h.record(func(r *monitoring.BusinessMetricsRecorder) {
		r.RecordQuote(intent.InputChainID, "success", time.Since(start).Seconds())
	})
	c.JSON(http.StatusOK, view.CreateResponse[any](view.ToQuoteResponse(intent, input, output), nil, nil, ""))
}

// Deposited godoc
// @Summary Notify a deposit
// @Description Checks the deposit address and, once funded, attests and mints on the destination chain
// @id deposited
// @Tags Intent
// @Accept json
// @Produce json
// @Param request body DepositedRequest true "Intent to advance"
// @Success 200 {object} view.IntentResponse
// @Success 202 {object} view.IntentResponse
// @Failure 400 {object} view.ErrorResponse
// @Failure 404 {object} view.ErrorResponse
// @Failure 503 {object} view.ErrorResponse
// @Router /deposited [post]
func (h *handler) Deposited(c *gin.Context) {
	start := time.Now()

	var req DepositedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "[Deposited][ShouldBindJSON]", err, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(c, "[Deposited][Validator]", err, req)
		return
	}

	intent, err := h.controller.AdvanceOnDeposit(c.Request.Context(), req.IntentID)
	status := "success"
	if err != nil {
		status = "error"
		if errs.Is(err, errs.KindDepositNotConfirmed) {
			status = "pending"
		} else {
			h.logger.Error("[Deposited][AdvanceOnDeposit]", map[string]string{
				"intentId": req.IntentID,
				"error":    err.Error(),
			})
		}
	}

	intentStatus := "unknown"
	if intent != nil {
		intentStatus = string(intent.Status)
	}
	h.record(func(r *monitoring.BusinessMetricsRecorder) {
		r.RecordDepositNotification(intentStatus, status, time.Since(start).Seconds())
	})

	if err != nil {
		c.JSON(view.StatusOf(err), view.CreateResponse[any](view.ToIntentResponse(intent), err, nil, "intent not advanced"))
		return
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](view.ToIntentResponse(intent), nil, nil, ""))
}

// Get godoc
// @Summary Get intent
// @Description Returns the current state of an intent
// @id getIntent
// @Tags Intent
// @Produce json
// @Param intentId path string true "Intent id"
// @Success 200 {object} view.IntentResponse
// @Failure 404 {object} view.ErrorResponse
// @Router /intents/{intentId} [get]
func (h *handler) Get(c *gin.Context) {
	intent, err := h.controller.GetIntent(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		if !errs.Is(err, errs.KindIntentNotFound) {
			h.logger.Error("[GetIntent][GetIntent]", map[string]string{
				"intentId": c.Param("intentId"),
				"error":    err.Error(),
			})
		}
		c.JSON(view.StatusOf(err), view.CreateResponse[any](nil, err, nil, "can't get intent"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse[any](view.ToIntentResponse(intent), nil, nil, ""))
}

func (h *handler) badRequest(c *gin.Context, tag string, err error, payload interface{}) {
	h.logger.Error(tag, map[string]string{
		"error": err.Error(),
	})
	c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, errs.Wrap(errs.KindValidation, "bind", err), payload, "invalid request"))
}

func (h *handler) record(fn func(r *monitoring.BusinessMetricsRecorder)) {
	if h.metricsRecorder != nil {
		fn(h.metricsRecorder)
	}
}
