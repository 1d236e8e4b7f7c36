package token

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
	"github.com/dwarvesf/bridge-relayer/internal/view"
)

type handler struct {
	registry registry.IRegistry
}

func New(registry registry.IRegistry) IHandler {
	return &handler{registry: registry}
}

// List godoc
// @Summary List supported tokens
// @Description Returns every token the relayer can quote
// @id listTokens
// @Tags Token
// @Produce json
// @Success 200 {array} model.SupportedToken
// @Router /tokens [get]
func (h *handler) List(c *gin.Context) {
	tokens := h.registry.Tokens()
	if tokens == nil {
		tokens = []model.SupportedToken{}
	}
	c.JSON(http.StatusOK, view.CreateResponse[any](tokens, nil, nil, ""))
}
