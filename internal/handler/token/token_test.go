package token

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/bridge-relayer/internal/model"
	"github.com/dwarvesf/bridge-relayer/internal/registry"
)

func TestList(t *testing.T) {
	reg, err := registry.New(
		[]model.ChainDescriptor{{ChainID: "evm:80002", ChainType: model.ChainTypeEVM}},
		[]model.SupportedToken{{CoinID: "pol-amoy", Name: "POL", Decimals: 18, Address: "0x0000000000000000000000000000000000000000", ChainID: "evm:80002"}},
	)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/tokens", New(reg).List)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tokens", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []model.SupportedToken `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "pol-amoy", body.Data[0].CoinID)
}
