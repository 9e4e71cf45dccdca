package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/shared/utils"
	"github.com/subeth/subeth/internal/shared/version"
)

type HealthHandler struct {
	chainIDs []int64
	wallet   Wallet
}

func NewHealthHandler(chainIDs []int64, wallet Wallet) *HealthHandler {
	return &HealthHandler{chainIDs: chainIDs, wallet: wallet}
}

type HealthResponse struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Release bool    `json:"release"`
	Chains  []int64 `json:"chains"`
	Wallet  string  `json:"wallet,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Version: version.Current(),
		Release: version.IsRelease(),
		Chains:  h.chainIDs,
	}
	if h.wallet != nil {
		resp.Wallet = h.wallet.Address().Hex()
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}
