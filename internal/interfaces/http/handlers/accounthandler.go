package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/shared/logger"
	"github.com/subeth/subeth/internal/shared/utils"
)

type AccountHandler struct {
	statusUC accountStatusUseCase
	logger   logger.Interface
}

func NewAccountHandler(statusUC accountStatusUseCase, logger logger.Interface) *AccountHandler {
	return &AccountHandler{statusUC: statusUC, logger: logger}
}

// GetDelegation handles GET /api/accounts/:address/delegation?chainId=
// Without chainId every configured chain is checked.
func (h *AccountHandler) GetDelegation(c *gin.Context) {
	account, err := utils.ParseAddressParam(c, "address")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	chainID, err := utils.ParseChainIDQuery(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	status, err := h.statusUC.Execute(c.Request.Context(), account, chainID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}
