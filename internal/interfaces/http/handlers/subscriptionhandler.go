package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/shared/logger"
	"github.com/subeth/subeth/internal/shared/utils"
)

// SubscriptionHandler serves enriched subscriptions and runs subscribe and
// unsubscribe with the gateway's wallet.
type SubscriptionHandler struct {
	listUC        listUserSubscriptionsUseCase
	subscribeUC   subscribeUseCase
	unsubscribeUC unsubscribeUseCase
	getPlanUC     getPlanUseCase
	reconcileUC   reconcileUseCase
	wallet        Wallet
	defaultPath   vo.ExecutionPath
	logger        logger.Interface
}

func NewSubscriptionHandler(
	listUC listUserSubscriptionsUseCase,
	subscribeUC subscribeUseCase,
	unsubscribeUC unsubscribeUseCase,
	getPlanUC getPlanUseCase,
	reconcileUC reconcileUseCase,
	wallet Wallet,
	defaultPath vo.ExecutionPath,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		listUC:        listUC,
		subscribeUC:   subscribeUC,
		unsubscribeUC: unsubscribeUC,
		getPlanUC:     getPlanUC,
		reconcileUC:   reconcileUC,
		wallet:        wallet,
		defaultPath:   defaultPath,
		logger:        logger,
	}
}

type SubscribeRequest struct {
	ChainID int64  `json:"chainId"`
	PlanID  string `json:"planId" binding:"required"`
	Path    string `json:"path" binding:"omitempty,oneof=relay direct auto"`
}

type UnsubscribeRequest struct {
	ChainID               int64  `json:"chainId"`
	OnChainSubscriptionID string `json:"onChainSubscriptionId" binding:"required,numeric"`
	BackendSubscriptionID int64  `json:"backendSubscriptionId" binding:"required,gt=0"`
	Path                  string `json:"path" binding:"omitempty,oneof=relay direct auto"`
}

// ListSubscriptions handles GET /api/accounts/:address/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
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

	subs, err := h.listUC.Execute(c.Request.Context(), usecases.ListUserSubscriptionsQuery{
		Account: account,
		ChainID: chainID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", subs)
}

// Subscribe handles POST /api/subscriptions/subscribe
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for subscribe", "error", err)
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	plan, err := h.getPlanUC.Execute(c.Request.Context(), req.PlanID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result := h.subscribeUC.Execute(c.Request.Context(), usecases.SubscribeCommand{
		Signer:  h.signer(),
		ChainID: req.ChainID,
		Plan:    plan.Plan,
		Path:    h.path(req.Path),
	})
	writeOperationResult(c, result)
}

// Unsubscribe handles POST /api/subscriptions/unsubscribe
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for unsubscribe", "error", err)
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	onChainID, err := utils.ParseUint256(req.OnChainSubscriptionID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result := h.unsubscribeUC.Execute(c.Request.Context(), usecases.UnsubscribeCommand{
		Signer:       h.signer(),
		ChainID:      req.ChainID,
		OnChainSubID: onChainID,
		BackendSubID: req.BackendSubscriptionID,
		Path:         h.path(req.Path),
	})
	writeOperationResult(c, result)
}

// Drift handles GET /api/accounts/:address/drift. It never repairs.
func (h *SubscriptionHandler) Drift(c *gin.Context) {
	h.reconcile(c, false)
}

// Reconcile handles POST /api/accounts/:address/reconcile
func (h *SubscriptionHandler) Reconcile(c *gin.Context) {
	h.reconcile(c, true)
}

func (h *SubscriptionHandler) reconcile(c *gin.Context, repair bool) {
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

	report, err := h.reconcileUC.Execute(c.Request.Context(), usecases.ReconcileCommand{
		Account: account,
		ChainID: chainID,
		Repair:  repair,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", report)
}

// signer avoids handing a typed nil to the use cases.
func (h *SubscriptionHandler) signer() subscription.Signer {
	if h.wallet == nil {
		return nil
	}
	return h.wallet
}

func (h *SubscriptionHandler) path(requested string) vo.ExecutionPath {
	if requested == "" {
		return h.defaultPath
	}
	return vo.ExecutionPath(requested)
}

// writeOperationResult answers 200 on success and 422 with the result's
// message otherwise.
func writeOperationResult(c *gin.Context, result dto.OperationResult) {
	if result.Success {
		utils.SuccessResponse(c, http.StatusOK, "", result)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, utils.APIResponse{
		Success: false,
		Data:    result,
		Error: &utils.ErrorInfo{
			Type:    "operation_failed",
			Message: result.Error,
		},
	})
}
