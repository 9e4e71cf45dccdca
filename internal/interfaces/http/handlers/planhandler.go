package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/logger"
	"github.com/subeth/subeth/internal/shared/utils"
)

type PlanHandler struct {
	listPlansUC  listPlansUseCase
	getPlanUC    getPlanUseCase
	managePlanUC managePlanUseCase
	wallet       Wallet
	logger       logger.Interface
}

func NewPlanHandler(
	listPlansUC listPlansUseCase,
	getPlanUC getPlanUseCase,
	managePlanUC managePlanUseCase,
	wallet Wallet,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		listPlansUC:  listPlansUC,
		getPlanUC:    getPlanUC,
		managePlanUC: managePlanUC,
		wallet:       wallet,
		logger:       logger,
	}
}

// ListPlans handles GET /api/plans?active=true
func (h *PlanHandler) ListPlans(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	plans, err := h.listPlansUC.Execute(c.Request.Context(), activeOnly)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plans)
}

// GetPlan handles GET /api/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.getPlanUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plan)
}

// CreatePlan handles POST /api/plans, signed by the gateway wallet.
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var input subscription.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warnw("invalid request body for create plan", "error", err)
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	plan, err := h.managePlanUC.Execute(c.Request.Context(), usecases.ManagePlanCommand{
		Signer: h.signer(),
		Action: usecases.PlanActionCreate,
		Input:  input,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, plan, "Plan created successfully")
}

// UpdatePlan handles PUT /api/plans/:id
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	var input subscription.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warnw("invalid request body for update plan", "error", err)
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	plan, err := h.managePlanUC.Execute(c.Request.Context(), usecases.ManagePlanCommand{
		Signer: h.signer(),
		Action: usecases.PlanActionUpdate,
		PlanID: c.Param("id"),
		Input:  input,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan updated successfully", plan)
}

// DeletePlan handles DELETE /api/plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	_, err := h.managePlanUC.Execute(c.Request.Context(), usecases.ManagePlanCommand{
		Signer: h.signer(),
		Action: usecases.PlanActionDelete,
		PlanID: c.Param("id"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *PlanHandler) signer() usecases.MessageSigner {
	if h.wallet == nil {
		return nil
	}
	return h.wallet
}
