package usecases

import (
	"context"
	"strings"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

type ListPlansUseCase struct {
	catalog subscription.PlanCatalog
	logger  logger.Interface
}

func NewListPlansUseCase(catalog subscription.PlanCatalog, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{catalog: catalog, logger: logger}
}

// Execute returns all plans; ActiveOnly drops plans explicitly marked inactive.
func (uc *ListPlansUseCase) Execute(ctx context.Context, activeOnly bool) ([]*dto.PlanDTO, error) {
	plans, err := uc.catalog.ListPlans(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, err
	}
	if activeOnly {
		kept := plans[:0]
		for _, p := range plans {
			if p != nil && (p.Active == nil || *p.Active) {
				kept = append(kept, p)
			}
		}
		plans = kept
	}
	return dto.ToPlanDTOs(plans), nil
}

type GetPlanUseCase struct {
	catalog subscription.PlanCatalog
	logger  logger.Interface
}

func NewGetPlanUseCase(catalog subscription.PlanCatalog, logger logger.Interface) *GetPlanUseCase {
	return &GetPlanUseCase{catalog: catalog, logger: logger}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, id string) (*dto.PlanDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewValidationError("plan id is required")
	}
	plan, err := uc.catalog.GetPlan(ctx, id)
	if err != nil {
		uc.logger.Warnw("failed to get plan", "plan_id", id, "error", err)
		return nil, err
	}
	return dto.ToPlanDTO(plan), nil
}
