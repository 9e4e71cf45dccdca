package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

type PlanAction string

const (
	PlanActionCreate PlanAction = "create"
	PlanActionUpdate PlanAction = "update"
	PlanActionDelete PlanAction = "delete"
)

// MessageSigner produces EIP-191 personal signatures.
type MessageSigner interface {
	Address() common.Address
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

type ManagePlanCommand struct {
	Signer MessageSigner
	Action PlanAction
	// PlanID is required for update and delete.
	PlanID string
	Input  subscription.PlanInput
}

// AdminMessage is the text an admin signs to authorize a plan mutation.
// Creates use "new" as the plan id.
func AdminMessage(action PlanAction, planID string) string {
	if planID == "" {
		planID = "new"
	}
	return fmt.Sprintf("subeth:%s-plan:%s", action, planID)
}

// ManagePlanUseCase creates, updates and deletes plans as an admin.
type ManagePlanUseCase struct {
	admin  subscription.PlanAdmin
	admins AdminChecker
	logger logger.Interface
}

func NewManagePlanUseCase(admin subscription.PlanAdmin, admins AdminChecker, logger logger.Interface) *ManagePlanUseCase {
	return &ManagePlanUseCase{admin: admin, admins: admins, logger: logger}
}

// Execute returns the resulting plan; it is nil for deletes.
func (uc *ManagePlanUseCase) Execute(ctx context.Context, cmd ManagePlanCommand) (*dto.PlanDTO, error) {
	if cmd.Signer == nil || cmd.Signer.Address() == (common.Address{}) {
		return nil, errors.NewValidationError(msgWalletNotConnected)
	}
	cmd.PlanID = strings.TrimSpace(cmd.PlanID)

	switch cmd.Action {
	case PlanActionCreate:
		if err := cmd.Input.Validate(); err != nil {
			return nil, err
		}
		cmd.PlanID = ""
	case PlanActionUpdate:
		if cmd.PlanID == "" {
			return nil, errors.NewValidationError("plan id is required")
		}
		if err := cmd.Input.Validate(); err != nil {
			return nil, err
		}
	case PlanActionDelete:
		if cmd.PlanID == "" {
			return nil, errors.NewValidationError("plan id is required")
		}
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown plan action %q", cmd.Action))
	}

	address := cmd.Signer.Address().Hex()
	if !uc.admins.CheckAdmin(ctx, address) {
		uc.logger.Warnw("plan mutation refused for non-admin", "address", address, "action", cmd.Action)
		return nil, errors.NewForbiddenError("Admin access required")
	}

	sig, err := cmd.Signer.SignMessage(ctx, []byte(AdminMessage(cmd.Action, cmd.PlanID)))
	if err != nil {
		return nil, errors.NewSigningRejectedError("Signature request rejected", err.Error())
	}
	auth := subscription.AdminAuth{Address: address, Signature: hexutil.Encode(sig)}

	var plan *subscription.Plan
	switch cmd.Action {
	case PlanActionCreate:
		plan, err = uc.admin.CreatePlan(ctx, cmd.Input, auth)
	case PlanActionUpdate:
		plan, err = uc.admin.UpdatePlan(ctx, cmd.PlanID, cmd.Input, auth)
	case PlanActionDelete:
		err = uc.admin.DeletePlan(ctx, cmd.PlanID, auth)
	}
	if err != nil {
		uc.logger.Errorw("plan mutation failed", "action", cmd.Action, "plan_id", cmd.PlanID, "error", err)
		return nil, err
	}

	uc.logger.Infow("plan mutated", "action", cmd.Action, "plan_id", cmd.PlanID, "admin", address)
	if plan == nil {
		return nil, nil
	}
	return dto.ToPlanDTO(plan), nil
}
