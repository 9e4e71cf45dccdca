package handlers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
)

// Use case interfaces consumed by the handlers

type listUserSubscriptionsUseCase interface {
	Execute(ctx context.Context, query usecases.ListUserSubscriptionsQuery) ([]subscription.EnrichedSubscription, error)
}

type subscribeUseCase interface {
	Execute(ctx context.Context, cmd usecases.SubscribeCommand) dto.OperationResult
}

type unsubscribeUseCase interface {
	Execute(ctx context.Context, cmd usecases.UnsubscribeCommand) dto.OperationResult
}

type reconcileUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReconcileCommand) (*dto.ReconcileReport, error)
}

type getPlanUseCase interface {
	Execute(ctx context.Context, id string) (*dto.PlanDTO, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context, activeOnly bool) ([]*dto.PlanDTO, error)
}

type managePlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.ManagePlanCommand) (*dto.PlanDTO, error)
}

type accountStatusUseCase interface {
	Execute(ctx context.Context, account common.Address, chainID int64) (*dto.AccountStatusDTO, error)
}

// Wallet is the gateway's own signer. It is nil when no key is configured.
type Wallet interface {
	subscription.Signer
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}
