package usecases

import (
	"context"
	"math/big"

	"github.com/google/uuid"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

type UnsubscribeCommand struct {
	Signer       subscription.Signer
	ChainID      int64
	OnChainSubID *big.Int
	BackendSubID int64
	Path         vo.ExecutionPath
}

// UnsubscribeUseCase cancels a subscription on the delegate and tells the
// backend about it.
type UnsubscribeUseCase struct {
	executor
}

func NewUnsubscribeUseCase(deps ExecutorDeps) *UnsubscribeUseCase {
	return &UnsubscribeUseCase{executor: executor{ExecutorDeps: deps}}
}

func (uc *UnsubscribeUseCase) Execute(ctx context.Context, cmd UnsubscribeCommand) (result dto.OperationResult) {
	log := uc.Logger.With("op_id", uuid.NewString(), "operation", "unsubscribe")
	defer guard(&result, log, "Unsubscribe failed")

	log.Debugw("executor state", "state", stateValidate)
	if err := checkWallet(cmd.Signer); err != nil {
		return uc.fail(log, stateValidate, err)
	}
	if cmd.OnChainSubID == nil || cmd.OnChainSubID.Sign() <= 0 {
		return uc.fail(log, stateValidate, errors.NewValidationError("Subscription has no on-chain id"))
	}
	if cmd.BackendSubID <= 0 {
		return uc.fail(log, stateValidate, errors.NewValidationError("Subscription has no backend id"))
	}
	if err := checkChain(cmd.ChainID); err != nil {
		return uc.fail(log, stateValidate, err)
	}

	account := cmd.Signer.Address()
	path := cmd.Path.Resolve()
	log = log.With(
		"account", account.Hex(),
		"chain_id", cmd.ChainID,
		"on_chain_id", cmd.OnChainSubID.String(),
		"backend_id", cmd.BackendSubID,
		"path", string(path),
	)

	if err := uc.requireDelegation(ctx, log, account, cmd.ChainID); err != nil {
		return uc.fail(log, stateCheckDelegation, err)
	}

	release, err := uc.acquire(ctx, log, account, cmd.ChainID)
	if err != nil {
		return uc.fail(log, stateAcquireLock, err)
	}
	defer release()

	switch path {
	case vo.PathRelay:
		result = uc.relay(ctx, log, cmd)
	case vo.PathDirect:
		result = uc.direct(ctx, log, cmd)
	default:
		return uc.fail(log, stateValidate, unexpectedPath(path))
	}
	if result.Success {
		log.Infow("subscription cancelled", "state", stateDone, "tx_hash", result.TxHash)
	}
	return result
}

func (uc *UnsubscribeUseCase) relay(ctx context.Context, log logger.Interface, cmd UnsubscribeCommand) dto.OperationResult {
	account := cmd.Signer.Address()

	nonce, err := uc.readNonce(ctx, log, account, cmd.ChainID)
	if err != nil {
		return uc.fail(log, stateReadNonce, err)
	}

	log.Debugw("executor state", "state", stateSign)
	signature, err := uc.TypedData.SignCancel(ctx, cmd.Signer, cmd.ChainID, cmd.OnChainSubID, nonce)
	if err != nil {
		return uc.fail(log, stateSign, err)
	}

	log.Debugw("executor state", "state", stateRelay)
	req := subscription.RelayCancelRequest{
		UserID:       account.Hex(),
		BackendSubID: cmd.BackendSubID,
		OnChainSubID: cmd.OnChainSubID.String(),
		Nonce:        nonce.String(),
		Signature:    signature,
	}
	if err := uc.Backend.RelayCancel(ctx, req); err != nil {
		return uc.fail(log, stateRelay, err)
	}
	return dto.Succeeded()
}

func (uc *UnsubscribeUseCase) direct(ctx context.Context, log logger.Interface, cmd UnsubscribeCommand) dto.OperationResult {
	log.Debugw("executor state", "state", stateSendTx)
	receipt, err := uc.Transactor.Cancel(ctx, cmd.Signer, cmd.ChainID, cmd.OnChainSubID)
	if err != nil {
		return uc.fail(log, stateSendTx, err)
	}
	log = log.With("tx_hash", receipt.TxHash.Hex())

	log.Debugw("executor state", "state", stateNotifyBackend)
	if err := uc.Backend.CancelSubscription(ctx, cmd.BackendSubID); err != nil {
		uc.journal(ctx, log, &subscription.PendingNotification{
			Kind:         subscription.NotificationCancel,
			ChainID:      cmd.ChainID,
			Account:      cmd.Signer.Address().Hex(),
			BackendSubID: cmd.BackendSubID,
			OnChainSubID: cmd.OnChainSubID,
			TxHash:       receipt.TxHash.Hex(),
		}, err)
		return withTx(uc.fail(log, stateNotifyBackend, err), receipt)
	}
	return withTx(dto.Succeeded(), receipt)
}
