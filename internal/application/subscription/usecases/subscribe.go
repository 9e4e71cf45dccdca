package usecases

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

type SubscribeCommand struct {
	Signer  subscription.Signer
	ChainID int64
	Plan    *subscription.Plan
	Path    vo.ExecutionPath
}

// SubscribeUseCase creates an open-ended subscription for the signer's
// account, either through the gasless relay or with a direct transaction.
type SubscribeUseCase struct {
	executor
}

func NewSubscribeUseCase(deps ExecutorDeps) *SubscribeUseCase {
	return &SubscribeUseCase{executor: executor{ExecutorDeps: deps}}
}

// Execute never returns an error; failures are reported in the result.
func (uc *SubscribeUseCase) Execute(ctx context.Context, cmd SubscribeCommand) (result dto.OperationResult) {
	log := uc.Logger.With("op_id", uuid.NewString(), "operation", "subscribe")
	defer guard(&result, log, "Subscribe failed")

	log.Debugw("executor state", "state", stateValidate)
	if err := checkWallet(cmd.Signer); err != nil {
		return uc.fail(log, stateValidate, err)
	}
	if cmd.Plan == nil {
		return uc.fail(log, stateValidate, errors.NewValidationError("Plan is required"))
	}
	terms, err := cmd.Plan.Terms()
	if err != nil {
		return uc.fail(log, stateValidate, err)
	}
	if err := checkChain(cmd.ChainID); err != nil {
		return uc.fail(log, stateValidate, err)
	}

	account := cmd.Signer.Address()
	path := cmd.Path.Resolve()
	log = log.With("account", account.Hex(), "chain_id", cmd.ChainID, "plan_id", cmd.Plan.ID, "path", string(path))

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
		result = uc.relay(ctx, log, cmd, terms)
	case vo.PathDirect:
		result = uc.direct(ctx, log, cmd, terms)
	default:
		return uc.fail(log, stateValidate, unexpectedPath(path))
	}
	if result.Success {
		log.Infow("subscription created", "state", stateDone, "tx_hash", result.TxHash)
	}
	return result
}

func (uc *SubscribeUseCase) relay(ctx context.Context, log logger.Interface, cmd SubscribeCommand, terms subscription.Terms) dto.OperationResult {
	account := cmd.Signer.Address()

	nonce, err := uc.readNonce(ctx, log, account, cmd.ChainID)
	if err != nil {
		return uc.fail(log, stateReadNonce, err)
	}

	log.Debugw("executor state", "state", stateSign)
	signature, err := uc.TypedData.SignCreate(ctx, cmd.Signer, cmd.ChainID, terms, nonce)
	if err != nil {
		return uc.fail(log, stateSign, err)
	}

	log.Debugw("executor state", "state", stateRelay)
	req := subscription.RelayCreateRequest{
		UserID:        account.Hex(),
		PlanID:        cmd.Plan.ID,
		Token:         terms.Token.Hex(),
		Receiver:      terms.Receiver.Hex(),
		Amount:        terms.Amount.String(),
		Interval:      strconv.FormatUint(terms.Interval, 10),
		StartTime:     strconv.FormatUint(terms.StartTime, 10),
		EndTime:       strconv.FormatUint(terms.EndTime, 10),
		MaxExecutions: strconv.FormatUint(uint64(terms.MaxExecutions), 10),
		Nonce:         nonce.String(),
		Signature:     signature,
	}
	if err := uc.Backend.RelayCreate(ctx, req); err != nil {
		return uc.fail(log, stateRelay, err)
	}
	return dto.Succeeded()
}

func (uc *SubscribeUseCase) direct(ctx context.Context, log logger.Interface, cmd SubscribeCommand, terms subscription.Terms) dto.OperationResult {
	account := cmd.Signer.Address()

	log.Debugw("executor state", "state", stateSendTx)
	receipt, err := uc.Transactor.Create(ctx, cmd.Signer, cmd.ChainID, terms)
	if err != nil {
		return uc.fail(log, stateSendTx, err)
	}
	log = log.With("tx_hash", receipt.TxHash.Hex())

	// Ids are 1-based, so the count at the receipt block is the new id.
	log.Debugw("executor state", "state", stateReadID)
	id, err := uc.Reader.GetSubscriptionCount(ctx, account, cmd.ChainID, receipt.BlockNumber)
	if err != nil {
		return withTx(uc.fail(log, stateReadID, err), receipt)
	}

	log.Debugw("executor state", "state", stateNotifyBackend, "on_chain_id", id.String())
	req := subscription.CreateRecordRequest{
		UserID:                account.Hex(),
		PlanID:                cmd.Plan.ID,
		OnChainSubscriptionID: id,
		ChainID:               cmd.ChainID,
		TxHash:                receipt.TxHash.Hex(),
	}
	if _, err := uc.Backend.CreateSubscription(ctx, req); err != nil {
		uc.journal(ctx, log, &subscription.PendingNotification{
			Kind:         subscription.NotificationCreate,
			ChainID:      cmd.ChainID,
			Account:      account.Hex(),
			PlanID:       cmd.Plan.ID,
			OnChainSubID: id,
			TxHash:       receipt.TxHash.Hex(),
		}, err)
		return withTx(uc.fail(log, stateNotifyBackend, err), receipt)
	}
	return withTx(dto.Succeeded(), receipt)
}
