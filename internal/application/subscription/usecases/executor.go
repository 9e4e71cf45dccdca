package usecases

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/infrastructure/lock"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

// Executor states, logged at debug level as an operation advances.
const (
	stateValidate        = "validate"
	stateCheckDelegation = "check_delegation"
	stateAcquireLock     = "acquire_lock"
	stateReadNonce       = "read_nonce"
	stateSign            = "sign"
	stateRelay           = "relay_submit"
	stateSendTx          = "send_tx"
	stateReadID          = "read_subscription_id"
	stateNotifyBackend   = "notify_backend"
	stateDone            = "done"
	stateFailed          = "failed"
)

const (
	msgWalletNotConnected = "Wallet not connected"
	msgChainNotSet        = "Wallet chain not set. Connect and try again."
)

// ExecutorDeps are the collaborators shared by subscribe and unsubscribe.
// Journal may be nil, in which case failed backend notifications are only logged.
type ExecutorDeps struct {
	Delegation DelegationChecker
	Reader     ChainReader
	TypedData  TypedDataSigner
	Transactor Transactor
	Backend    subscription.BackendGateway
	Journal    subscription.NotificationJournal
	Locker     lock.Locker
	Logger     logger.Interface
}

type executor struct {
	ExecutorDeps
}

func checkWallet(signer subscription.Signer) error {
	if signer == nil || signer.Address() == (common.Address{}) {
		return errors.NewValidationError(msgWalletNotConnected)
	}
	return nil
}

func checkChain(chainID int64) error {
	if chainID <= 0 {
		return errors.NewValidationError(msgChainNotSet)
	}
	return nil
}

// guard converts a panic into a failed result.
func guard(result *dto.OperationResult, log logger.Interface, fallback string) {
	if r := recover(); r != nil {
		log.Errorw("operation panicked", "state", stateFailed, "panic", r)
		msg := fallback
		if err, ok := r.(error); ok && err.Error() != "" {
			msg = err.Error()
		}
		*result = dto.OperationResult{Success: false, Error: msg}
	}
}

func (e *executor) fail(log logger.Interface, state string, err error) dto.OperationResult {
	log.Debugw("operation failed", "state", stateFailed, "failed_in", state, "error", err)
	return dto.FailedWith(err)
}

func (e *executor) requireDelegation(ctx context.Context, log logger.Interface, account common.Address, chainID int64) error {
	log.Debugw("executor state", "state", stateCheckDelegation)
	if !e.Delegation.IsDelegated(ctx, account, chainID) {
		return errors.NewNotDelegatedError(chainID)
	}
	return nil
}

func (e *executor) acquire(ctx context.Context, log logger.Interface, account common.Address, chainID int64) (func(), error) {
	log.Debugw("executor state", "state", stateAcquireLock)
	return e.Locker.Acquire(ctx, lock.AccountKey(chainID, account))
}

func (e *executor) readNonce(ctx context.Context, log logger.Interface, account common.Address, chainID int64) (*big.Int, error) {
	log.Debugw("executor state", "state", stateReadNonce)
	nonce, err := e.Reader.GetNonce(ctx, account, chainID)
	if err != nil {
		return nil, err
	}
	log.Debugw("signature nonce read", "nonce", nonce.String())
	return nonce, nil
}

// journal stores a notification the backend missed after its transaction was
// mined. It runs detached from ctx so a cancelled caller still leaves a record.
func (e *executor) journal(ctx context.Context, log logger.Interface, n *subscription.PendingNotification, cause error) {
	log.Warnw("backend notification failed after confirmation",
		"kind", n.Kind,
		"tx_hash", n.TxHash,
		"on_chain_id", n.OnChainSubID.String(),
		"error", cause,
	)
	if e.Journal == nil {
		return
	}
	n.LastError = errors.Message(cause)
	if err := e.Journal.Record(context.WithoutCancel(ctx), n); err != nil {
		log.Errorw("failed to journal pending notification",
			"kind", n.Kind,
			"tx_hash", n.TxHash,
			"error", err,
		)
		return
	}
	log.Infow("pending notification journaled", "journal_id", n.ID)
}

func txHash(receipt *types.Receipt) string {
	if receipt == nil {
		return ""
	}
	return receipt.TxHash.Hex()
}

func withTx(result dto.OperationResult, receipt *types.Receipt) dto.OperationResult {
	result.TxHash = txHash(receipt)
	return result
}

func unexpectedPath(path vo.ExecutionPath) error {
	return errors.NewValidationError(fmt.Sprintf("unsupported execution path %q", string(path)))
}
