package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

// ChainReader performs view calls on the delegate at an account's address.
type ChainReader struct {
	registry *Registry
	logger   logger.Interface
}

// NewChainReader creates a new chain reader
func NewChainReader(registry *Registry, logger logger.Interface) *ChainReader {
	return &ChainReader{
		registry: registry,
		logger:   logger,
	}
}

func (r *ChainReader) call(ctx context.Context, account common.Address, chainID int64, block *big.Int, method string, args ...interface{}) ([]byte, error) {
	client, err := r.registry.Client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	data, err := delegateABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &account, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	return out, nil
}

// GetNonce reads signatureNonce(). It must be read fresh before every signature.
func (r *ChainReader) GetNonce(ctx context.Context, account common.Address, chainID int64) (*big.Int, error) {
	out, err := r.call(ctx, account, chainID, nil, methodSigNonce)
	if err != nil {
		return nil, wrapReadError("failed to read signature nonce", err)
	}
	nonce, err := unpackUint256(methodSigNonce, out)
	if err != nil {
		return nil, errors.NewChainReadError("failed to decode signature nonce", err.Error())
	}
	return nonce, nil
}

// GetSubscriptionCount reads subscriptionCount() at block, or at latest when
// block is nil.
func (r *ChainReader) GetSubscriptionCount(ctx context.Context, account common.Address, chainID int64, block *big.Int) (*big.Int, error) {
	out, err := r.call(ctx, account, chainID, block, methodCount)
	if err != nil {
		return nil, wrapReadError("failed to read subscription count", err)
	}
	count, err := unpackUint256(methodCount, out)
	if err != nil {
		return nil, errors.NewChainReadError("failed to decode subscription count", err.Error())
	}
	return count, nil
}

// GetSubscription reads getSubscription(id). Any failure yields nil so
// callers fall back to backend data.
func (r *ChainReader) GetSubscription(ctx context.Context, account common.Address, chainID int64, id *big.Int) *subscription.OnChainSubscription {
	if id == nil {
		return nil
	}

	out, err := r.call(ctx, account, chainID, nil, methodGet, id)
	if err != nil {
		r.logger.Debugw("on-chain subscription read failed",
			"chain_id", chainID,
			"account", account.Hex(),
			"subscription_id", id.String(),
			"error", err,
		)
		return nil
	}

	tuple, err := unpackSubscription(out)
	if err != nil {
		r.logger.Warnw("failed to decode on-chain subscription",
			"chain_id", chainID,
			"subscription_id", id.String(),
			"error", err,
		)
		return nil
	}
	return tuple.toDomain()
}

func wrapReadError(message string, err error) error {
	if errors.IsUnsupportedChainError(err) {
		return err
	}
	return errors.NewChainReadError(message, err.Error())
}
