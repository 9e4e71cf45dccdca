package blockchain

import (
	"context"
	stderrors "errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

const (
	defaultConfirmTimeout = 3 * time.Minute
	defaultReceiptPoll    = 2 * time.Second
	// gasBufferPercent is added on top of the node's estimate
	gasBufferPercent = 20
)

// Transactor sends self-calls to the delegate at the signer's address and
// waits for them to be mined.
type Transactor struct {
	registry       *Registry
	confirmTimeout time.Duration
	receiptPoll    time.Duration
	logger         logger.Interface
}

// NewTransactor creates a transactor. Zero durations fall back to defaults.
func NewTransactor(registry *Registry, confirmTimeout, receiptPoll time.Duration, logger logger.Interface) *Transactor {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	if receiptPoll <= 0 {
		receiptPoll = defaultReceiptPoll
	}
	return &Transactor{
		registry:       registry,
		confirmTimeout: confirmTimeout,
		receiptPoll:    receiptPoll,
		logger:         logger,
	}
}

// Submit builds an EIP-1559 transaction to the signer's own address with zero
// value, has the signer sign it, sends it and waits for a successful receipt.
func (t *Transactor) Submit(ctx context.Context, signer subscription.Signer, chainID int64, data []byte) (*types.Receipt, error) {
	client, err := t.registry.Client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	account := signer.Address()
	tx, err := t.buildTx(ctx, client, account, chainID, data)
	if err != nil {
		return nil, err
	}

	signed, err := signer.SignTx(ctx, tx, big.NewInt(chainID))
	if err != nil {
		return nil, errors.NewSigningRejectedError("Transaction signature rejected", err.Error())
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return nil, errors.NewTransactionFailedError("Failed to send transaction", err.Error())
	}

	t.logger.Infow("transaction sent",
		"chain_id", chainID,
		"account", account.Hex(),
		"tx_hash", signed.Hash().Hex(),
		"nonce", signed.Nonce(),
	)

	return t.WaitMined(ctx, client, signed.Hash())
}

// Create sends createSubscription(terms) as a self-call.
func (t *Transactor) Create(ctx context.Context, signer subscription.Signer, chainID int64, terms subscription.Terms) (*types.Receipt, error) {
	data, err := PackCreate(terms)
	if err != nil {
		return nil, errors.NewValidationError("Invalid subscription terms", err.Error())
	}
	return t.Submit(ctx, signer, chainID, data)
}

// Cancel sends cancelSubscription(id) as a self-call.
func (t *Transactor) Cancel(ctx context.Context, signer subscription.Signer, chainID int64, id *big.Int) (*types.Receipt, error) {
	data, err := PackCancel(id)
	if err != nil {
		return nil, errors.NewValidationError("Invalid subscription id", err.Error())
	}
	return t.Submit(ctx, signer, chainID, data)
}

func (t *Transactor) buildTx(ctx context.Context, client ChainClient, account common.Address, chainID int64, data []byte) (*types.Transaction, error) {
	nonce, err := client.PendingNonceAt(ctx, account)
	if err != nil {
		return nil, errors.NewChainReadError("failed to read account nonce", err.Error())
	}

	tip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.NewChainReadError("failed to suggest gas tip", err.Error())
	}

	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.NewChainReadError("failed to read latest header", err.Error())
	}

	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:      account,
		To:        &account,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Value:     new(big.Int),
		Data:      data,
	})
	if err != nil {
		return nil, errors.NewTransactionFailedError("Transaction would revert", err.Error())
	}
	gas += gas * gasBufferPercent / 100

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &account,
		Value:     new(big.Int),
		Data:      data,
	}), nil
}

// WaitMined polls for the receipt until it appears or the confirm timeout
// elapses. A reverted receipt is an error.
func (t *Transactor) WaitMined(ctx context.Context, client ChainClient, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, t.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(t.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, errors.NewTransactionFailedError("Transaction reverted", hash.Hex())
			}
			return receipt, nil
		case err != nil && !stderrors.Is(err, ethereum.NotFound):
			t.logger.Debugw("receipt lookup failed, retrying",
				"tx_hash", hash.Hex(),
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return nil, errors.NewTransactionFailedError("Timed out waiting for transaction confirmation", hash.Hex())
		case <-ticker.C:
		}
	}
}
