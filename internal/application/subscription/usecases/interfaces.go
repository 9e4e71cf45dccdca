package usecases

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/subeth/subeth/internal/domain/subscription"
)

// DelegationChecker reports EIP-7702 delegation; it never errors.
type DelegationChecker interface {
	IsDelegated(ctx context.Context, account common.Address, chainID int64) bool
	ImplementationOf(ctx context.Context, account common.Address, chainID int64) (common.Address, bool)
	Implementation() common.Address
}

// ChainReader reads the delegate at an account.
type ChainReader interface {
	GetNonce(ctx context.Context, account common.Address, chainID int64) (*big.Int, error)
	GetSubscriptionCount(ctx context.Context, account common.Address, chainID int64, block *big.Int) (*big.Int, error)
	GetSubscription(ctx context.Context, account common.Address, chainID int64, id *big.Int) *subscription.OnChainSubscription
}

// TypedDataSigner produces EIP-712 authorizations for the relay path.
type TypedDataSigner interface {
	SignCreate(ctx context.Context, signer subscription.Signer, chainID int64, t subscription.Terms, nonce *big.Int) (string, error)
	SignCancel(ctx context.Context, signer subscription.Signer, chainID int64, subscriptionID, nonce *big.Int) (string, error)
}

// Transactor submits direct-path transactions and waits for them to be mined.
type Transactor interface {
	Create(ctx context.Context, signer subscription.Signer, chainID int64, terms subscription.Terms) (*types.Receipt, error)
	Cancel(ctx context.Context, signer subscription.Signer, chainID int64, id *big.Int) (*types.Receipt, error)
}

// AdminChecker asks the backend whether an address is an admin.
type AdminChecker interface {
	CheckAdmin(ctx context.Context, address string) bool
}
