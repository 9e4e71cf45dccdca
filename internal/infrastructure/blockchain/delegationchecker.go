package blockchain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/subeth/subeth/internal/shared/logger"
)

// DelegationChecker reports whether an EOA's code is an EIP-7702 designator
// pointing at the configured implementation. Results are never cached.
type DelegationChecker struct {
	registry       *Registry
	implementation common.Address
	logger         logger.Interface
}

// NewDelegationChecker creates a checker for the given implementation address.
func NewDelegationChecker(registry *Registry, implementation string, logger logger.Interface) *DelegationChecker {
	return &DelegationChecker{
		registry:       registry,
		implementation: common.HexToAddress(strings.TrimSpace(implementation)),
		logger:         logger,
	}
}

// Implementation returns the expected delegation target.
func (c *DelegationChecker) Implementation() common.Address {
	return c.implementation
}

// IsDelegated fails closed: unsupported chains, read errors and code that is
// not a designator all report false.
func (c *DelegationChecker) IsDelegated(ctx context.Context, account common.Address, chainID int64) bool {
	target, ok := c.ImplementationOf(ctx, account, chainID)
	if !ok {
		return false
	}
	// common.Address compares raw bytes, which is case-insensitive on the hex form
	return target == c.implementation
}

// ImplementationOf returns the address account currently delegates to.
func (c *DelegationChecker) ImplementationOf(ctx context.Context, account common.Address, chainID int64) (common.Address, bool) {
	if !c.registry.Supports(chainID) {
		return common.Address{}, false
	}

	client, err := c.registry.Client(ctx, chainID)
	if err != nil {
		c.logger.Warnw("delegation check skipped, chain client unavailable",
			"chain_id", chainID,
			"account", account.Hex(),
			"error", err,
		)
		return common.Address{}, false
	}

	code, err := client.CodeAt(ctx, account, nil)
	if err != nil {
		c.logger.Warnw("failed to read account code",
			"chain_id", chainID,
			"account", account.Hex(),
			"error", err,
		)
		return common.Address{}, false
	}

	return types.ParseDelegation(code)
}
