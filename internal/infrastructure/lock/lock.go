// Package lock serializes signing operations per account so two operations
// never read and consume the same signature nonce.
package lock

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/subeth/subeth/internal/shared/errors"
)

// Locker hands out exclusive per-key locks.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// function releases it and is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AccountKey builds the lock key for an account on a chain.
func AccountKey(chainID int64, account common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(account.Hex()))
}

func busyError(key string) error {
	return errors.NewConflictError("Another operation for this account is in progress", key)
}
