package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

// ChainClient is the subset of ethclient.Client used by this package.
type ChainClient interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// DialFunc opens a client for an RPC URL.
type DialFunc func(ctx context.Context, rpcURL string) (ChainClient, error)

func dialEthclient(ctx context.Context, rpcURL string) (ChainClient, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Registry routes calls to the client for a chain id. Clients are dialed on
// first use and reused afterwards.
type Registry struct {
	mu      sync.RWMutex // Protects clients
	urls    map[int64]string
	clients map[int64]ChainClient
	dial    DialFunc
	logger  logger.Interface
}

// NewRegistry creates a registry over the chain id to RPC URL mapping.
func NewRegistry(urls map[int64]string, logger logger.Interface) *Registry {
	copied := make(map[int64]string, len(urls))
	for id, url := range urls {
		copied[id] = url
	}
	return &Registry{
		urls:    copied,
		clients: make(map[int64]ChainClient),
		dial:    dialEthclient,
		logger:  logger,
	}
}

// SetDialer replaces the dial function. Used by tests.
func (r *Registry) SetDialer(dial DialFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dial = dial
}

// Register installs a ready client for chainID, replacing any existing one.
func (r *Registry) Register(chainID int64, client ChainClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.clients[chainID]; ok && old != client {
		old.Close()
	}
	if _, ok := r.urls[chainID]; !ok {
		r.urls[chainID] = ""
	}
	r.clients[chainID] = client
}

// Supports reports whether chainID has an RPC configured.
func (r *Registry) Supports(chainID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.urls[chainID]
	return ok
}

// Client returns the client for chainID, dialing it if needed.
func (r *Registry) Client(ctx context.Context, chainID int64) (ChainClient, error) {
	r.mu.RLock()
	client, ok := r.clients[chainID]
	url, supported := r.urls[chainID]
	r.mu.RUnlock()

	if ok {
		return client, nil
	}
	if !supported {
		return nil, errors.NewUnsupportedChainError(chainID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have dialed while we waited for the write lock
	if client, ok := r.clients[chainID]; ok {
		return client, nil
	}

	client, err := r.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain %d: %w", chainID, err)
	}
	r.clients[chainID] = client

	r.logger.Debugw("chain client connected", "chain_id", chainID)
	return client, nil
}

// ChainIDs returns the supported chain ids in ascending order.
func (r *Registry) ChainIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.urls))
	for id := range r.urls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close closes every dialed client.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, client := range r.clients {
		client.Close()
		delete(r.clients, id)
	}
}
