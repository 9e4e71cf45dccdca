package blockchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

func TestRegistry_UnsupportedChain(t *testing.T) {
	r := NewRegistry(map[int64]string{1: "https://example.invalid"}, logger.NewNopLogger())

	_, err := r.Client(context.Background(), 999)

	require.Error(t, err)
	assert.True(t, apperrors.IsUnsupportedChainError(err))
	assert.Equal(t, "No RPC configured for chain 999", apperrors.Message(err))
	assert.False(t, r.Supports(999))
}

func TestRegistry_DialsOnce(t *testing.T) {
	r := NewRegistry(map[int64]string{1: "https://rpc.one", 5: "https://rpc.five"}, logger.NewNopLogger())
	client := new(mockChainClient)
	dials := 0
	r.SetDialer(func(_ context.Context, url string) (ChainClient, error) {
		dials++
		assert.Equal(t, "https://rpc.five", url)
		return client, nil
	})

	first, err := r.Client(context.Background(), 5)
	require.NoError(t, err)
	second, err := r.Client(context.Background(), 5)
	require.NoError(t, err)

	assert.Same(t, client, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, dials)
}

func TestRegistry_DialError(t *testing.T) {
	r := NewRegistry(map[int64]string{1: "https://rpc.one"}, logger.NewNopLogger())
	r.SetDialer(func(context.Context, string) (ChainClient, error) {
		return nil, errors.New("connection refused")
	})

	_, err := r.Client(context.Background(), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRegistry_ChainIDsAndClose(t *testing.T) {
	r := NewRegistry(map[int64]string{11155111: "a", 1: "b"}, logger.NewNopLogger())
	client := new(mockChainClient)
	client.On("Close").Return().Once()
	r.Register(31337, client)

	assert.Equal(t, []int64{1, 31337, 11155111}, r.ChainIDs())

	r.Close()
	client.AssertExpectations(t)
}
