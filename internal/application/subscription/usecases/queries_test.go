package usecases

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

func TestEnrichSubscription(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("no on-chain id skips the chain", func(t *testing.T) {
		reader := new(mockReader)
		uc := NewEnrichSubscriptionUseCase(reader)
		uc.now = func() time.Time { return now }

		got := uc.Execute(context.Background(), testAccount, 1, subscription.Subscription{ID: 1, Status: vo.StatusActive})

		assert.True(t, got.OnChainActive)
		assert.Nil(t, got.NextExecutionTime)
		reader.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no chain skips the chain", func(t *testing.T) {
		reader := new(mockReader)
		uc := NewEnrichSubscriptionUseCase(reader)

		got := uc.Execute(context.Background(), testAccount, 0, subscription.Subscription{
			ID: 1, Status: vo.StatusActive, OnChainSubscriptionID: big.NewInt(2),
		})

		assert.True(t, got.OnChainActive)
		reader.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("chain state is authoritative", func(t *testing.T) {
		reader := new(mockReader)
		reader.On("GetSubscription", mock.Anything, testAccount, int64(1), big.NewInt(2)).Return(&subscription.OnChainSubscription{
			Active:            true,
			NextExecutionTime: uint64(now.Unix() - 10),
			ExecutionCount:    3,
		})
		uc := NewEnrichSubscriptionUseCase(reader)
		uc.now = func() time.Time { return now }

		got := uc.Execute(context.Background(), testAccount, 1, subscription.Subscription{
			ID: 1, Status: vo.StatusCancelled, Cancelled: true, OnChainSubscriptionID: big.NewInt(2),
		})

		assert.True(t, got.OnChainActive)
		require.NotNil(t, got.ExecutionCount)
		assert.Equal(t, int64(3), *got.ExecutionCount)
		assert.True(t, got.IsOverdue)
	})
}

func TestListUserSubscriptions(t *testing.T) {
	t.Run("zero account returns empty without calling backend", func(t *testing.T) {
		backend := new(mockBackend)
		uc := NewListUserSubscriptionsUseCase(backend, NewEnrichSubscriptionUseCase(new(mockReader)), 0, logger.NewNopLogger())

		got, err := uc.Execute(context.Background(), ListUserSubscriptionsQuery{})

		require.NoError(t, err)
		assert.Empty(t, got)
		backend.AssertNotCalled(t, "ListUserSubscriptions", mock.Anything, mock.Anything)
	})

	t.Run("keeps backend order while enriching", func(t *testing.T) {
		records := make([]*subscription.Subscription, 0, 20)
		reader := new(mockReader)
		for i := int64(1); i <= 20; i++ {
			records = append(records, &subscription.Subscription{ID: i, Status: vo.StatusActive, OnChainSubscriptionID: big.NewInt(i)})
			reader.On("GetSubscription", mock.Anything, testAccount, int64(1), big.NewInt(i)).
				Return(&subscription.OnChainSubscription{Active: i%2 == 0, ExecutionCount: uint32(i)})
		}
		backend := new(mockBackend)
		backend.On("ListUserSubscriptions", mock.Anything, testAccount.Hex()).Return(records, nil)
		uc := NewListUserSubscriptionsUseCase(backend, NewEnrichSubscriptionUseCase(reader), 3, logger.NewNopLogger())

		got, err := uc.Execute(context.Background(), ListUserSubscriptionsQuery{Account: testAccount, ChainID: 1})

		require.NoError(t, err)
		require.Len(t, got, 20)
		for i, s := range got {
			assert.Equal(t, int64(i+1), s.ID)
			assert.Equal(t, (i+1)%2 == 0, s.OnChainActive)
			assert.Equal(t, int64(i+1), *s.ExecutionCount)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		backend := new(mockBackend)
		backend.On("ListUserSubscriptions", mock.Anything, testAccount.Hex()).Return(nil, errors.NewBackendError(500, "boom"))
		uc := NewListUserSubscriptionsUseCase(backend, NewEnrichSubscriptionUseCase(new(mockReader)), 0, logger.NewNopLogger())

		_, err := uc.Execute(context.Background(), ListUserSubscriptionsQuery{Account: testAccount, ChainID: 1})

		assert.True(t, errors.IsBackendError(err))
	})
}

func TestListPlans(t *testing.T) {
	inactive, six := false, 6
	usdc := testPlan()
	usdc.TokenDecimals = &six
	plans := []*subscription.Plan{usdc, {ID: "old", Price: "1", Active: &inactive}}
	catalog := new(mockCatalog)
	catalog.On("ListPlans", mock.Anything).Return(plans, nil)
	uc := NewListPlansUseCase(catalog, logger.NewNopLogger())

	all, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "10", all[0].DisplayPrice)

	catalog2 := new(mockCatalog)
	catalog2.On("ListPlans", mock.Anything).Return([]*subscription.Plan{testPlan(), {ID: "old", Price: "1", Active: &inactive}}, nil)
	active, err := NewListPlansUseCase(catalog2, logger.NewNopLogger()).Execute(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "plan-1", active[0].ID)
}

func TestGetPlan(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("GetPlan", mock.Anything, "plan-1").Return(testPlan(), nil)
	catalog.On("GetPlan", mock.Anything, "nope").Return(nil, errors.NewNotFoundError("plan not found"))
	uc := NewGetPlanUseCase(catalog, logger.NewNopLogger())

	p, err := uc.Execute(context.Background(), " plan-1 ")
	require.NoError(t, err)
	assert.Equal(t, "30 days", p.DisplayInterval)

	_, err = uc.Execute(context.Background(), "nope")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = uc.Execute(context.Background(), "")
	assert.True(t, errors.IsValidationError(err))
}

func TestAccountStatus(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	delegation := new(mockDelegation)
	delegation.On("ImplementationOf", mock.Anything, testAccount, int64(1)).Return(testImpl, true)
	delegation.On("ImplementationOf", mock.Anything, testAccount, int64(11155111)).Return(other, true)
	delegation.On("ImplementationOf", mock.Anything, testAccount, int64(31337)).Return(common.Address{}, false)
	admins := new(mockAdmins)
	admins.On("CheckAdmin", mock.Anything, testAccount.Hex()).Return(true)

	uc := NewAccountStatusUseCase(delegation, admins, []int64{1, 11155111, 31337}, logger.NewNopLogger())
	status, err := uc.Execute(context.Background(), testAccount, 0)

	require.NoError(t, err)
	assert.True(t, status.IsAdmin)
	require.Len(t, status.Delegations, 3)
	assert.True(t, status.Delegations[0].Delegated)
	assert.False(t, status.Delegations[1].Delegated)
	assert.Equal(t, other.Hex(), status.Delegations[1].Target)
	assert.False(t, status.Delegations[2].Delegated)
	assert.Empty(t, status.Delegations[2].Target)

	_, err = uc.Execute(context.Background(), common.Address{}, 0)
	assert.True(t, errors.IsValidationError(err))
}
