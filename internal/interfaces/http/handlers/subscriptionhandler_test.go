package handlers

import (
	"context"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subeth/subeth/internal/application/subscription/dto"
	"github.com/subeth/subeth/internal/application/subscription/usecases"
	"github.com/subeth/subeth/internal/domain/subscription"
	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
	"github.com/subeth/subeth/internal/interfaces/http/handlers/testutil"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

// =====================================================================
// Mock use cases
// =====================================================================

type mockListUC struct {
	query  usecases.ListUserSubscriptionsQuery
	result []subscription.EnrichedSubscription
	err    error
}

func (m *mockListUC) Execute(ctx context.Context, query usecases.ListUserSubscriptionsQuery) ([]subscription.EnrichedSubscription, error) {
	m.query = query
	return m.result, m.err
}

type mockSubscribeUC struct {
	cmd    usecases.SubscribeCommand
	result dto.OperationResult
}

func (m *mockSubscribeUC) Execute(ctx context.Context, cmd usecases.SubscribeCommand) dto.OperationResult {
	m.cmd = cmd
	return m.result
}

type mockUnsubscribeUC struct {
	cmd    usecases.UnsubscribeCommand
	result dto.OperationResult
}

func (m *mockUnsubscribeUC) Execute(ctx context.Context, cmd usecases.UnsubscribeCommand) dto.OperationResult {
	m.cmd = cmd
	return m.result
}

type mockReconcileUC struct {
	cmd    usecases.ReconcileCommand
	result *dto.ReconcileReport
	err    error
}

func (m *mockReconcileUC) Execute(ctx context.Context, cmd usecases.ReconcileCommand) (*dto.ReconcileReport, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockGetPlanUC struct {
	result *dto.PlanDTO
	err    error
}

func (m *mockGetPlanUC) Execute(ctx context.Context, id string) (*dto.PlanDTO, error) {
	return m.result, m.err
}

type stubWallet struct{}

func (stubWallet) Address() common.Address { return common.HexToAddress(testAddress) }

func (stubWallet) SignTypedData(context.Context, apitypes.TypedData) ([]byte, error) {
	return nil, nil
}

func (stubWallet) SignTx(_ context.Context, tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

func (stubWallet) SignMessage(context.Context, []byte) ([]byte, error) { return nil, nil }

type subscriptionHandlerMocks struct {
	list        *mockListUC
	subscribe   *mockSubscribeUC
	unsubscribe *mockUnsubscribeUC
	getPlan     *mockGetPlanUC
	reconcile   *mockReconcileUC
}

func newSubscriptionHandler(wallet Wallet) (*SubscriptionHandler, *subscriptionHandlerMocks) {
	m := &subscriptionHandlerMocks{
		list:        &mockListUC{},
		subscribe:   &mockSubscribeUC{},
		unsubscribe: &mockUnsubscribeUC{},
		getPlan:     &mockGetPlanUC{},
		reconcile:   &mockReconcileUC{},
	}
	h := NewSubscriptionHandler(m.list, m.subscribe, m.unsubscribe, m.getPlan, m.reconcile, wallet, vo.PathAuto, logger.NewNopLogger())
	return h, m
}

// =====================================================================
// Tests
// =====================================================================

func TestListSubscriptions(t *testing.T) {
	h, m := newSubscriptionHandler(nil)
	m.list.result = []subscription.EnrichedSubscription{{Subscription: subscription.Subscription{ID: 7}, OnChainActive: true}}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/accounts/x/subscriptions", nil)
	testutil.SetURLParam(c, "address", testAddress)
	testutil.SetQueryParams(c, map[string]string{"chainId": "31337"})

	h.ListSubscriptions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(31337), m.list.query.ChainID)
	assert.Equal(t, testAddress, m.list.query.Account.Hex())

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"onChainActive":true`)
}

func TestListSubscriptions_BadAddress(t *testing.T) {
	h, _ := newSubscriptionHandler(nil)
	c, w := testutil.NewTestContext(http.MethodGet, "/", nil)
	testutil.SetURLParam(c, "address", "nope")

	h.ListSubscriptions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribe_Success(t *testing.T) {
	h, m := newSubscriptionHandler(stubWallet{})
	m.getPlan.result = &dto.PlanDTO{Plan: &subscription.Plan{ID: "plan-1"}}
	m.subscribe.result = dto.Succeeded()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/subscriptions/subscribe", SubscribeRequest{ChainID: 1, PlanID: "plan-1"})

	h.Subscribe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, vo.PathAuto, m.subscribe.cmd.Path)
	assert.Equal(t, "plan-1", m.subscribe.cmd.Plan.ID)
	require.NotNil(t, m.subscribe.cmd.Signer)
}

func TestSubscribe_FailureIs422(t *testing.T) {
	h, m := newSubscriptionHandler(nil)
	m.getPlan.result = &dto.PlanDTO{Plan: &subscription.Plan{ID: "plan-1"}}
	m.subscribe.result = dto.OperationResult{Error: "Wallet not connected"}

	c, w := testutil.NewTestContext(http.MethodPost, "/", SubscribeRequest{ChainID: 1, PlanID: "plan-1", Path: "relay"})

	h.Subscribe(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Nil(t, m.subscribe.cmd.Signer)
	assert.Equal(t, vo.PathRelay, m.subscribe.cmd.Path)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Wallet not connected", resp.Error.Message)
}

func TestSubscribe_PlanNotFound(t *testing.T) {
	h, m := newSubscriptionHandler(stubWallet{})
	m.getPlan.err = errors.NewNotFoundError("plan not found")

	c, w := testutil.NewTestContext(http.MethodPost, "/", SubscribeRequest{ChainID: 1, PlanID: "nope"})

	h.Subscribe(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribe_InvalidPath(t *testing.T) {
	h, _ := newSubscriptionHandler(stubWallet{})
	c, w := testutil.NewTestContext(http.MethodPost, "/", SubscribeRequest{ChainID: 1, PlanID: "p", Path: "teleport"})

	h.Subscribe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnsubscribe(t *testing.T) {
	h, m := newSubscriptionHandler(stubWallet{})
	m.unsubscribe.result = dto.OperationResult{Success: true, TxHash: "0xabc"}

	c, w := testutil.NewTestContext(http.MethodPost, "/", UnsubscribeRequest{
		ChainID:               31337,
		OnChainSubscriptionID: "4",
		BackendSubscriptionID: 12,
		Path:                  "direct",
	})

	h.Unsubscribe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), m.unsubscribe.cmd.OnChainSubID.Int64())
	assert.Equal(t, int64(12), m.unsubscribe.cmd.BackendSubID)
	assert.Equal(t, vo.PathDirect, m.unsubscribe.cmd.Path)
}

func TestDriftAndReconcile(t *testing.T) {
	h, m := newSubscriptionHandler(nil)
	m.reconcile.result = &dto.ReconcileReport{Account: testAddress, ChainID: 1}

	c, w := testutil.NewTestContext(http.MethodGet, "/", nil)
	testutil.SetURLParam(c, "address", testAddress)
	testutil.SetQueryParams(c, map[string]string{"chainId": "1"})
	h.Drift(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, m.reconcile.cmd.Repair)

	c, w = testutil.NewTestContext(http.MethodPost, "/", nil)
	testutil.SetURLParam(c, "address", testAddress)
	testutil.SetQueryParams(c, map[string]string{"chainId": "1"})
	h.Reconcile(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, m.reconcile.cmd.Repair)
}
