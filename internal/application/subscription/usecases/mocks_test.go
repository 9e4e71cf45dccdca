package usecases

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/mock"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/infrastructure/lock"
	"github.com/subeth/subeth/internal/shared/logger"
)

var (
	testAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testImpl    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testToken   = "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
	testRecv    = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

type fakeSigner struct {
	address common.Address
}

func (s fakeSigner) Address() common.Address { return s.address }

func (s fakeSigner) SignTypedData(context.Context, apitypes.TypedData) ([]byte, error) {
	return make([]byte, 65), nil
}

func (s fakeSigner) SignTx(_ context.Context, tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type mockDelegation struct {
	mock.Mock
}

func (m *mockDelegation) IsDelegated(ctx context.Context, account common.Address, chainID int64) bool {
	return m.Called(ctx, account, chainID).Bool(0)
}

func (m *mockDelegation) ImplementationOf(ctx context.Context, account common.Address, chainID int64) (common.Address, bool) {
	args := m.Called(ctx, account, chainID)
	return args.Get(0).(common.Address), args.Bool(1)
}

func (m *mockDelegation) Implementation() common.Address {
	return testImpl
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetNonce(ctx context.Context, account common.Address, chainID int64) (*big.Int, error) {
	args := m.Called(ctx, account, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockReader) GetSubscriptionCount(ctx context.Context, account common.Address, chainID int64, block *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, chainID, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *mockReader) GetSubscription(ctx context.Context, account common.Address, chainID int64, id *big.Int) *subscription.OnChainSubscription {
	args := m.Called(ctx, account, chainID, id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*subscription.OnChainSubscription)
}

type mockTypedData struct {
	mock.Mock
}

func (m *mockTypedData) SignCreate(ctx context.Context, signer subscription.Signer, chainID int64, t subscription.Terms, nonce *big.Int) (string, error) {
	args := m.Called(ctx, signer, chainID, t, nonce)
	return args.String(0), args.Error(1)
}

func (m *mockTypedData) SignCancel(ctx context.Context, signer subscription.Signer, chainID int64, id, nonce *big.Int) (string, error) {
	args := m.Called(ctx, signer, chainID, id, nonce)
	return args.String(0), args.Error(1)
}

type mockTransactor struct {
	mock.Mock
}

func (m *mockTransactor) Create(ctx context.Context, signer subscription.Signer, chainID int64, terms subscription.Terms) (*types.Receipt, error) {
	args := m.Called(ctx, signer, chainID, terms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *mockTransactor) Cancel(ctx context.Context, signer subscription.Signer, chainID int64, id *big.Int) (*types.Receipt, error) {
	args := m.Called(ctx, signer, chainID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListUserSubscriptions(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Subscription), args.Error(1)
}

func (m *mockBackend) CreateSubscription(ctx context.Context, req subscription.CreateRecordRequest) (*subscription.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *mockBackend) CancelSubscription(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) RelayCreate(ctx context.Context, req subscription.RelayCreateRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockBackend) RelayCancel(ctx context.Context, req subscription.RelayCancelRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ListPlans(ctx context.Context) ([]*subscription.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.Plan), args.Error(1)
}

func (m *mockCatalog) GetPlan(ctx context.Context, id string) (*subscription.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Plan), args.Error(1)
}

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Record(ctx context.Context, n *subscription.PendingNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockJournal) ListPending(ctx context.Context, chainID int64, account string) ([]*subscription.PendingNotification, error) {
	args := m.Called(ctx, chainID, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*subscription.PendingNotification), args.Error(1)
}

func (m *mockJournal) MarkDone(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockJournal) MarkFailed(ctx context.Context, id uint, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type mockAdmins struct {
	mock.Mock
}

func (m *mockAdmins) CheckAdmin(ctx context.Context, address string) bool {
	return m.Called(ctx, address).Bool(0)
}

type executorMocks struct {
	delegation *mockDelegation
	reader     *mockReader
	typed      *mockTypedData
	transactor *mockTransactor
	backend    *mockBackend
	journal    *mockJournal
}

func newExecutorMocks() (*executorMocks, ExecutorDeps) {
	m := &executorMocks{
		delegation: new(mockDelegation),
		reader:     new(mockReader),
		typed:      new(mockTypedData),
		transactor: new(mockTransactor),
		backend:    new(mockBackend),
		journal:    new(mockJournal),
	}
	return m, ExecutorDeps{
		Delegation: m.delegation,
		Reader:     m.reader,
		TypedData:  m.typed,
		Transactor: m.transactor,
		Backend:    m.backend,
		Journal:    m.journal,
		Locker:     lock.NewMemoryLocker(),
		Logger:     logger.NewNopLogger(),
	}
}

func (m *executorMocks) assertExpectations(t mock.TestingT) {
	m.delegation.AssertExpectations(t)
	m.reader.AssertExpectations(t)
	m.typed.AssertExpectations(t)
	m.transactor.AssertExpectations(t)
	m.backend.AssertExpectations(t)
	m.journal.AssertExpectations(t)
}

func testPlan() *subscription.Plan {
	return &subscription.Plan{
		ID:              "plan-1",
		Name:            "Pro",
		Price:           "10000000",
		Token:           testToken,
		Receiver:        testRecv,
		IntervalSeconds: 2592000,
	}
}

func minedReceipt(block int64) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0xabc123"),
		BlockNumber: big.NewInt(block),
	}
}
