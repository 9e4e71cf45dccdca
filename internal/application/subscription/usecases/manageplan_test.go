package usecases

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/infrastructure/wallet"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/logger"
)

type mockPlanAdmin struct {
	mock.Mock
}

func (m *mockPlanAdmin) CreatePlan(ctx context.Context, input subscription.PlanInput, auth subscription.AdminAuth) (*subscription.Plan, error) {
	args := m.Called(ctx, input, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Plan), args.Error(1)
}

func (m *mockPlanAdmin) UpdatePlan(ctx context.Context, id string, input subscription.PlanInput, auth subscription.AdminAuth) (*subscription.Plan, error) {
	args := m.Called(ctx, id, input, auth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Plan), args.Error(1)
}

func (m *mockPlanAdmin) DeletePlan(ctx context.Context, id string, auth subscription.AdminAuth) error {
	return m.Called(ctx, id, auth).Error(0)
}

func validPlanInput() subscription.PlanInput {
	return subscription.PlanInput{
		Name:            "Pro",
		Price:           "10000000",
		Token:           testToken,
		Receiver:        testRecv,
		IntervalSeconds: 2592000,
	}
}

func TestAdminMessage(t *testing.T) {
	assert.Equal(t, "subeth:create-plan:new", AdminMessage(PlanActionCreate, ""))
	assert.Equal(t, "subeth:delete-plan:p1", AdminMessage(PlanActionDelete, "p1"))
}

func TestManagePlan_CreateSignsAsAdmin(t *testing.T) {
	w, err := wallet.FromHex(anvilKey)
	require.NoError(t, err)

	admin := new(mockPlanAdmin)
	admins := new(mockAdmins)
	admins.On("CheckAdmin", mock.Anything, w.Address().Hex()).Return(true)

	var auth subscription.AdminAuth
	admin.On("CreatePlan", mock.Anything, validPlanInput(), mock.Anything).
		Run(func(args mock.Arguments) { auth = args.Get(2).(subscription.AdminAuth) }).
		Return(testPlan(), nil)

	uc := NewManagePlanUseCase(admin, admins, logger.NewNopLogger())
	plan, err := uc.Execute(context.Background(), ManagePlanCommand{
		Signer: w,
		Action: PlanActionCreate,
		Input:  validPlanInput(),
	})

	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, w.Address().Hex(), auth.Address)

	sig, err := hexutil.Decode(auth.Signature)
	require.NoError(t, err)
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("subeth:create-plan:new")), sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), crypto.PubkeyToAddress(*pub))
}

func TestManagePlan_RefusesNonAdmin(t *testing.T) {
	admin := new(mockPlanAdmin)
	admins := new(mockAdmins)
	admins.On("CheckAdmin", mock.Anything, testAccount.Hex()).Return(false)

	w, err := wallet.FromHex(anvilKey)
	require.NoError(t, err)
	require.Equal(t, testAccount, w.Address())

	uc := NewManagePlanUseCase(admin, admins, logger.NewNopLogger())
	_, err = uc.Execute(context.Background(), ManagePlanCommand{Signer: w, Action: PlanActionDelete, PlanID: "p1"})

	assert.True(t, errors.IsForbiddenError(err))
	admin.AssertNotCalled(t, "DeletePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestManagePlan_Validation(t *testing.T) {
	w, err := wallet.FromHex(anvilKey)
	require.NoError(t, err)
	bad := validPlanInput()
	bad.Receiver = "not-an-address"

	tests := []struct {
		name string
		cmd  ManagePlanCommand
	}{
		{"no signer", ManagePlanCommand{Action: PlanActionCreate, Input: validPlanInput()}},
		{"bad input", ManagePlanCommand{Signer: w, Action: PlanActionCreate, Input: bad}},
		{"update without id", ManagePlanCommand{Signer: w, Action: PlanActionUpdate, Input: validPlanInput()}},
		{"delete without id", ManagePlanCommand{Signer: w, Action: PlanActionDelete}},
		{"unknown action", ManagePlanCommand{Signer: w, Action: "archive", PlanID: "p1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admins := new(mockAdmins)
			uc := NewManagePlanUseCase(new(mockPlanAdmin), admins, logger.NewNopLogger())
			_, err := uc.Execute(context.Background(), tt.cmd)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
			admins.AssertNotCalled(t, "CheckAdmin", mock.Anything, mock.Anything)
		})
	}
}
