package subscription

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/subeth/subeth/internal/shared/errors"
)

// BackendGateway is the subscription backend's REST surface.
type BackendGateway interface {
	ListUserSubscriptions(ctx context.Context, userID string) ([]*Subscription, error)
	CreateSubscription(ctx context.Context, req CreateRecordRequest) (*Subscription, error)
	CancelSubscription(ctx context.Context, id int64) error
	RelayCreate(ctx context.Context, req RelayCreateRequest) error
	RelayCancel(ctx context.Context, req RelayCancelRequest) error
}

// PlanCatalog reads plans from the backend.
type PlanCatalog interface {
	ListPlans(ctx context.Context) ([]*Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
}

// PlanAdmin mutates plans. Every call carries an admin's personal-sign
// signature; the backend verifies it.
type PlanAdmin interface {
	CreatePlan(ctx context.Context, input PlanInput, auth AdminAuth) (*Plan, error)
	UpdatePlan(ctx context.Context, id string, input PlanInput, auth AdminAuth) (*Plan, error)
	DeletePlan(ctx context.Context, id string, auth AdminAuth) error
}

// AdminAuth travels as the x-admin-address and x-admin-signature headers.
type AdminAuth struct {
	Address   string
	Signature string
}

// PlanInput is the writable part of a plan.
type PlanInput struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description,omitempty"`
	Price           string `json:"price" validate:"required,numeric"`
	ImageURL        string `json:"imageUrl,omitempty"`
	Slug            string `json:"slug,omitempty"`
	Active          *bool  `json:"active,omitempty"`
	ChainID         *int64 `json:"chainId,omitempty"`
	Token           string `json:"token" validate:"required"`
	Receiver        string `json:"receiver" validate:"required"`
	IntervalSeconds int64  `json:"intervalSeconds" validate:"gt=0"`
	TokenDecimals   *int   `json:"tokenDecimals,omitempty" validate:"omitempty,min=0,max=36"`
	TokenSymbol     string `json:"tokenSymbol,omitempty"`
}

// Validate checks the fields a subscribable plan needs.
func (in *PlanInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		return errors.NewValidationError("invalid plan", strings.Join(fields, ","))
	}
	if !common.IsHexAddress(in.Token) || !common.IsHexAddress(in.Receiver) {
		return errors.NewValidationError("invalid plan", "token and receiver must be addresses")
	}
	return nil
}

// RelayCreateRequest carries a signed CreateSubscription message. Big
// integers travel as decimal strings.
type RelayCreateRequest struct {
	UserID        string `json:"userId"`
	PlanID        string `json:"planId"`
	Token         string `json:"token"`
	Receiver      string `json:"receiver"`
	Amount        string `json:"amount"`
	Interval      string `json:"interval"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	MaxExecutions string `json:"maxExecutions"`
	Nonce         string `json:"nonce"`
	Signature     string `json:"signature"`
}

// RelayCancelRequest carries a signed CancelSubscription message.
type RelayCancelRequest struct {
	UserID       string `json:"userId"`
	BackendSubID int64  `json:"backendSubId"`
	OnChainSubID string `json:"onChainSubId"`
	Nonce        string `json:"nonce"`
	Signature    string `json:"signature"`
}

// CreateRecordRequest records a subscription created by a direct transaction.
type CreateRecordRequest struct {
	UserID                string   `json:"userId"`
	PlanID                string   `json:"planId"`
	OnChainSubscriptionID *big.Int `json:"onChainSubscriptionId"`
	ChainID               int64    `json:"chainId,omitempty"`
	TxHash                string   `json:"txHash,omitempty"`
}
