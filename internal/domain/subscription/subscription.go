package subscription

import (
	"math/big"

	vo "github.com/subeth/subeth/internal/domain/subscription/valueobjects"
)

// Subscription is the backend's record of a subscription. The backend owns
// it; this module only reads it and asks the backend to change it.
type Subscription struct {
	ID                    int64                 `json:"id"`
	UserID                string                `json:"userId"`
	PlanID                string                `json:"planId"`
	Status                vo.SubscriptionStatus `json:"status"`
	OnChainSubscriptionID *big.Int              `json:"onChainSubscriptionId,omitempty"`
	NextPaymentDate       *string               `json:"nextPaymentDate,omitempty"`
	CurrentPeriodStart    *string               `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd      *string               `json:"currentPeriodEnd,omitempty"`
	Cancelled             bool                  `json:"cancelled"`
	LastPaymentTxHash     *string               `json:"lastPaymentTxHash,omitempty"`
	FailedRetries         *int                  `json:"failedRetries,omitempty"`
	LastFailedAt          *string               `json:"lastFailedAt,omitempty"`
	Plan                  *Plan                 `json:"plan,omitempty"`
}

// BackendActive is the backend-derived liveness used when chain state is unknown.
func (s *Subscription) BackendActive() bool {
	return s.Status == vo.StatusActive && !s.Cancelled
}

// BackendCancelled reports whether the backend considers the record cancelled.
// A past_due record is not cancelled.
func (s *Subscription) BackendCancelled() bool {
	return s.Cancelled || s.Status == vo.StatusCancelled
}

// HasOnChainID reports whether the record can be matched against the delegate.
func (s *Subscription) HasOnChainID() bool {
	return s.OnChainSubscriptionID != nil
}
