package dto

import (
	"math/big"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/shared/errors"
	"github.com/subeth/subeth/internal/shared/format"
)

// OperationResult is the only thing subscribe and unsubscribe return.
// Error is set exactly when Success is false.
type OperationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
}

func Succeeded() OperationResult {
	return OperationResult{Success: true}
}

// FailedWith converts err into a failed result using its user-facing message.
func FailedWith(err error) OperationResult {
	msg := errors.Message(err)
	if msg == "" {
		msg = "Operation failed"
	}
	return OperationResult{Success: false, Error: msg}
}

// PlanDTO is a plan with its price and interval rendered for display.
type PlanDTO struct {
	*subscription.Plan
	DisplayPrice    string `json:"displayPrice"`
	DisplayInterval string `json:"displayInterval"`
}

func ToPlanDTO(p *subscription.Plan) *PlanDTO {
	return &PlanDTO{
		Plan:            p,
		DisplayPrice:    format.Price(p.Price, p.Decimals()),
		DisplayInterval: format.Interval(p.IntervalSeconds),
	}
}

func ToPlanDTOs(plans []*subscription.Plan) []*PlanDTO {
	out := make([]*PlanDTO, 0, len(plans))
	for _, p := range plans {
		if p != nil {
			out = append(out, ToPlanDTO(p))
		}
	}
	return out
}

// DelegationStatusDTO is the delegation state of an account on one chain.
type DelegationStatusDTO struct {
	ChainID        int64  `json:"chainId"`
	Delegated      bool   `json:"delegated"`
	Target         string `json:"target,omitempty"`
	Implementation string `json:"implementation"`
}

type AccountStatusDTO struct {
	Account     string                 `json:"account"`
	IsAdmin     bool                   `json:"isAdmin"`
	Delegations []*DelegationStatusDTO `json:"delegations"`
}

type RepairOutcome string

const (
	RepairApplied RepairOutcome = "repaired"
	RepairSkipped RepairOutcome = "skipped"
	RepairFailed  RepairOutcome = "failed"
)

// RepairAction records what reconciliation did about one drift entry.
type RepairAction struct {
	Kind      subscription.DriftKind `json:"kind"`
	OnChainID *big.Int               `json:"onChainId"`
	BackendID int64                  `json:"backendId,omitempty"`
	PlanID    string                 `json:"planId,omitempty"`
	Outcome   RepairOutcome          `json:"outcome"`
	Detail    string                 `json:"detail,omitempty"`
}

type ReconcileReport struct {
	Account        string                    `json:"account"`
	ChainID        int64                     `json:"chainId"`
	OnChainCount   *big.Int                  `json:"onChainCount"`
	Scanned        int                       `json:"scanned"`
	PendingJournal int                       `json:"pendingJournal"`
	Replayed       int                       `json:"replayed"`
	ReplayFailed   int                       `json:"replayFailed"`
	Drift          []subscription.DriftEntry `json:"drift"`
	Repairs        []RepairAction            `json:"repairs,omitempty"`
}

// InSync reports whether nothing is pending and no entry drifted.
func (r *ReconcileReport) InSync() bool {
	if r.PendingJournal > r.Replayed {
		return false
	}
	for _, d := range r.Drift {
		if d.Kind != subscription.DriftInSync {
			return false
		}
	}
	return true
}
