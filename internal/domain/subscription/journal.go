package subscription

import (
	"context"
	"math/big"
	"time"
)

type NotificationKind string

const (
	NotificationCreate NotificationKind = "create"
	NotificationCancel NotificationKind = "cancel"
)

// PendingNotification is a backend update that failed after its transaction
// was mined. Replaying it brings the backend back in line with the chain.
type PendingNotification struct {
	ID           uint
	Kind         NotificationKind
	ChainID      int64
	Account      string
	PlanID       string
	BackendSubID int64
	OnChainSubID *big.Int
	TxHash       string
	Attempts     int
	LastError    string
	CreatedAt    time.Time
}

// CreateRequest rebuilds the backend call for a create notification.
func (n *PendingNotification) CreateRequest() CreateRecordRequest {
	return CreateRecordRequest{
		UserID:                n.Account,
		PlanID:                n.PlanID,
		OnChainSubscriptionID: n.OnChainSubID,
		ChainID:               n.ChainID,
		TxHash:                n.TxHash,
	}
}

// NotificationJournal persists pending backend notifications.
type NotificationJournal interface {
	Record(ctx context.Context, n *PendingNotification) error
	ListPending(ctx context.Context, chainID int64, account string) ([]*PendingNotification, error)
	MarkDone(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, reason string) error
}
