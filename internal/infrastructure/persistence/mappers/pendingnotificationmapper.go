package mappers

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"gorm.io/datatypes"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/infrastructure/persistence/models"
)

// cancelPayload is the journaled body of a cancel notification.
type cancelPayload struct {
	BackendSubID int64  `json:"backendSubId"`
	OnChainSubID string `json:"onChainSubId"`
}

type PendingNotificationMapper struct{}

func NewPendingNotificationMapper() PendingNotificationMapper {
	return PendingNotificationMapper{}
}

func (PendingNotificationMapper) ToModel(n *subscription.PendingNotification) (*models.PendingNotificationModel, error) {
	if n.OnChainSubID == nil {
		return nil, fmt.Errorf("pending notification requires an on-chain subscription id")
	}

	var payload interface{}
	switch n.Kind {
	case subscription.NotificationCreate:
		payload = n.CreateRequest()
	case subscription.NotificationCancel:
		payload = cancelPayload{BackendSubID: n.BackendSubID, OnChainSubID: n.OnChainSubID.String()}
	default:
		return nil, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification payload: %w", err)
	}

	return &models.PendingNotificationModel{
		ID:           n.ID,
		Kind:         string(n.Kind),
		ChainID:      n.ChainID,
		Account:      strings.ToLower(n.Account),
		PlanID:       n.PlanID,
		BackendSubID: n.BackendSubID,
		OnChainSubID: n.OnChainSubID.String(),
		TxHash:       n.TxHash,
		Payload:      datatypes.JSON(raw),
		Status:       models.NotificationStatusPending,
		Attempts:     n.Attempts,
		LastError:    n.LastError,
		CreatedAt:    n.CreatedAt,
	}, nil
}

// ToEntity restores the notification from its journaled payload. The account
// column is a lowercase lookup key, so the payload's userId wins.
func (PendingNotificationMapper) ToEntity(m *models.PendingNotificationModel) (*subscription.PendingNotification, error) {
	id, ok := new(big.Int).SetString(m.OnChainSubID, 10)
	if !ok {
		return nil, fmt.Errorf("notification %d: invalid on-chain id %q", m.ID, m.OnChainSubID)
	}
	n := &subscription.PendingNotification{
		ID:           m.ID,
		Kind:         subscription.NotificationKind(m.Kind),
		ChainID:      m.ChainID,
		Account:      m.Account,
		PlanID:       m.PlanID,
		BackendSubID: m.BackendSubID,
		OnChainSubID: id,
		TxHash:       m.TxHash,
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
	}
	if len(m.Payload) == 0 {
		return n, nil
	}

	switch n.Kind {
	case subscription.NotificationCreate:
		var req subscription.CreateRecordRequest
		if err := json.Unmarshal(m.Payload, &req); err != nil {
			return nil, fmt.Errorf("notification %d: failed to decode payload: %w", m.ID, err)
		}
		if req.UserID != "" {
			n.Account = req.UserID
		}
		if req.PlanID != "" {
			n.PlanID = req.PlanID
		}
		if req.TxHash != "" {
			n.TxHash = req.TxHash
		}
		if req.OnChainSubscriptionID != nil {
			n.OnChainSubID = req.OnChainSubscriptionID
		}
	case subscription.NotificationCancel:
		var body cancelPayload
		if err := json.Unmarshal(m.Payload, &body); err != nil {
			return nil, fmt.Errorf("notification %d: failed to decode payload: %w", m.ID, err)
		}
		if body.BackendSubID != 0 {
			n.BackendSubID = body.BackendSubID
		}
	}
	return n, nil
}
