package models

import (
	"time"

	"gorm.io/datatypes"
)

const TablePendingNotifications = "pending_notifications"

const (
	NotificationStatusPending = "pending"
	NotificationStatusDone    = "done"
)

// PendingNotificationModel is a backend update owed after a mined transaction.
type PendingNotificationModel struct {
	ID           uint   `gorm:"primarykey"`
	Kind         string `gorm:"not null;size:16"`
	ChainID      int64  `gorm:"not null;index:idx_pending_notifications_lookup,priority:2"`
	Account      string `gorm:"not null;size:42;index:idx_pending_notifications_lookup,priority:3"`
	PlanID       string `gorm:"not null;size:128;default:''"`
	BackendSubID int64  `gorm:"not null;default:0"`
	OnChainSubID string `gorm:"not null;size:78"`
	TxHash       string `gorm:"not null;size:66;default:''"`
	// Payload is the exact request body the backend should receive.
	Payload   datatypes.JSON
	Status    string `gorm:"not null;size:16;default:pending;index:idx_pending_notifications_lookup,priority:1"`
	Attempts  int    `gorm:"not null;default:0"`
	LastError string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (PendingNotificationModel) TableName() string {
	return TablePendingNotifications
}
