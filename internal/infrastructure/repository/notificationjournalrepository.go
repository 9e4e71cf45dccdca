package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/subeth/subeth/internal/domain/subscription"
	"github.com/subeth/subeth/internal/infrastructure/persistence/mappers"
	"github.com/subeth/subeth/internal/infrastructure/persistence/models"
	"github.com/subeth/subeth/internal/shared/errors"
)

type NotificationJournalRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PendingNotificationMapper
}

func NewNotificationJournalRepository(db *gorm.DB) subscription.NotificationJournal {
	return &NotificationJournalRepositoryImpl{
		db:     db,
		mapper: mappers.NewPendingNotificationMapper(),
	}
}

func (r *NotificationJournalRepositoryImpl) Record(ctx context.Context, n *subscription.PendingNotification) error {
	model, err := r.mapper.ToModel(n)
	if err != nil {
		return fmt.Errorf("failed to map pending notification to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record pending notification: %w", err)
	}

	n.ID = model.ID
	n.CreatedAt = model.CreatedAt
	return nil
}

// ListPending returns pending entries for the account on chainID, oldest first.
func (r *NotificationJournalRepositoryImpl) ListPending(ctx context.Context, chainID int64, account string) ([]*subscription.PendingNotification, error) {
	var rows []*models.PendingNotificationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND chain_id = ? AND account = ?", models.NotificationStatusPending, chainID, strings.ToLower(account)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}

	entries := make([]*subscription.PendingNotification, 0, len(rows))
	for _, row := range rows {
		entry, err := r.mapper.ToEntity(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *NotificationJournalRepositoryImpl) MarkDone(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.PendingNotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.NotificationStatusDone,
			"last_error": "",
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification done: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("pending notification not found")
	}
	return nil
}

// MarkFailed keeps the entry pending and records the attempt.
func (r *NotificationJournalRepositoryImpl) MarkFailed(ctx context.Context, id uint, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PendingNotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("pending notification not found")
	}
	return nil
}
