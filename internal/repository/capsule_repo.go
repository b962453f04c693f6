package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/timecapsule/capsule-engine/internal/domain"
	"gorm.io/gorm"
)

// priorityRank orders due capsules urgent-first at query time. Dispatch
// within a batch is concurrent, so this only governs selection, not
// completion order.
const priorityRank = `CASE priority
	WHEN 'urgent' THEN 4
	WHEN 'high' THEN 3
	WHEN 'medium' THEN 2
	ELSE 1
END`

type CapsuleRepository interface {
	GetDueForDelivery(ctx context.Context, limit int) ([]domain.Capsule, error)
	GetDueForReminder(ctx context.Context, limit int) ([]domain.Capsule, error)
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, retryCount int, lastRetry *time.Time) error
	MarkReminderSentIfPending(ctx context.Context, id string, sentAt time.Time) (bool, error)
	Ping(ctx context.Context) error
}

type GormCapsuleRepo struct {
	db *gorm.DB
}

func NewGormCapsuleRepo(db *gorm.DB) *GormCapsuleRepo {
	return &GormCapsuleRepo{db: db}
}

// GetDueForDelivery returns pending capsules whose schedule date has
// passed, urgent and most-overdue first, with the creator dereferenced.
func (r *GormCapsuleRepo) GetDueForDelivery(ctx context.Context, limit int) ([]domain.Capsule, error) {
	var models []CapsuleModel
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ? AND schedule_date <= ?", domain.StatusPending, time.Now()).
		Order(priorityRank + " DESC").
		Order("schedule_date ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return capsulesToDomain(models), nil
}

// GetDueForReminder returns pending capsules with an enabled, unsent
// reminder. Window filtering happens in the runner; the query only bounds
// the hourly scan.
func (r *GormCapsuleRepo) GetDueForReminder(ctx context.Context, limit int) ([]domain.Capsule, error) {
	var models []CapsuleModel
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ? AND reminder_enabled = ? AND reminder_sent = ?",
			domain.StatusPending, true, false).
		Order("schedule_date ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return capsulesToDomain(models), nil
}

// MarkDelivered moves a pending capsule to delivered and clears its retry
// bookkeeping. The status guard makes the transition fire at most once.
func (r *GormCapsuleRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&CapsuleModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":       domain.StatusDelivered,
			"delivered_at": deliveredAt,
			"error":        nil,
			"retry_count":  0,
			"last_retry":   nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: capsule %s is not pending", domain.ErrConflict, id)
	}
	return nil
}

// MarkFailed moves a pending capsule to its terminal failed state with the
// captured error text and retry bookkeeping.
func (r *GormCapsuleRepo) MarkFailed(ctx context.Context, id string, reason string, retryCount int, lastRetry *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&CapsuleModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":      domain.StatusFailed,
			"error":       reason,
			"retry_count": retryCount,
			"last_retry":  lastRetry,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: capsule %s is not pending", domain.ErrConflict, id)
	}
	return nil
}

// MarkReminderSentIfPending flips the reminder sent flag. Returns false when
// the reminder was already marked or the capsule left the pending state,
// which keeps reminder sends single-fire across overlapping scans.
func (r *GormCapsuleRepo) MarkReminderSentIfPending(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&CapsuleModel{}).
		Where("id = ? AND status = ? AND reminder_sent = ?", id, domain.StatusPending, false).
		Updates(map[string]any{
			"reminder_sent":    true,
			"reminder_sent_at": sentAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ping reports current store connectivity. Delivery ticks are skipped
// outright while the connection is down.
func (r *GormCapsuleRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func capsulesToDomain(models []CapsuleModel) []domain.Capsule {
	capsules := make([]domain.Capsule, 0, len(models))
	for i := range models {
		capsules = append(capsules, *capsuleModelToDomain(&models[i]))
	}
	return capsules
}
