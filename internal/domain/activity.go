package domain

import "time"

// ActivityAction enumerates audit log actions emitted by the scheduler.
type ActivityAction string

const (
	ActionCapsuleDelivered ActivityAction = "capsule_delivered"
	ActionCapsuleFailed    ActivityAction = "capsule_failed"
	ActionReminderSent     ActivityAction = "reminder_sent"
)

func (a ActivityAction) String() string { return string(a) }

// EntityType classifies what an activity entry refers to.
type EntityType string

const (
	EntityCapsule EntityType = "capsule"
	EntityUser    EntityType = "user"
	EntitySystem  EntityType = "system"
)

// ActivityEntry is a best-effort audit record. Writes are fire-and-forget:
// a failed append must never affect capsule state.
type ActivityEntry struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	UserID     string         `gorm:"type:uuid;not null;index"`
	Action     ActivityAction `gorm:"type:varchar(40);not null"`
	EntityType EntityType     `gorm:"type:varchar(20);not null;default:capsule"`
	EntityID   string         `gorm:"type:uuid;index"`
	Details    map[string]any `gorm:"serializer:json"`
	CreatedAt  time.Time      `gorm:"index"`
}
