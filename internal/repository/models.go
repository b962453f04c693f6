package repository

import (
	"time"

	"github.com/timecapsule/capsule-engine/internal/domain"
)

// UserModel is the persistence model for the users table.
type UserModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(100)"`
	Email     string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// CapsuleModel is the persistence model for the capsules table.
type CapsuleModel struct {
	ID           string           `gorm:"type:uuid;primaryKey"`
	Title        string           `gorm:"type:varchar(255);not null"`
	Message      string           `gorm:"type:text;not null"`
	Category     domain.Category  `gorm:"type:varchar(20);not null"`
	Tags         []string         `gorm:"serializer:json"`
	Files        []domain.FileRef `gorm:"serializer:json"`
	ScheduleDate time.Time        `gorm:"type:timestamptz;not null"`
	Status       domain.Status    `gorm:"type:varchar(20);not null;default:pending"`
	Priority     domain.Priority  `gorm:"type:varchar(10);not null;default:medium"`
	Error        *string          `gorm:"type:text"`
	RetryCount   int              `gorm:"not null;default:0"`
	LastRetry    *time.Time       `gorm:"type:timestamptz"`
	DeliveredAt  *time.Time       `gorm:"type:timestamptz"`
	Reminder     domain.Reminder  `gorm:"embedded;embeddedPrefix:reminder_"`
	CreatorID    string           `gorm:"type:uuid;not null"`
	Creator      *UserModel       `gorm:"foreignKey:CreatorID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CapsuleModel) TableName() string {
	return "capsules"
}

// ActivityLogModel is the persistence model for activity_logs.
type ActivityLogModel struct {
	ID         string                `gorm:"type:uuid;primaryKey"`
	UserID     string                `gorm:"type:uuid;not null;index"`
	Action     domain.ActivityAction `gorm:"type:varchar(40);not null"`
	EntityType domain.EntityType     `gorm:"type:varchar(20);not null;default:capsule"`
	EntityID   string                `gorm:"type:uuid;index"`
	Details    map[string]any        `gorm:"serializer:json"`
	CreatedAt  time.Time             `gorm:"index"`
}

func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func capsuleModelToDomain(m *CapsuleModel) *domain.Capsule {
	if m == nil {
		return nil
	}

	return &domain.Capsule{
		ID:           m.ID,
		Title:        m.Title,
		Message:      m.Message,
		Category:     m.Category,
		Tags:         m.Tags,
		Files:        m.Files,
		ScheduleDate: m.ScheduleDate,
		Status:       m.Status,
		Priority:     m.Priority,
		Error:        m.Error,
		RetryCount:   m.RetryCount,
		LastRetry:    m.LastRetry,
		DeliveredAt:  m.DeliveredAt,
		Reminder:     m.Reminder,
		CreatorID:    m.CreatorID,
		Creator:      userModelToDomain(m.Creator),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func activityModelFromDomain(e *domain.ActivityEntry) *ActivityLogModel {
	if e == nil {
		return nil
	}

	return &ActivityLogModel{
		ID:         e.ID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}
