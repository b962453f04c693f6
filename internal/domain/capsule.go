package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a capsule.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further automatic transition happens.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Priority influences the order in which due capsules are selected,
// not the retry policy.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank maps priority to a sortable weight, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

// Category classifies capsule content.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategorySpecial  Category = "special"
	CategoryAcademic Category = "academic"
	CategoryMental   Category = "mental"
	CategoryBusiness Category = "business"
	CategoryLegacy   Category = "legacy"
	CategorySocial   Category = "social"
)

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	switch c {
	case CategoryPersonal, CategorySpecial, CategoryAcademic, CategoryMental,
		CategoryBusiness, CategoryLegacy, CategorySocial:
		return true
	}
	return false
}

// FileRef points at an uploaded attachment. The scheduler treats it as
// opaque content; only the filename surfaces in delivery emails.
type FileRef struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	MimeType string `json:"mimetype"`
}

// Reminder is the one-shot pre-delivery notification sub-record.
type Reminder struct {
	Enabled    bool       `gorm:"not null;default:false"`
	DaysBefore int        `gorm:"not null;default:0"`
	Sent       bool       `gorm:"not null;default:false"`
	SentAt     *time.Time `gorm:"type:timestamptz"`
}

// Capsule is the core domain entity: a message scheduled for future delivery.
type Capsule struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	Title        string     `gorm:"type:varchar(255);not null"`
	Message      string     `gorm:"type:text;not null"`
	Category     Category   `gorm:"type:varchar(20);not null"`
	Tags         []string   `gorm:"serializer:json"`
	Files        []FileRef  `gorm:"serializer:json"`
	ScheduleDate time.Time  `gorm:"type:timestamptz;not null"`
	Status       Status     `gorm:"type:varchar(20);not null;default:pending"`
	Priority     Priority   `gorm:"type:varchar(10);not null;default:medium"`
	Error        *string    `gorm:"type:text"`
	RetryCount   int        `gorm:"not null;default:0"`
	LastRetry    *time.Time `gorm:"type:timestamptz"`
	DeliveredAt  *time.Time `gorm:"type:timestamptz"`
	Reminder     Reminder   `gorm:"embedded;embeddedPrefix:reminder_"`
	CreatorID    string     `gorm:"type:uuid;not null"`
	Creator      *User      `gorm:"foreignKey:CreatorID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatorEmail returns the resolved creator email, or "" when the creator
// reference cannot be resolved.
func (c *Capsule) CreatorEmail() string {
	if c == nil || c.Creator == nil {
		return ""
	}
	return strings.TrimSpace(c.Creator.Email)
}

// Deliverable reports whether the capsule has everything a delivery email
// needs. Capsules failing this check are permanently invalid: retrying
// cannot fix missing data.
func (c *Capsule) Deliverable() error {
	if c.CreatorEmail() == "" {
		return fmt.Errorf("%w: no valid creator email", ErrInvalidCapsule)
	}
	if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Message) == "" || !c.Category.IsValid() {
		return fmt.Errorf("%w: missing required fields", ErrInvalidCapsule)
	}
	return nil
}

// DaysUntilDelivery returns the whole days remaining until the schedule
// date, rounding partial days up. Zero or negative means the capsule is due.
func (c *Capsule) DaysUntilDelivery(now time.Time) int {
	until := c.ScheduleDate.Sub(now)
	if until <= 0 {
		return 0
	}
	days := int(until / (24 * time.Hour))
	if until%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// ReminderDue reports whether the reminder window has been entered:
// strictly before delivery and within the configured days-before threshold.
func (c *Capsule) ReminderDue(now time.Time) bool {
	if !c.Reminder.Enabled || c.Reminder.Sent {
		return false
	}
	daysUntil := c.DaysUntilDelivery(now)
	return daysUntil > 0 && daysUntil <= c.Reminder.DaysBefore
}
