package repository

import (
	"context"

	"github.com/timecapsule/capsule-engine/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, e *domain.ActivityEntry) error
}

type GormActivityRepo struct {
	db *gorm.DB
}

func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

func (r *GormActivityRepo) Create(ctx context.Context, e *domain.ActivityEntry) error {
	model := activityModelFromDomain(e)
	return r.db.WithContext(ctx).Create(model).Error
}
