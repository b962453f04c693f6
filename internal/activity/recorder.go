package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timecapsule/capsule-engine/internal/domain"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"go.uber.org/zap"
)

// Recorder appends audit entries. Implementations are fire-and-forget: a
// failed append is logged and swallowed so it can never affect capsule
// processing.
type Recorder interface {
	Record(ctx context.Context, e domain.ActivityEntry)
}

type StoreRecorder struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewStoreRecorder(repo repository.ActivityRepository, logger *zap.Logger) *StoreRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StoreRecorder{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (r *StoreRecorder) Record(ctx context.Context, e domain.ActivityEntry) {
	if r == nil || r.repo == nil {
		return
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EntityType == "" {
		e.EntityType = domain.EntityCapsule
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	if err := r.repo.Create(ctx, &e); err != nil {
		r.logger.Warn("failed to record activity",
			zap.String("action", e.Action.String()),
			zap.String("entityId", e.EntityID),
			zap.Error(err),
		)
	}
}

// NopRecorder discards every entry.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, domain.ActivityEntry) {}
