package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/timecapsule/capsule-engine/internal/domain"
	"github.com/timecapsule/capsule-engine/internal/mailer"
)

type fakeCapsuleRepo struct {
	getDueForDeliveryFn         func(ctx context.Context, limit int) ([]domain.Capsule, error)
	getDueForReminderFn         func(ctx context.Context, limit int) ([]domain.Capsule, error)
	markDeliveredFn             func(ctx context.Context, id string, deliveredAt time.Time) error
	markFailedFn                func(ctx context.Context, id string, reason string, retryCount int, lastRetry *time.Time) error
	markReminderSentIfPendingFn func(ctx context.Context, id string, sentAt time.Time) (bool, error)
	pingFn                      func(ctx context.Context) error
}

func (f *fakeCapsuleRepo) GetDueForDelivery(ctx context.Context, limit int) ([]domain.Capsule, error) {
	if f.getDueForDeliveryFn != nil {
		return f.getDueForDeliveryFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeCapsuleRepo) GetDueForReminder(ctx context.Context, limit int) ([]domain.Capsule, error) {
	if f.getDueForReminderFn != nil {
		return f.getDueForReminderFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeCapsuleRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	if f.markDeliveredFn != nil {
		return f.markDeliveredFn(ctx, id, deliveredAt)
	}
	return nil
}

func (f *fakeCapsuleRepo) MarkFailed(ctx context.Context, id string, reason string, retryCount int, lastRetry *time.Time) error {
	if f.markFailedFn != nil {
		return f.markFailedFn(ctx, id, reason, retryCount, lastRetry)
	}
	return nil
}

func (f *fakeCapsuleRepo) MarkReminderSentIfPending(ctx context.Context, id string, sentAt time.Time) (bool, error) {
	if f.markReminderSentIfPendingFn != nil {
		return f.markReminderSentIfPendingFn(ctx, id, sentAt)
	}
	return true, nil
}

func (f *fakeCapsuleRepo) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeMailer struct {
	sendFn func(ctx context.Context, msg mailer.Message) error

	mu   sync.Mutex
	sent []mailer.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, stream string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, stream string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, stream string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, stream)
	}
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (r *recordingSink) Record(ctx context.Context, e domain.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingSink) byAction(action domain.ActivityAction) []domain.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.ActivityEntry
	for _, e := range r.entries {
		if e.Action == action {
			matched = append(matched, e)
		}
	}
	return matched
}

type fakeEngine struct {
	deliverFn func(ctx context.Context, capsule domain.Capsule) Outcome
}

func (f *fakeEngine) Deliver(ctx context.Context, capsule domain.Capsule) Outcome {
	if f.deliverFn != nil {
		return f.deliverFn(ctx, capsule)
	}
	return Outcome{CapsuleID: capsule.ID, Delivered: true, Attempts: 1}
}

func validCapsule(id string) domain.Capsule {
	return domain.Capsule{
		ID:           id,
		Title:        "A letter to future me",
		Message:      "Hello from the past.",
		Category:     domain.CategoryPersonal,
		ScheduleDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:       domain.StatusPending,
		Priority:     domain.PriorityMedium,
		CreatorID:    "u1",
		Creator:      &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
