package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timecapsule/capsule-engine/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeActivityRepo struct {
	createFn func(ctx context.Context, e *domain.ActivityEntry) error
}

func (f *fakeActivityRepo) Create(ctx context.Context, e *domain.ActivityEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, e)
	}
	return nil
}

func TestStoreRecorderFillsDefaults(t *testing.T) {
	t.Parallel()

	var got *domain.ActivityEntry
	repo := &fakeActivityRepo{
		createFn: func(ctx context.Context, e *domain.ActivityEntry) error {
			got = e
			return nil
		},
	}

	recorder := NewStoreRecorder(repo, zap.NewNop())
	recorder.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	recorder.Record(context.Background(), domain.ActivityEntry{
		UserID:   "u1",
		Action:   domain.ActionCapsuleDelivered,
		EntityID: "c1",
	})

	if got == nil {
		t.Fatal("entry should be persisted")
	}
	if got.ID == "" {
		t.Fatal("entry id should be generated")
	}
	if got.EntityType != domain.EntityCapsule {
		t.Fatalf("entity type = %s, want capsule", got.EntityType)
	}
	if !got.CreatedAt.Equal(time.Unix(1_700_000_000, 0).UTC()) {
		t.Fatalf("createdAt = %v, want injected now", got.CreatedAt)
	}
}

func TestStoreRecorderSwallowsErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	repo := &fakeActivityRepo{
		createFn: func(ctx context.Context, e *domain.ActivityEntry) error {
			return errors.New("store down")
		},
	}

	recorder := NewStoreRecorder(repo, zap.New(core))

	// Must not panic or propagate.
	recorder.Record(context.Background(), domain.ActivityEntry{
		UserID:   "u1",
		Action:   domain.ActionCapsuleFailed,
		EntityID: "c1",
	})

	if logs.FilterMessage("failed to record activity").Len() != 1 {
		t.Fatal("expected a warning log for the swallowed error")
	}
}
