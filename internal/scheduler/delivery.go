package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/timecapsule/capsule-engine/internal/activity"
	"github.com/timecapsule/capsule-engine/internal/domain"
	"github.com/timecapsule/capsule-engine/internal/observability"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 10

// DeliveryRunner discovers due capsules each tick and dispatches them to
// the delivery engine. At most one batch is in flight at any time: a tick
// arriving while the previous batch is still processing is a no-op, so
// slow sends throttle discovery instead of piling up concurrent batches.
type DeliveryRunner struct {
	capsules  repository.CapsuleRepository
	engine    DeliveryEngine
	recorder  activity.Recorder
	metrics   *observability.Metrics
	logger    *zap.Logger
	batchSize int
	now       func() time.Time

	// processing is the Idle/Processing gate. Released in a defer so a
	// failed tick can never leave it stuck.
	processing atomic.Bool
}

func NewDeliveryRunner(
	capsules repository.CapsuleRepository,
	engine DeliveryEngine,
	recorder activity.Recorder,
	batchSize int,
	logger *zap.Logger,
) (*DeliveryRunner, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeliveryRunner{
		capsules:  capsules,
		engine:    engine,
		recorder:  recorder,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

func (r *DeliveryRunner) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// RunTick processes one bounded batch of due capsules. Failures are
// contained per capsule; a tick-level failure (store down, query error)
// ends the tick early and the next tick starts clean.
func (r *DeliveryRunner) RunTick(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	if !r.processing.CompareAndSwap(false, true) {
		r.logger.Info("previous delivery batch still running, skipping tick")
		r.metrics.IncBatchSkipped("busy")
		return
	}
	defer r.processing.Store(false)

	if err := r.capsules.Ping(ctx); err != nil {
		r.logger.Warn("store unavailable, skipping delivery tick", zap.Error(err))
		r.metrics.IncBatchSkipped("store_unavailable")
		return
	}

	start := r.now()
	due, err := r.capsules.GetDueForDelivery(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch due capsules", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	r.logger.Info("processing due capsules", zap.Int("count", len(due)))

	var delivered, failed atomic.Int64
	g, groupCtx := errgroup.WithContext(ctx)
	for i := range due {
		capsule := due[i]

		if err := capsule.Deliverable(); err != nil {
			r.failInvalid(ctx, capsule, err)
			failed.Add(1)
			continue
		}

		g.Go(func() error {
			if out := r.engine.Deliver(groupCtx, capsule); out.Delivered {
				delivered.Add(1)
			} else {
				failed.Add(1)
			}
			// Outcomes are terminal per capsule; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	duration := r.now().Sub(start)
	r.metrics.ObserveBatchDuration(duration)
	r.logger.Info("delivery batch complete",
		zap.Int64("delivered", delivered.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Duration("duration", duration),
	)
}

// failInvalid marks a capsule with unrecoverably bad data as failed without
// a single send attempt.
func (r *DeliveryRunner) failInvalid(ctx context.Context, capsule domain.Capsule, cause error) {
	r.logger.Warn("skipping capsule with invalid data",
		zap.String("capsuleId", capsule.ID),
		zap.Error(cause),
	)

	if err := r.capsules.MarkFailed(ctx, capsule.ID, cause.Error(), 0, nil); err != nil {
		r.logger.Error("failed to mark invalid capsule failed",
			zap.String("capsuleId", capsule.ID),
			zap.Error(err),
		)
		return
	}

	r.recorder.Record(ctx, domain.ActivityEntry{
		UserID:   capsule.CreatorID,
		Action:   domain.ActionCapsuleFailed,
		EntityID: capsule.ID,
		Details:  map[string]any{"error": cause.Error()},
	})
	r.metrics.IncCapsuleFailed("invalid_data")
}
