package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/timecapsule/capsule-engine/internal/activity"
	"github.com/timecapsule/capsule-engine/internal/domain"
	"github.com/timecapsule/capsule-engine/internal/mailer"
	"github.com/timecapsule/capsule-engine/internal/observability"
	"github.com/timecapsule/capsule-engine/internal/ratelimit"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
	maxRetryDelay     = 60 * time.Second
	maxJitterMillis   = 250

	deliveryStream = "delivery"
	reminderStream = "reminder"
)

// Outcome is the terminal result of one capsule's delivery attempt chain.
type Outcome struct {
	CapsuleID string
	Delivered bool
	Attempts  int
	Err       error
}

// DeliveryEngine attempts to deliver one capsule to completion.
type DeliveryEngine interface {
	Deliver(ctx context.Context, capsule domain.Capsule) Outcome
}

// RetryEngine sends a capsule's notification with bounded exponential
// backoff, then commits a terminal state. It never propagates send errors
// to its caller; every invocation ends delivered or failed unless the
// context is canceled mid-flight.
type RetryEngine struct {
	capsules   repository.CapsuleRepository
	mail       mailer.Mailer
	limiter    ratelimit.RateLimiter
	recorder   activity.Recorder
	metrics    *observability.Metrics
	logger     *zap.Logger
	appURL     string
	maxRetries int
	baseDelay  time.Duration
	now        func() time.Time
	randIntn   func(n int) int
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRetryEngine(
	capsules repository.CapsuleRepository,
	mail mailer.Mailer,
	limiter ratelimit.RateLimiter,
	recorder activity.Recorder,
	appURL string,
	maxRetries int,
	baseDelay time.Duration,
	logger *zap.Logger,
) (*RetryEngine, error) {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetryEngine{
		capsules:   capsules,
		mail:       mail,
		limiter:    limiter,
		recorder:   recorder,
		logger:     logger,
		appURL:     appURL,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		now:        time.Now,
		randIntn:   rand.Intn,
		sleep:      sleepWithContext,
	}, nil
}

func (e *RetryEngine) SetMetrics(metrics *observability.Metrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// Deliver runs the bounded retry loop for a single capsule: up to
// maxRetries+1 attempts with exponential backoff plus jitter in between.
func (e *RetryEngine) Deliver(ctx context.Context, capsule domain.Capsule) Outcome {
	out := Outcome{CapsuleID: capsule.ID}

	msg, err := mailer.BuildDeliveryEmail(&capsule, e.appURL)
	if err != nil {
		return e.fail(ctx, capsule, out, err, "invalid_data")
	}

	var lastErr error
	var lastRetry *time.Time

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			if err := e.sleep(ctx, e.backoffDelay(attempt-1)); err != nil {
				// Canceled mid-backoff: the capsule stays pending and is
				// rediscovered on the next process run.
				out.Err = err
				return out
			}
			e.metrics.IncRetryScheduled()
			at := e.now().UTC()
			lastRetry = &at
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx, deliveryStream); err != nil {
				out.Err = err
				return out
			}
		}

		out.Attempts++
		e.metrics.IncDeliveryAttempt()

		sendStart := e.now()
		sendErr := e.mail.Send(ctx, msg)
		e.metrics.ObserveSendDuration(deliveryStream, e.now().Sub(sendStart))

		if sendErr == nil {
			deliveredAt := e.now().UTC()
			if err := e.capsules.MarkDelivered(ctx, capsule.ID, deliveredAt); err != nil {
				e.logger.Error("failed to mark capsule delivered",
					zap.String("capsuleId", capsule.ID),
					zap.Error(err),
				)
				out.Err = err
				return out
			}

			e.recorder.Record(ctx, domain.ActivityEntry{
				UserID:   capsule.CreatorID,
				Action:   domain.ActionCapsuleDelivered,
				EntityID: capsule.ID,
				Details: map[string]any{
					"title":    capsule.Title,
					"attempts": out.Attempts,
				},
			})
			e.metrics.IncCapsuleDelivered()
			e.logger.Info("capsule delivered",
				zap.String("capsuleId", capsule.ID),
				zap.Int("attempts", out.Attempts),
			)
			out.Delivered = true
			return out
		}

		lastErr = sendErr
		e.logger.Warn("capsule send attempt failed",
			zap.String("capsuleId", capsule.ID),
			zap.Int("attempt", out.Attempts),
			zap.Int("maxAttempts", e.maxRetries+1),
			zap.Error(sendErr),
		)
	}

	out.Err = lastErr
	return e.failExhausted(ctx, capsule, out, lastErr, lastRetry)
}

func (e *RetryEngine) fail(ctx context.Context, capsule domain.Capsule, out Outcome, cause error, reason string) Outcome {
	out.Err = cause
	if err := e.capsules.MarkFailed(ctx, capsule.ID, cause.Error(), 0, nil); err != nil {
		e.logger.Error("failed to mark capsule failed",
			zap.String("capsuleId", capsule.ID),
			zap.Error(err),
		)
		return out
	}

	e.recorder.Record(ctx, domain.ActivityEntry{
		UserID:   capsule.CreatorID,
		Action:   domain.ActionCapsuleFailed,
		EntityID: capsule.ID,
		Details:  map[string]any{"error": cause.Error()},
	})
	e.metrics.IncCapsuleFailed(reason)
	return out
}

func (e *RetryEngine) failExhausted(ctx context.Context, capsule domain.Capsule, out Outcome, cause error, lastRetry *time.Time) Outcome {
	if err := e.capsules.MarkFailed(ctx, capsule.ID, cause.Error(), e.maxRetries, lastRetry); err != nil {
		e.logger.Error("failed to mark capsule failed",
			zap.String("capsuleId", capsule.ID),
			zap.Error(err),
		)
		return out
	}

	e.recorder.Record(ctx, domain.ActivityEntry{
		UserID:   capsule.CreatorID,
		Action:   domain.ActionCapsuleFailed,
		EntityID: capsule.ID,
		Details: map[string]any{
			"error":    cause.Error(),
			"attempts": out.Attempts,
		},
	})
	e.metrics.IncCapsuleFailed("retry_exhausted")
	e.logger.Error("capsule delivery failed permanently",
		zap.String("capsuleId", capsule.ID),
		zap.Int("attempts", out.Attempts),
		zap.Error(cause),
	)
	return out
}

// backoffDelay returns min(base * 2^retry, cap) plus a small random jitter
// so simultaneous failures do not retry in lockstep.
func (e *RetryEngine) backoffDelay(retry int) time.Duration {
	delay := e.baseDelay
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	jitterMillis := 0
	if e.randIntn != nil && maxJitterMillis > 0 {
		jitterMillis = e.randIntn(maxJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
