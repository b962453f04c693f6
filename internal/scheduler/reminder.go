package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/timecapsule/capsule-engine/internal/activity"
	"github.com/timecapsule/capsule-engine/internal/domain"
	"github.com/timecapsule/capsule-engine/internal/mailer"
	"github.com/timecapsule/capsule-engine/internal/observability"
	"github.com/timecapsule/capsule-engine/internal/ratelimit"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultReminderScanLimit = 200

// ReminderRunner sends one-time countdown emails for capsules whose
// reminder window has been entered. Sends are best-effort: a failed send
// is simply retried on a later scan, and the conditional sent-flag update
// keeps reminders single-fire. No cross-tick overlap guard is needed.
type ReminderRunner struct {
	capsules  repository.CapsuleRepository
	mail      mailer.Mailer
	limiter   ratelimit.RateLimiter
	recorder  activity.Recorder
	metrics   *observability.Metrics
	logger    *zap.Logger
	appURL    string
	scanLimit int
	now       func() time.Time
}

func NewReminderRunner(
	capsules repository.CapsuleRepository,
	mail mailer.Mailer,
	limiter ratelimit.RateLimiter,
	recorder activity.Recorder,
	appURL string,
	scanLimit int,
	logger *zap.Logger,
) (*ReminderRunner, error) {
	if scanLimit <= 0 {
		scanLimit = defaultReminderScanLimit
	}
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReminderRunner{
		capsules:  capsules,
		mail:      mail,
		limiter:   limiter,
		recorder:  recorder,
		logger:    logger,
		appURL:    appURL,
		scanLimit: scanLimit,
		now:       time.Now,
	}, nil
}

func (r *ReminderRunner) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// RunTick scans a bounded set of reminder candidates and sends those whose
// window has been crossed. Candidates still too far out are reconsidered on
// the next scan until the window opens or the capsule is delivered.
func (r *ReminderRunner) RunTick(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	candidates, err := r.capsules.GetDueForReminder(ctx, r.scanLimit)
	if err != nil {
		r.logger.Error("failed to fetch reminder candidates", zap.Error(err))
		return
	}
	if len(candidates) == 0 {
		return
	}

	var sent atomic.Int64
	var g errgroup.Group
	for i := range candidates {
		capsule := candidates[i]
		g.Go(func() error {
			if r.process(ctx, capsule) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if sent.Load() > 0 {
		r.logger.Info("reminder scan complete",
			zap.Int("candidates", len(candidates)),
			zap.Int64("sent", sent.Load()),
		)
	}
}

func (r *ReminderRunner) process(ctx context.Context, capsule domain.Capsule) bool {
	if capsule.CreatorEmail() == "" {
		// Left for the delivery tick to fail as invalid data.
		r.logger.Warn("skipping reminder for capsule without creator email",
			zap.String("capsuleId", capsule.ID),
		)
		return false
	}

	daysUntil := capsule.DaysUntilDelivery(r.now())
	if daysUntil <= 0 || daysUntil > capsule.Reminder.DaysBefore {
		// Outside the window: either too early, or delivery is imminent
		// and the main notification supersedes the reminder.
		return false
	}

	msg, err := mailer.BuildReminderEmail(&capsule, daysUntil, r.appURL)
	if err != nil {
		r.logger.Error("failed to build reminder email",
			zap.String("capsuleId", capsule.ID),
			zap.Error(err),
		)
		return false
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, reminderStream); err != nil {
			r.logger.Warn("rate limiter wait failed for reminder",
				zap.String("capsuleId", capsule.ID),
				zap.Error(err),
			)
			return false
		}
	}

	sendStart := r.now()
	sendErr := r.mail.Send(ctx, msg)
	r.metrics.ObserveSendDuration(reminderStream, r.now().Sub(sendStart))
	if sendErr != nil {
		// Not marked sent, so the next scan retries.
		r.logger.Warn("reminder send failed, will retry next scan",
			zap.String("capsuleId", capsule.ID),
			zap.Error(sendErr),
		)
		return false
	}

	updated, err := r.capsules.MarkReminderSentIfPending(ctx, capsule.ID, r.now().UTC())
	if err != nil {
		r.logger.Error("failed to mark reminder sent",
			zap.String("capsuleId", capsule.ID),
			zap.Error(err),
		)
		return false
	}
	if !updated {
		r.logger.Info("reminder already marked sent, skipping",
			zap.String("capsuleId", capsule.ID),
		)
		return false
	}

	r.recorder.Record(ctx, domain.ActivityEntry{
		UserID:   capsule.CreatorID,
		Action:   domain.ActionReminderSent,
		EntityID: capsule.ID,
		Details: map[string]any{
			"daysUntil": daysUntil,
		},
	})
	r.metrics.IncReminderSent()
	r.logger.Info("reminder sent",
		zap.String("capsuleId", capsule.ID),
		zap.Int("daysUntil", daysUntil),
	)
	return true
}
