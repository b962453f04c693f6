package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultDeliverySpec = "* * * * *"
	defaultReminderSpec = "0 * * * *"
)

// TickRunner is one recurring scheduler task.
type TickRunner interface {
	RunTick(ctx context.Context)
}

// Supervisor owns the two recurring timers. It holds no state of its own
// beyond the cron lifecycle; all processing state lives in the runners.
type Supervisor struct {
	delivery     TickRunner
	reminder     TickRunner
	deliverySpec string
	reminderSpec string
	logger       *zap.Logger

	mu      sync.Mutex
	runner  *cron.Cron
	started bool
}

func NewSupervisor(
	delivery TickRunner,
	reminder TickRunner,
	deliverySpec string,
	reminderSpec string,
	logger *zap.Logger,
) (*Supervisor, error) {
	if delivery == nil {
		return nil, fmt.Errorf("delivery runner is required")
	}
	if reminder == nil {
		return nil, fmt.Errorf("reminder runner is required")
	}
	if deliverySpec == "" {
		deliverySpec = defaultDeliverySpec
	}
	if reminderSpec == "" {
		reminderSpec = defaultReminderSpec
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Supervisor{
		delivery:     delivery,
		reminder:     reminder,
		deliverySpec: deliverySpec,
		reminderSpec: reminderSpec,
		logger:       logger,
	}, nil
}

// Start registers both recurring tasks and kicks off an initial scan so
// already-due capsules do not wait for the first timer edge. Calling Start
// on a running supervisor is a no-op.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.logger.Warn("scheduler already started, ignoring duplicate start")
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runner := cron.New()
	if _, err := runner.AddFunc(s.deliverySpec, func() { s.delivery.RunTick(ctx) }); err != nil {
		return fmt.Errorf("invalid delivery schedule %q: %w", s.deliverySpec, err)
	}
	if _, err := runner.AddFunc(s.reminderSpec, func() { s.reminder.RunTick(ctx) }); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.reminderSpec, err)
	}

	runner.Start()
	s.runner = runner
	s.started = true

	go s.delivery.RunTick(ctx)
	go s.reminder.RunTick(ctx)

	s.logger.Info("scheduler started",
		zap.String("deliverySchedule", s.deliverySpec),
		zap.String("reminderSchedule", s.reminderSpec),
	)
	return nil
}

// Stop cancels both recurring tasks and waits for any tick already in
// flight to finish. Safe to call more than once.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	<-s.runner.Stop().Done()
	s.runner = nil
	s.started = false
	s.logger.Info("scheduler stopped")
}
