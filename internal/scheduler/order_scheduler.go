package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/pkg/logger"
)

// OrderMaintainer is the slice of the order service the scheduler drives.
type OrderMaintainer interface {
	RemindStaleOrders(ctx context.Context, olderThan time.Duration) (int, error)
	AutoCompleteHandled(ctx context.Context, olderThan time.Duration) (int, error)
}

// OrderScheduler reminds chefs about unhandled orders and closes out
// handled orders the customer never confirmed.
type OrderScheduler struct {
	cron   *cron.Cron
	orders OrderMaintainer
	cfg    config.SchedulerConfig
}

func NewOrderScheduler(orders OrderMaintainer, cfg config.SchedulerConfig) *OrderScheduler {
	return &OrderScheduler{
		cron:   cron.New(),
		orders: orders,
		cfg:    cfg,
	}
}

// Start registers both jobs and starts the cron loop.
func (s *OrderScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, s.remindStale); err != nil {
		logger.Error("Failed to add cron job for stale order reminders", err, map[string]interface{}{
			"spec": s.cfg.ReminderSpec,
		})
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.AutoCompleteSpec, s.autoComplete); err != nil {
		logger.Error("Failed to add cron job for order auto-completion", err, map[string]interface{}{
			"spec": s.cfg.AutoCompleteSpec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Order scheduler started", map[string]interface{}{
		"reminder_spec":      s.cfg.ReminderSpec,
		"auto_complete_spec": s.cfg.AutoCompleteSpec,
	})
	return nil
}

// Stop waits for running jobs to finish.
func (s *OrderScheduler) Stop() {
	logger.Info("Stopping order scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Order scheduler stopped")
}

func (s *OrderScheduler) remindStale() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.orders.RemindStaleOrders(ctx, s.cfg.StaleOrderAfter)
	if err != nil {
		logger.Error("Scheduled stale order reminder failed", err)
		return
	}
	logger.Info("Scheduled stale order reminder finished", map[string]interface{}{
		"reminded": count,
	})
}

func (s *OrderScheduler) autoComplete() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.orders.AutoCompleteHandled(ctx, s.cfg.AutoCompleteAfter)
	if err != nil {
		logger.Error("Scheduled order auto-completion failed", err)
		return
	}
	logger.Info("Scheduled order auto-completion finished", map[string]interface{}{
		"completed": count,
	})
}
