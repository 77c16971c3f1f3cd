package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	applog "github.com/tilequote/quote-api/internal/logger"
	"go.uber.org/zap"
)

// OverdueJobName is the name of the overdue invoice job
const OverdueJobName = "overdue_sweep"

// InvoiceSweeper moves unpaid invoices past their due date to Overdue.
// Declared here so the job does not import the service package.
type InvoiceSweeper interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// ReminderSender texts clients about overdue invoices
type ReminderSender interface {
	SendOverdueReminders(ctx context.Context) (sent int, failed int, err error)
}

// OverdueJob flags overdue invoices and then sends reminders for them
type OverdueJob struct {
	sweeper   InvoiceSweeper
	reminders ReminderSender
	logger    *zap.Logger
	timeout   time.Duration
}

// NewOverdueJob creates the job. reminders may be nil when SMS is not configured.
func NewOverdueJob(sweeper InvoiceSweeper, reminders ReminderSender, logger *zap.Logger, timeout time.Duration) *OverdueJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OverdueJob{
		sweeper:   sweeper,
		reminders: reminders,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run executes one sweep. Called by the scheduler.
func (j *OverdueJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	log := applog.WithJob(j.logger, OverdueJobName, uuid.NewString())
	log.Info("starting overdue invoice job")

	marked, err := j.sweeper.MarkOverdue(ctx)
	if err != nil {
		log.Error("overdue sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		// reminders still go out for invoices flagged on earlier runs
	}

	var sent, failed int
	if j.reminders != nil {
		sent, failed, err = j.reminders.SendOverdueReminders(ctx)
		if err != nil {
			log.Error("overdue reminders failed",
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
		}
	}

	log.Info("overdue invoice job completed",
		zap.Int64("marked_overdue", marked),
		zap.Int("reminders_sent", sent),
		zap.Int("reminders_failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterOverdueJob registers the job with the scheduler. With runOnStartup set it also
// runs once in the background so invoices that fell due while the API was down are caught up.
func RegisterOverdueJob(scheduler *Scheduler, sweeper InvoiceSweeper, reminders ReminderSender, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewOverdueJob(sweeper, reminders, logger, timeout)

	if err := scheduler.AddJob(OverdueJobName, cronExpr, job.Run); err != nil {
		return err
	}
	if runOnStartup {
		go job.Run()
	}
	return nil
}
