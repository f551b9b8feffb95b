package report

import (
	"context"
	"fmt"
	"time"

	"boutique/internal/core"
	"boutique/internal/log"

	"github.com/robfig/cron/v3"
)

// Syncer is the pending-sync sweep run alongside the report.
type Syncer interface {
	SyncPending(ctx context.Context) (int, error)
}

// Scheduler runs the monthly report and the pending-sync sweep on cron
// expressions (standard five-field syntax, descriptors like @every allowed).
type Scheduler struct {
	cron     *cron.Cron
	builder  *Builder
	notifier *Notifier
	syncer   Syncer
	now      func() time.Time
	logger   *log.Logger
}

func NewScheduler(builder *Builder, notifier *Notifier, syncer Syncer, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Scheduler{
		cron:     cron.New(),
		builder:  builder,
		notifier: notifier,
		syncer:   syncer,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// Schedule registers the jobs. An empty expression disables that job.
func (s *Scheduler) Schedule(reportSpec, syncSpec string) error {
	if reportSpec != "" && s.builder != nil && s.notifier != nil {
		if _, err := s.cron.AddFunc(reportSpec, s.sendMonthlyReport); err != nil {
			return fmt.Errorf("schedule report %q: %w", reportSpec, err)
		}
	}
	if syncSpec != "" && s.syncer != nil {
		if _, err := s.cron.AddFunc(syncSpec, s.syncPending); err != nil {
			return fmt.Errorf("schedule sync %q: %w", syncSpec, err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunReport builds and sends the report for the month before the current one.
func (s *Scheduler) RunReport(ctx context.Context) error {
	period := core.PeriodOf(core.Date{Time: s.now()}).Prev()
	r, err := s.builder.Build(ctx, period)
	if err != nil {
		return err
	}
	if err := s.notifier.Send(ctx, r.Text()); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Monthly report sent", log.FieldPeriod, period.Key())
	return nil
}

func (s *Scheduler) sendMonthlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.RunReport(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send monthly report",
			log.FieldOperation, log.OpReport,
			log.FieldError, err)
	}
}

func (s *Scheduler) syncPending() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.syncer.SyncPending(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Pending sync sweep failed",
			log.FieldOperation, log.OpSync,
			log.FieldError, err)
	}
}
