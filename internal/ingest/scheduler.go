package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/robfig/cron/v3"
)

const (
	DefaultRefreshSpec = "*/15 * * * *"
	DefaultCleanupSpec = "0 3 * * *"
	defaultJobTimeout  = 5 * time.Minute
)

// SchedulerConfig holds the cron expressions for the periodic jobs. An
// empty schedule disables that job.
type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled" env:"SCHEDULER_ENABLED"`
	RefreshSpec  string        `yaml:"refresh_spec"`
	CleanupSpec  string        `yaml:"cleanup_spec"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
	RefreshLimit int           `yaml:"refresh_limit"`
}

// SetDefaults fills unset fields.
func (c *SchedulerConfig) SetDefaults() {
	if c.RefreshSpec == "" {
		c.RefreshSpec = DefaultRefreshSpec
	}
	if c.CleanupSpec == "" {
		c.CleanupSpec = DefaultCleanupSpec
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.RefreshLimit <= 0 {
		c.RefreshLimit = aggregator.DefaultMaxLimit
	}
}

// Runner is what the scheduler drives.
type Runner interface {
	Refresh(ctx context.Context, req aggregator.Request) (Report, error)
	Cleanup(ctx context.Context) (CleanupReport, error)
}

// Scheduler runs refresh and cleanup on cron schedules. Overlapping runs of
// the same job are skipped.
type Scheduler struct {
	cfg    SchedulerConfig
	runner Runner
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    logger.Logger
}

// NewScheduler parses the configured specs and registers the jobs.
func NewScheduler(cfg SchedulerConfig, runner Runner, log logger.Logger) (*Scheduler, error) {
	cfg.SetDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:    cfg,
		runner: runner,
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}

	cronLog := cronLogger{log: log}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	if _, err := s.cron.AddFunc(cfg.RefreshSpec, s.refresh); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.CleanupSpec, s.cleanup); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.CleanupSpec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started",
		logger.String("refresh_spec", s.cfg.RefreshSpec),
		logger.String("cleanup_spec", s.cfg.CleanupSpec),
	)
}

// Stop cancels running jobs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.JobTimeout)
	defer cancel()

	report, err := s.runner.Refresh(ctx, aggregator.Request{Limit: s.cfg.RefreshLimit})
	if err != nil {
		s.log.Error("Scheduled refresh failed", logger.String("run_id", report.RunID), logger.Error(err))
		return
	}
	s.log.Info("Scheduled refresh finished",
		logger.String("run_id", report.RunID),
		logger.Int("stored", report.Stored),
	)
}

func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.JobTimeout)
	defer cancel()

	report, err := s.runner.Cleanup(ctx)
	if err != nil {
		s.log.Error("Scheduled cleanup failed", logger.Error(err))
		return
	}
	s.log.Info("Scheduled cleanup finished",
		logger.Int64("removed", report.RemovedCount),
		logger.Int("groups", report.DuplicateGroups),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, logger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, logger.Error(err), logger.Any("details", keysAndValues))
}
