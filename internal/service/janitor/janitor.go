// Package janitor periodically expires idle sessions and reminds the idle
// ones that are still active.
package janitor

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule runs the sweep once a minute.
const DefaultSchedule = "@every 1m"

// Sweeper is implemented by the session store.
type Sweeper interface {
	Sweep(now time.Time) (expired, evicted int)
	Remind(now time.Time) int
}

// scheduleParser accepts standard five-field specs, six-field specs with a
// leading seconds field, and descriptors such as "@every 1m".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Janitor runs Sweep on a cron schedule.
type Janitor struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a janitor. An empty schedule selects DefaultSchedule.
func New(sweeper Sweeper, schedule string, logger *zap.Logger) *Janitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		cron:     cron.New(cron.WithParser(scheduleParser)),
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the scheduler.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.RunOnce); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.logger.Info("session janitor started", zap.String("schedule", j.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("session janitor stopped")
}

// RunOnce sweeps and sends reminders immediately.
func (j *Janitor) RunOnce() {
	now := j.now()
	expired, evicted := j.sweeper.Sweep(now)
	reminded := j.sweeper.Remind(now)
	if expired > 0 || evicted > 0 || reminded > 0 {
		j.logger.Info("session sweep",
			zap.Int("expired", expired),
			zap.Int("evicted", evicted),
			zap.Int("reminded", reminded),
		)
	}
}
