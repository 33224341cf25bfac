package janitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sweepCounter struct {
	calls     atomic.Int32
	reminders atomic.Int32
}

func (s *sweepCounter) Sweep(time.Time) (int, int) {
	s.calls.Add(1)
	return 1, 0
}

func (s *sweepCounter) Remind(time.Time) int {
	s.reminders.Add(1)
	return 1
}

func TestRunOnce(t *testing.T) {
	counter := &sweepCounter{}
	New(counter, "", nil).RunOnce()
	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Equal(t, int32(1), counter.reminders.Load())
}

func TestStartRunsOnSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	counter := &sweepCounter{}
	j := New(counter, "@every 1s", nil)
	require.NoError(t, j.Start())

	assert.Eventually(t, func() bool { return counter.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	j.Stop()
}

func TestStartAcceptsFiveAndSixFieldSchedules(t *testing.T) {
	for _, schedule := range []string{"*/5 * * * *", "30 */5 * * * *", "@hourly"} {
		t.Run(schedule, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			j := New(&sweepCounter{}, schedule, nil)
			require.NoError(t, j.Start())
			j.Stop()
		})
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	j := New(&sweepCounter{}, "not a schedule", nil)
	assert.Error(t, j.Start())
}
