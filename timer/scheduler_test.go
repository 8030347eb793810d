package timer

import (
	"testing"
	"time"

	"github.com/project-flogo/workflow/definition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func relative(ticks int64, interval time.Duration) *definition.TimerConfig {
	return &definition.TimerConfig{Ticks: ticks, Interval: interval}
}

func TestArmRelative(t *testing.T) {
	s := NewScheduler()
	e := s.Arm("A.1", "A", relative(3, time.Second), now)

	assert.Equal(t, now.Add(3*time.Second), e.Deadline)
	next, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, e.Deadline, next)
}

func TestArmAbsolute(t *testing.T) {
	s := NewScheduler()
	expiry := now.Add(time.Hour)
	cfg := &definition.TimerConfig{Expiry: expiry}

	e1 := s.Arm("A.1", "A", cfg, now)
	e2 := s.Arm("B.1", "B", cfg, now.Add(30*time.Minute))

	// the deadline does not depend on when the timer was armed
	assert.Equal(t, expiry, e1.Deadline)
	assert.Equal(t, expiry, e2.Deadline)
}

func TestExpiredFiresOnce(t *testing.T) {
	s := NewScheduler()
	s.Arm("B.1", "B", relative(2, time.Second), now)
	s.Arm("A.1", "A", relative(1, time.Second), now)
	s.Arm("C.1", "C", relative(10, time.Second), now)

	assert.Empty(t, s.Expired(now))

	expired := s.Expired(now.Add(2 * time.Second))
	require.Len(t, expired, 2)
	assert.Equal(t, "A.1", expired[0].InstanceID)
	assert.Equal(t, "B.1", expired[1].InstanceID)

	assert.Empty(t, s.Expired(now.Add(2*time.Second)))
	assert.Equal(t, 1, s.Len())
}

func TestDisarm(t *testing.T) {
	s := NewScheduler()
	s.Arm("A.1", "A", relative(1, time.Second), now)

	assert.True(t, s.Disarm("A.1"))
	assert.False(t, s.Disarm("A.1"))
	assert.Empty(t, s.Expired(now.Add(time.Minute)))

	_, ok := s.Next()
	assert.False(t, ok)
}

func TestRearmReplaces(t *testing.T) {
	s := NewScheduler()
	s.Arm("A.1", "A", relative(1, time.Second), now)
	s.Arm("A.1", "A", relative(5, time.Second), now)

	assert.Equal(t, 1, s.Len())
	e, ok := s.Armed("A.1")
	require.True(t, ok)
	assert.Equal(t, now.Add(5*time.Second), e.Deadline)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}
