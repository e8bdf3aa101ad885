package service_sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deactivatorStub struct {
	calls atomic.Int32
	idle  atomic.Int64
	err   error
}

func (d *deactivatorStub) DeactivateIdleRooms(_ context.Context, idle time.Duration) (int64, error) {
	d.calls.Add(1)
	d.idle.Store(int64(idle))
	return 3, d.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(&deactivatorStub{}, "every now and then", time.Hour)
	assert.Error(t, err)

	_, err = New(&deactivatorStub{}, "@every 1m", 0)
	assert.Error(t, err)
}

func TestSweepPassesIdlePeriod(t *testing.T) {
	d := &deactivatorStub{}
	s, err := New(d, "@daily", 12*time.Hour)
	require.NoError(t, err)

	s.Sweep()
	assert.Equal(t, int32(1), d.calls.Load())
	assert.Equal(t, int64(12*time.Hour), d.idle.Load())
}

func TestSweepSurvivesStoreFailure(t *testing.T) {
	d := &deactivatorStub{err: errors.New("store down")}
	s, err := New(d, "@daily", time.Hour)
	require.NoError(t, err)

	assert.NotPanics(t, s.Sweep)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestScheduledSweepRuns(t *testing.T) {
	d := &deactivatorStub{}
	s, err := New(d, "@every 1s", time.Hour)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return d.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
