package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"circulation-backend/internal/circulation"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepOverdue(context.Context) (circulation.SweepResult, error) {
	c.calls.Add(1)
	return circulation.SweepResult{Scanned: 1}, c.err
}

func TestSweeperRunsOnStartAndOnTick(t *testing.T) {
	target := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(target, 10*time.Millisecond, true)

	s.Start(ctx)
	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
	n := target.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, target.calls.Load())
}

func TestSweeperDisabled(t *testing.T) {
	target := &countingSweeper{}
	s := NewSweeper(target, 0, true)

	s.Start(context.Background())
	s.Wait()
	assert.Zero(t, target.calls.Load())
}

func TestSweeperCheckSurvivesErrors(t *testing.T) {
	target := &countingSweeper{err: errors.New("db down")}
	s := NewSweeper(target, time.Hour, false)

	s.Check(context.Background())
	s.Check(context.Background())
	assert.Equal(t, int32(2), target.calls.Load())
}
