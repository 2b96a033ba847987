package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

func TestLimiterSweep_RunsUntilStopped(t *testing.T) {
	target := &countingSweeper{}
	w := NewLimiterSweep(target, zap.NewNop(), 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if target.calls.Load() < 2 {
		t.Fatalf("Sweep called %d times, want at least 2", target.calls.Load())
	}
	after := target.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if target.calls.Load() != after {
		t.Error("Sweep called after Stop")
	}
}
