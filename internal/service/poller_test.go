package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingTrigger struct {
	n atomic.Int32
}

func (c *countingTrigger) Trigger(ctx context.Context) string {
	c.n.Add(1)
	return "Started: ok"
}

func TestPoller_TicksUntilCanceled(t *testing.T) {
	trig := &countingTrigger{}
	svc := NewPollerService(trig, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for trig.n.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("poller did not tick, got %d", trig.n.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop after cancel")
	}
}

func TestPoller_DisabledReturnsImmediately(t *testing.T) {
	trig := &countingTrigger{}
	svc := NewPollerService(trig, nil)

	svc.Run(context.Background(), 0)
	if trig.n.Load() != 0 {
		t.Fatalf("disabled poller must not trigger")
	}
}
