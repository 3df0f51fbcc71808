package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
)

// waitCond polls cond with a real-time deadline while the mock clock stands
// still, giving the streamer goroutine a chance to consume its tick.
func waitCond(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStreamer_PublishesAtConfiguredRate(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeVehicle{}
	target := NewTarget()

	streamer := NewStreamer(fake, target, 10, WithStreamerClock(mock))
	if streamer.Interval() != 100*time.Millisecond {
		t.Fatalf("expected 100ms interval at 10 Hz, got %s", streamer.Interval())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamer.Run(ctx)
	}()

	// First transmission happens immediately, before the first tick.
	waitCond(t, "initial publish", func() bool { return fake.publishCount() == 1 })

	// One publish per interval over 100 ticks: the tick-count analog of the
	// bounded-jitter requirement.
	for i := 1; i <= 100; i++ {
		mock.Add(100 * time.Millisecond)
		want := i + 1
		waitCond(t, "periodic publish", func() bool { return fake.publishCount() == want })
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("streamer did not stop after cancellation")
	}
}

func TestStreamer_PublishesLatestTarget(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeVehicle{}
	target := NewTarget()

	streamer := NewStreamer(fake, target, 10, WithStreamerClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamer.Run(ctx)
	}()

	waitCond(t, "initial publish", func() bool { return fake.publishCount() == 1 })

	target.Set(r3.Vector{X: 50, Y: 50, Z: 20}, 0)
	mock.Add(100 * time.Millisecond)
	waitCond(t, "second publish", func() bool { return fake.publishCount() == 2 })

	fake.mu.Lock()
	last := fake.published[len(fake.published)-1]
	fake.mu.Unlock()

	if last.Position != (r3.Vector{X: 50, Y: 50, Z: 20}) {
		t.Errorf("streamer published stale target %v", last.Position)
	}
	if !last.Stamp.Equal(mock.Now()) {
		t.Errorf("setpoint stamp %s, want %s", last.Stamp, mock.Now())
	}

	cancel()
	<-done
}

func TestStreamer_StopsWithinOneInterval(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeVehicle{}

	streamer := NewStreamer(fake, NewTarget(), 10, WithStreamerClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		streamer.Run(ctx)
	}()

	waitCond(t, "initial publish", func() bool { return fake.publishCount() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("streamer did not exit after cancellation")
	}

	// No further publishes once stopped.
	before := fake.publishCount()
	mock.Add(time.Second)
	if after := fake.publishCount(); after != before {
		t.Errorf("publishes continued after stop: %d -> %d", before, after)
	}
}

func TestStreamer_SurvivesPublishFailures(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeVehicle{publishErr: errors.New("link down")}
	target := NewTarget()

	streamer := NewStreamer(fake, target, 10, WithStreamerClock(mock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamer.Run(ctx)
	}()

	// Failed transmissions are swallowed; the loop keeps ticking and
	// recovers as soon as the link returns.
	mock.Add(100 * time.Millisecond)
	mock.Add(100 * time.Millisecond)

	fake.mu.Lock()
	fake.publishErr = nil
	fake.mu.Unlock()

	mock.Add(100 * time.Millisecond)
	waitCond(t, "publish after recovery", func() bool { return fake.publishCount() >= 1 })

	cancel()
	<-done
}
