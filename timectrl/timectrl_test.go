package timectrl

import (
	"context"
	"testing"
	"time"
)

func TestTimeController_AcceleratedTickCount(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	var ticks []time.Time
	tc.AddListener(func(ts time.Time) { ticks = append(ticks, ts) })

	if err := tc.Run(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ticks) != 5 {
		t.Fatalf("expected 5 ticks over a 5s horizon, got %d", len(ticks))
	}
	if ticks[0] != start.Add(time.Second) {
		t.Fatalf("first tick should be start+tick, got %v", ticks[0])
	}
	if ticks[4] != start.Add(5*time.Second) {
		t.Fatalf("last tick should land on the horizon, got %v", ticks[4])
	}
}

func TestTimeController_ListenersRunInOrder(t *testing.T) {
	tc := NewTimeController(time.Now().UTC(), time.Second, Accelerated)

	var order []int
	tc.AddListener(func(time.Time) { order = append(order, 1) })
	tc.AddListener(func(time.Time) { order = append(order, 2) })

	if err := tc.Run(context.Background(), time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("listeners must run in registration order, got %v", order)
	}
}

func TestTimeController_NowTracksTicks(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, Accelerated)

	if tc.Now() != start {
		t.Fatalf("Now before Run should be the start time, got %v", tc.Now())
	}

	var seen []time.Time
	tc.AddListener(func(time.Time) { seen = append(seen, tc.Now()) })
	if err := tc.Run(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, ts := range seen {
		want := start.Add(time.Duration(i+1) * time.Second)
		if ts != want {
			t.Fatalf("Now inside tick %d = %v, want %v", i, ts, want)
		}
	}
	if tc.Now() != start.Add(3*time.Second) {
		t.Fatalf("Now after Run should sit at the horizon, got %v", tc.Now())
	}
}

func TestTimeController_CancelledContextStopsAccelerated(t *testing.T) {
	tc := NewTimeController(time.Now().UTC(), time.Second, Accelerated)
	ctx, cancel := context.WithCancel(context.Background())

	var ticks int
	tc.AddListener(func(time.Time) {
		ticks++
		if ticks == 2 {
			cancel()
		}
	})

	err := tc.Run(ctx, time.Hour)
	if err == nil {
		t.Fatalf("expected a context error")
	}
	if ticks != 2 {
		t.Fatalf("expected the loop to stop after cancellation, got %d ticks", ticks)
	}
}

func TestTimeController_RealTimeHonorsCancellation(t *testing.T) {
	tc := NewTimeController(time.Now().UTC(), time.Hour, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- tc.Run(ctx, 2*time.Hour) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected a context error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
}

func TestTimeController_StartClosesDone(t *testing.T) {
	tc := NewTimeController(time.Now().UTC(), time.Second, Accelerated)
	done := tc.Start(context.Background(), 3*time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("done channel never closed")
	}
}
