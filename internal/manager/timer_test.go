package manager

import (
	"sync"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/events"
)

func TestCountdownFinishes(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	var ticks []TimerEvent
	bus.Subscribe(events.RestTimerTick, func(_ events.Topic, payload any) {
		mu.Lock()
		ticks = append(ticks, payload.(TimerEvent))
		mu.Unlock()
	})
	finished := make(chan TimerEvent, 1)
	bus.Subscribe(events.RestTimerFinished, func(_ events.Topic, payload any) {
		finished <- payload.(TimerEvent)
	})

	timer := newTimer(bus, events.RestTimerTick, events.RestTimerFinished,
		events.RestTimerStopped, time.Millisecond)
	timer.StartCountdown(3 * time.Second)
	if !timer.Running() {
		t.Fatal("timer not running after start")
	}

	select {
	case ev := <-finished:
		if ev.RemainingSec != 0 {
			t.Errorf("finish event remaining = %d", ev.RemainingSec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never finished")
	}
	if timer.Running() {
		t.Error("timer still running after finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 {
		t.Fatal("no ticks published")
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].RemainingSec >= ticks[i-1].RemainingSec {
			t.Errorf("remaining not decreasing: %v", ticks)
			break
		}
	}
}

func TestCountdownStop(t *testing.T) {
	bus := events.NewBus()

	stopped := make(chan struct{}, 1)
	bus.Subscribe(events.RestTimerStopped, func(events.Topic, any) {
		stopped <- struct{}{}
	})
	finished := make(chan struct{}, 1)
	bus.Subscribe(events.RestTimerFinished, func(events.Topic, any) {
		finished <- struct{}{}
	})

	timer := newTimer(bus, events.RestTimerTick, events.RestTimerFinished,
		events.RestTimerStopped, time.Millisecond)
	timer.StartCountdown(time.Hour)
	timer.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop event never published")
	}
	if timer.Running() {
		t.Error("timer running after stop")
	}
	select {
	case <-finished:
		t.Error("stopped countdown still finished")
	case <-time.After(20 * time.Millisecond):
	}

	// Stopping an idle timer is harmless and publishes nothing.
	timer.Stop()
	select {
	case <-stopped:
		t.Error("idle stop published an event")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestElapsedTimer(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	var elapsed []int
	bus.Subscribe(events.DurationTimerTick, func(_ events.Topic, payload any) {
		mu.Lock()
		elapsed = append(elapsed, payload.(TimerEvent).ElapsedSec)
		mu.Unlock()
	})

	timer := newTimer(bus, events.DurationTimerTick, "", "", time.Millisecond)
	timer.StartElapsed()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(elapsed)
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("elapsed timer never ticked three times")
		}
		time.Sleep(time.Millisecond)
	}
	timer.Stop()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < 3; i++ {
		if elapsed[i] != elapsed[i-1]+1 {
			t.Errorf("elapsed not incrementing: %v", elapsed[:3])
			break
		}
	}
}

func TestStartReplacesRunningCountdown(t *testing.T) {
	bus := events.NewBus()
	timer := newTimer(bus, events.RestTimerTick, events.RestTimerFinished,
		events.RestTimerStopped, time.Millisecond)

	timer.StartCountdown(time.Hour)
	timer.StartCountdown(time.Hour)
	if !timer.Running() {
		t.Fatal("timer not running after restart")
	}
	timer.Stop()
	if timer.Running() {
		t.Error("timer running after stop")
	}
}
