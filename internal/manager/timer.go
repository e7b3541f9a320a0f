package manager

import (
	"sync"
	"time"

	"github.com/liftlog/liftlog/internal/events"
)

// TimerEvent is the payload published on timer topics.
type TimerEvent struct {
	RemainingSec int
	ElapsedSec   int
}

// Timer is a single periodic countdown or count-up task. It never
// blocks its owner: progress is communicated via the event bus.
type Timer struct {
	bus    *events.Bus
	tick   events.Topic
	finish events.Topic
	stop   events.Topic
	period time.Duration

	mu   sync.Mutex
	quit chan struct{}
}

func newTimer(bus *events.Bus, tick, finish, stop events.Topic, period time.Duration) *Timer {
	return &Timer{bus: bus, tick: tick, finish: finish, stop: stop, period: period}
}

// StartCountdown runs for total duration, ticking every period, then
// publishes the finish topic. A countdown already running is replaced.
func (t *Timer) StartCountdown(total time.Duration) {
	t.Stop()

	t.mu.Lock()
	quit := make(chan struct{})
	t.quit = quit
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		remaining := int(total / time.Second)
		elapsed := 0
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				remaining--
				elapsed++
				if remaining <= 0 {
					if t.finish != "" {
						t.bus.Publish(t.finish, TimerEvent{RemainingSec: 0, ElapsedSec: elapsed})
					}
					t.clear(quit)
					return
				}
				if t.tick != "" {
					t.bus.Publish(t.tick, TimerEvent{RemainingSec: remaining, ElapsedSec: elapsed})
				}
			}
		}
	}()
}

// StartElapsed runs indefinitely, publishing elapsed ticks until
// stopped.
func (t *Timer) StartElapsed() {
	t.Stop()

	t.mu.Lock()
	quit := make(chan struct{})
	t.quit = quit
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()

		elapsed := 0
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				elapsed++
				if t.tick != "" {
					t.bus.Publish(t.tick, TimerEvent{ElapsedSec: elapsed})
				}
			}
		}
	}()
}

// Stop cancels the periodic task if one is running and publishes the
// stopped topic. Stopping an idle timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	quit := t.quit
	t.quit = nil
	t.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	if t.stop != "" {
		t.bus.Publish(t.stop, TimerEvent{})
	}
}

// Running reports whether the timer's periodic task is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quit != nil
}

func (t *Timer) clear(quit chan struct{}) {
	t.mu.Lock()
	if t.quit == quit {
		t.quit = nil
	}
	t.mu.Unlock()
}
