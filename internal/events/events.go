// Package events provides the typed publish/subscribe bus shared by
// managers, timers and the offline sync controller. UI collaborators
// attach once through this single contract instead of per-class
// callback maps.
package events

import "sync"

// Topic names an event stream.
type Topic string

const (
	WorkoutStarted   Topic = "workout.started"
	WorkoutPaused    Topic = "workout.paused"
	WorkoutResumed   Topic = "workout.resumed"
	WorkoutCompleted Topic = "workout.completed"
	WorkoutCancelled Topic = "workout.cancelled"
	SetLogged        Topic = "set.logged"

	RestTimerStarted  Topic = "timer.rest.started"
	RestTimerTick     Topic = "timer.rest.tick"
	RestTimerFinished Topic = "timer.rest.finished"
	RestTimerStopped  Topic = "timer.rest.stopped"
	DurationTimerTick Topic = "timer.duration.tick"

	SyncSuccess     Topic = "sync.success"
	SyncFailed      Topic = "sync.failed"
	UpdateAvailable Topic = "update.available"
)

// Handler receives every event published on a subscribed topic.
type Handler func(topic Topic, payload any)

// Bus is a minimal synchronous pub/sub hub. Publish delivers to
// subscribers in subscription order on the caller's goroutine.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Topic]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers payload to every handler subscribed to topic.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	ids := make([]int, 0, len(b.subs[topic]))
	for id := range b.subs[topic] {
		ids = append(ids, id)
	}
	// Deliver in subscription order.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	for _, id := range ids {
		handlers = append(handlers, b.subs[topic][id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic, payload)
	}
}
