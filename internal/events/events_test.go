package events

import "testing"

func TestPublishDelivers(t *testing.T) {
	bus := NewBus()

	var got any
	bus.Subscribe(SetLogged, func(topic Topic, payload any) {
		if topic != SetLogged {
			t.Errorf("handler got topic %q", topic)
		}
		got = payload
	})

	bus.Publish(SetLogged, 42)
	if got != 42 {
		t.Errorf("payload = %v, want 42", got)
	}
}

func TestPublishSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		bus.Subscribe(WorkoutStarted, func(Topic, any) {
			order = append(order, i)
		})
	}

	bus.Publish(WorkoutStarted, nil)
	for i, v := range order {
		if v != i {
			t.Fatalf("delivery order %v, want subscription order", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("delivered to %d handlers, want 5", len(order))
	}
}

func TestTopicsIsolated(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(WorkoutPaused, func(Topic, any) { calls++ })

	bus.Publish(WorkoutResumed, nil)
	if calls != 0 {
		t.Error("handler received event from another topic")
	}
	bus.Publish(WorkoutPaused, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe(RestTimerTick, func(Topic, any) { calls++ })

	bus.Publish(RestTimerTick, nil)
	unsub()
	bus.Publish(RestTimerTick, nil)
	unsub() // second call is harmless
	bus.Publish(RestTimerTick, nil)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	// Must not panic.
	bus.Publish(UpdateAvailable, "payload")
}
