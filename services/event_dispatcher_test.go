package services

import (
	"testing"

	"tradeCraftAPI/internal/types/event"
)

func TestDispatcherPrimaryBeforeListeners(t *testing.T) {
	d := NewEventDispatcher()

	var order []string
	d.AddListener(func(evt *event.ChallengeEvent) {
		order = append(order, "listener-1")
	})
	d.AddListener(func(evt *event.ChallengeEvent) {
		order = append(order, "listener-2")
	})
	d.SetPrimary(func(evt *event.ChallengeEvent) {
		order = append(order, "primary")
	})

	d.Publish(&event.ChallengeEvent{Type: event.ChallengeStarted, UserID: "u1"})

	want := []string{"primary", "listener-1", "listener-2"}
	if len(order) != len(want) {
		t.Fatalf("delivered to %d targets, want %d: %v", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery order %v, want %v", order, want)
		}
	}
}

func TestDispatcherRemoveListener(t *testing.T) {
	d := NewEventDispatcher()

	calls := 0
	id := d.AddListener(func(evt *event.ChallengeEvent) { calls++ })
	d.AddListener(func(evt *event.ChallengeEvent) { calls += 10 })

	d.Publish(&event.ChallengeEvent{Type: event.ChallengeProgress})
	d.RemoveListener(id)
	d.Publish(&event.ChallengeEvent{Type: event.ChallengeProgress})

	if calls != 21 {
		t.Errorf("calls = %d, want 21 (removed listener must not receive the second event)", calls)
	}
}

func TestDispatcherListenerPanicIsContained(t *testing.T) {
	d := NewEventDispatcher()

	d.AddListener(func(evt *event.ChallengeEvent) {
		panic("listener bug")
	})
	delivered := false
	d.AddListener(func(evt *event.ChallengeEvent) {
		delivered = true
	})

	d.Publish(&event.ChallengeEvent{Type: event.ChallengeCompleted, UserID: "u1"})

	if !delivered {
		t.Error("a panicking listener must not block delivery to the next one")
	}
}

func TestDispatcherNoPrimary(t *testing.T) {
	d := NewEventDispatcher()
	// Publishing with no primary and no listeners must simply do nothing.
	d.Publish(&event.ChallengeEvent{Type: event.ChallengeAbandoned})

	got := 0
	d.AddListener(func(evt *event.ChallengeEvent) { got++ })
	d.Publish(&event.ChallengeEvent{Type: event.ChallengeAbandoned})
	if got != 1 {
		t.Errorf("listener calls = %d, want 1", got)
	}
}
