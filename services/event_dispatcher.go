package services

import (
	"log"
	"sync"

	"tradeCraftAPI/internal/types/event"
)

// EventListener receives every lifecycle event. Listeners must not assume
// delivery: publishing is best-effort with no queue or replay.
type EventListener func(evt *event.ChallengeEvent)

// EventDispatcher is the in-process fan-out for lifecycle events. One
// designated primary callback plus any number of listeners; delivery is
// synchronous and in registration order, and a panicking listener never
// prevents delivery to the ones after it. Construct once in main and inject
// it wherever events are published.
type EventDispatcher struct {
	mu      sync.Mutex
	primary EventListener
	nextID  int
	order   []int
	byID    map[int]EventListener
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{byID: make(map[int]EventListener)}
}

// SetPrimary installs the single primary callback. It receives every event
// before the listener list, preserving the old single-subscriber contract.
// Pass nil to clear it.
func (d *EventDispatcher) SetPrimary(l EventListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.primary = l
}

// AddListener registers a listener and returns its id for RemoveListener.
func (d *EventDispatcher) AddListener(l EventListener) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.order = append(d.order, id)
	d.byID[id] = l
	return id
}

func (d *EventDispatcher) RemoveListener(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byID, id)
	for i, existing := range d.order {
		if existing == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Publish delivers evt to the primary callback and then to every listener
// registered at call time.
func (d *EventDispatcher) Publish(evt *event.ChallengeEvent) {
	d.mu.Lock()
	targets := make([]EventListener, 0, len(d.order)+1)
	if d.primary != nil {
		targets = append(targets, d.primary)
	}
	for _, id := range d.order {
		targets = append(targets, d.byID[id])
	}
	d.mu.Unlock()

	for _, l := range targets {
		deliver(l, evt)
	}
}

func deliver(l EventListener, evt *event.ChallengeEvent) {
	defer func() {
		if r := recover(); r != nil {
			listenerPanics.Inc()
			log.Printf("event listener panicked on %s for user %s: %v", evt.Type, evt.UserID, r)
		}
	}()
	l(evt)
}
