package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tradeCraftAPI/internal/types/event"
)

// PushProvider sends one push to all of a user's devices.
type PushProvider interface {
	SendPush(ctx context.Context, userID, title, body string, data map[string]string) error
}

// PushRelay bridges the synchronous event dispatcher to push delivery. Its
// Listener enqueues events onto a buffered channel drained by a small worker
// pool, so a slow push backend never stalls a Publish call.
type PushRelay struct {
	provider PushProvider
	workers  int
	queue    chan *event.ChallengeEvent
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPushRelay() *PushRelay {
	r := &PushRelay{
		workers:  5,
		queue:    make(chan *event.ChallengeEvent, 100),
		stopChan: make(chan struct{}),
	}
	r.startWorkers()
	return r
}

// SetPushProvider injects the real FCM provider from main.go. Without a
// provider the relay drains its queue and drops everything.
func (r *PushRelay) SetPushProvider(provider PushProvider) {
	r.provider = provider
}

// Listener returns the function to register on the event dispatcher.
func (r *PushRelay) Listener() EventListener {
	return func(evt *event.ChallengeEvent) {
		select {
		case r.queue <- evt:
		default:
			log.Printf("push relay: queue full, dropping %s for user %s", evt.Type, evt.UserID)
		}
	}
}

func (r *PushRelay) startWorkers() {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

func (r *PushRelay) worker() {
	defer r.wg.Done()
	for {
		select {
		case evt := <-r.queue:
			r.process(evt)
		case <-r.stopChan:
			return
		}
	}
}

func (r *PushRelay) process(evt *event.ChallengeEvent) {
	if r.provider == nil {
		return
	}

	title, body, ok := renderPush(evt)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := map[string]string{
		"type":        string(evt.Type),
		"challengeId": evt.ChallengeID,
	}
	if err := r.provider.SendPush(ctx, evt.UserID, title, body, data); err != nil {
		log.Printf("push relay: send failed for user %s: %v", evt.UserID, err)
	}
}

func renderPush(evt *event.ChallengeEvent) (title, body string, ok bool) {
	switch evt.Type {
	case event.ChallengeStarted:
		return "Challenge started", fmt.Sprintf("You joined %s. Good luck!", evt.ChallengeTitle), true
	case event.ChallengeProgress:
		if evt.Progress == nil || evt.MaxProgress == nil {
			return "", "", false
		}
		return "Keep going!", fmt.Sprintf("%d/%d done on %s", *evt.Progress, *evt.MaxProgress, evt.ChallengeTitle), true
	case event.ChallengeCompleted:
		xp := 0
		if evt.XPAwarded != nil {
			xp = *evt.XPAwarded
		}
		return "Challenge complete!", fmt.Sprintf("You finished %s and earned %d XP", evt.ChallengeTitle, xp), true
	}
	// Submissions and abandonments don't push; the user just did the thing.
	return "", "", false
}

// Stop drains the workers gracefully.
func (r *PushRelay) Stop() {
	log.Println("Stopping push relay...")
	close(r.stopChan)
	r.wg.Wait()
	log.Println("Push relay stopped")
}

// MockPushProvider logs instead of sending. Used in tests and when FCM
// credentials are absent.
type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, userID, title, body string, data map[string]string) error {
	log.Printf("MOCK PUSH: to user %s: %s - %s", userID, title, body)
	return nil
}
