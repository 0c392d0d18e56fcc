package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradeCraftAPI/internal/docstore"
	"tradeCraftAPI/internal/types/challenge"
	"tradeCraftAPI/internal/types/event"
)

type xpRecord struct {
	userID string
	amount int
	source string
}

type stubXP struct {
	mu      sync.Mutex
	awards  []xpRecord
	skills  []xpRecord
	failXP  bool
}

func (s *stubXP) AwardXP(ctx context.Context, userID string, amount int, source, refID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failXP {
		return errors.New("xp store down")
	}
	s.awards = append(s.awards, xpRecord{userID, amount, source})
	return nil
}

func (s *stubXP) AwardSkillXP(ctx context.Context, userID, skill string, amount int, source, refID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills = append(s.skills, xpRecord{userID, amount, skill})
	return nil
}

func (s *stubXP) totalFor(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, a := range s.awards {
		if a.userID == userID {
			total += a.amount
		}
	}
	return total
}

type stubStreaks struct {
	mu   sync.Mutex
	days []string
}

func (s *stubStreaks) MarkActivityDay(ctx context.Context, userID string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = append(s.days, userID)
	return nil
}

type stubProgression struct {
	mu          sync.Mutex
	completions []challenge.ChallengeType
}

func (s *stubProgression) RecordCompletion(ctx context.Context, userID string, challengeType challenge.ChallengeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, challengeType)
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []*event.ChallengeEvent
}

func (r *eventRecorder) listener() EventListener {
	return func(evt *event.ChallengeEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, evt)
	}
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Type
	}
	return out
}

type testEnv struct {
	svc         *ChallengeService
	store       *docstore.MemStore
	xp          *stubXP
	streaks     *stubStreaks
	progression *stubProgression
	events      *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:       docstore.NewMemStore(),
		xp:          &stubXP{},
		streaks:     &stubStreaks{},
		progression: &stubProgression{},
		events:      &eventRecorder{},
	}
	dispatcher := NewEventDispatcher()
	dispatcher.SetPrimary(env.events.listener())
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{}}, false)
	env.svc = NewChallengeService(env.store, gate, dispatcher, env.xp, env.streaks, env.xp, env.progression)
	return env
}

func (e *testEnv) seedChallenge(t *testing.T, ch *challenge.Challenge) {
	t.Helper()
	err := e.store.RunTransaction(context.Background(), func(tx docstore.Tx) error {
		return tx.Set(challenge.ChallengeKey(ch.ID), ch)
	})
	if err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
}

func activeChallenge(id string, steps int) *challenge.Challenge {
	reqs := make([]string, steps)
	for i := range reqs {
		reqs[i] = "step"
	}
	return &challenge.Challenge{
		ID:           id,
		Title:        "Carve a spoon",
		Type:         challenge.TypeSolo,
		Category:     "woodworking",
		Difficulty:   challenge.DifficultyIntermediate,
		Status:       challenge.StatusActive,
		Requirements: reqs,
		TimeEstimate: "1 hour",
	}
}

func TestJoin(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 3))

	res, err := env.svc.Join(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if res.UserChallenge.Status != challenge.UserChallengeActive {
		t.Errorf("status = %s, want ACTIVE", res.UserChallenge.Status)
	}
	if res.UserChallenge.MaxProgress != 3 {
		t.Errorf("maxProgress = %d, want 3", res.UserChallenge.MaxProgress)
	}
	if res.XPAwarded != JoinXP {
		t.Errorf("join XP = %d, want %d", res.XPAwarded, JoinXP)
	}
	if got := env.xp.totalFor("u1"); got != JoinXP {
		t.Errorf("awarded XP = %d, want %d", got, JoinXP)
	}

	ch, err := env.svc.GetChallenge(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if ch.ParticipantCount != 1 {
		t.Errorf("participantCount = %d, want 1", ch.ParticipantCount)
	}

	types := env.events.types()
	if len(types) != 1 || types[0] != event.ChallengeStarted {
		t.Errorf("events = %v, want [CHALLENGE_STARTED]", types)
	}
}

func TestJoinErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))
	draft := activeChallenge("c2", 1)
	draft.Status = challenge.StatusDraft
	env.seedChallenge(t, draft)

	if _, err := env.svc.Join(context.Background(), "u1", "nope"); challenge.KindOf(err) != challenge.KindNotFound {
		t.Errorf("unknown challenge: kind = %s, want NOT_FOUND", challenge.KindOf(err))
	}
	if _, err := env.svc.Join(context.Background(), "u1", "c2"); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("draft challenge: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}

	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); challenge.KindOf(err) != challenge.KindAlreadyJoined {
		t.Errorf("repeat join: kind = %s, want ALREADY_JOINED", challenge.KindOf(err))
	}
}

func TestJoinFull(t *testing.T) {
	env := newTestEnv(t)
	ch := activeChallenge("c1", 1)
	ch.MaxParticipants = 2
	env.seedChallenge(t, ch)

	for _, u := range []string{"u1", "u2"} {
		if _, err := env.svc.Join(context.Background(), u, "c1"); err != nil {
			t.Fatalf("join %s: %v", u, err)
		}
	}
	if _, err := env.svc.Join(context.Background(), "u3", "c1"); challenge.KindOf(err) != challenge.KindFull {
		t.Errorf("third join: kind = %s, want FULL", challenge.KindOf(err))
	}
}

func TestJoinGated(t *testing.T) {
	env := newTestEnv(t)
	ch := activeChallenge("c1", 1)
	ch.Type = challenge.TypeTrade
	env.seedChallenge(t, ch)

	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{}}, true)
	dispatcher := NewEventDispatcher()
	svc := NewChallengeService(env.store, gate, dispatcher, env.xp, env.streaks, env.xp, env.progression)

	if _, err := svc.Join(context.Background(), "u1", "c1"); challenge.KindOf(err) != challenge.KindGated {
		t.Errorf("gated join: kind = %s, want GATED", challenge.KindOf(err))
	}
	if got := env.xp.totalFor("u1"); got != 0 {
		t.Errorf("gated join must award no XP, got %d", got)
	}
}

func TestConcurrentJoinAtMostOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.svc.Join(context.Background(), "u1", "c1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case challenge.KindOf(err) == challenge.KindAlreadyJoined:
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d joins succeeded, want exactly 1", wins)
	}

	ch, err := env.svc.GetChallenge(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if ch.ParticipantCount != 1 {
		t.Errorf("participantCount = %d, want 1", ch.ParticipantCount)
	}
}

func TestUpdateProgress(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 4))
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// First tick: 0 -> 1 of 4 (25%), first-tick bonus.
	res, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 1, nil)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if res.Completed {
		t.Fatal("1 of 4 should not complete")
	}
	if res.XPAwarded != ProgressThresholdXP {
		t.Errorf("first tick XP = %d, want %d", res.XPAwarded, ProgressThresholdXP)
	}

	// Second tick: 1 -> 2 of 4, crosses 50%.
	res, err = env.svc.UpdateProgress(context.Background(), "u1", "c1", 1, nil)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if res.XPAwarded != ProgressThresholdXP {
		t.Errorf("50%% crossing XP = %d, want %d", res.XPAwarded, ProgressThresholdXP)
	}

	if _, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 0, nil); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("zero increment: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
	if _, err := env.svc.UpdateProgress(context.Background(), "u2", "c1", 1, nil); challenge.KindOf(err) != challenge.KindNotFound {
		t.Errorf("never joined: kind = %s, want NOT_FOUND", challenge.KindOf(err))
	}
}

func TestProgressClampAndCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 2))
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	// An oversized increment clamps at MaxProgress and completes.
	res, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 10, nil)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !res.Completed {
		t.Fatal("reaching MaxProgress must complete")
	}
	if res.UserChallenge.Progress != 2 {
		t.Errorf("progress = %d, want clamped to 2", res.UserChallenge.Progress)
	}
	if res.UserChallenge.Status != challenge.UserChallengeCompleted {
		t.Errorf("status = %s, want COMPLETED", res.UserChallenge.Status)
	}
	if res.UserChallenge.CompletedAt == nil {
		t.Error("CompletedAt must be set on completion")
	}

	// Completion in well under the "1 hour" estimate: INTERMEDIATE 50 +
	// early bonus 25.
	if res.CompletionXP != 75 {
		t.Errorf("completion XP = %d, want 75", res.CompletionXP)
	}

	// Side effects fired exactly once each.
	if len(env.streaks.days) != 1 {
		t.Errorf("streak marked %d times, want 1", len(env.streaks.days))
	}
	if len(env.progression.completions) != 1 {
		t.Errorf("tier progression recorded %d times, want 1", len(env.progression.completions))
	}
	if len(env.xp.skills) != 1 {
		t.Fatalf("skill XP awarded %d times, want 1", len(env.xp.skills))
	}
	if env.xp.skills[0].source != "Woodworking" {
		t.Errorf("skill = %q, want Woodworking", env.xp.skills[0].source)
	}
	if env.xp.skills[0].amount != 50 {
		t.Errorf("skill XP = %d, want the difficulty share 50", env.xp.skills[0].amount)
	}

	ch, err := env.svc.GetChallenge(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if ch.CompletionCount != 1 {
		t.Errorf("completionCount = %d, want 1", ch.CompletionCount)
	}

	types := env.events.types()
	if len(types) != 2 || types[1] != event.ChallengeCompleted {
		t.Errorf("events = %v, want [CHALLENGE_STARTED CHALLENGE_COMPLETED]", types)
	}

	// Progress after completion is rejected and changes nothing.
	if _, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 1, nil); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("progress after completion: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
	if len(env.streaks.days) != 1 {
		t.Error("rejected progress must not re-fire completion side effects")
	}
}

func TestCompletionSurvivesHookFailure(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	env.xp.mu.Lock()
	env.xp.failXP = true
	env.xp.mu.Unlock()

	res, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 1, nil)
	if err != nil {
		t.Fatalf("completion must not fail because an XP hook failed: %v", err)
	}
	if !res.Completed {
		t.Fatal("expected completion")
	}
	// The completed event still goes out.
	types := env.events.types()
	if len(types) == 0 || types[len(types)-1] != event.ChallengeCompleted {
		t.Errorf("events = %v, want trailing CHALLENGE_COMPLETED", types)
	}
}

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 3))
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	res, err := env.svc.Submit(context.Background(), "u1", "c1", map[string]any{"photo": "spoon.jpg"}, "first attempt")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Submission.ID == "" {
		t.Error("submission must get an id")
	}
	if res.UserChallenge.Status != challenge.UserChallengeSubmitted {
		t.Errorf("status = %s, want SUBMITTED", res.UserChallenge.Status)
	}

	// Re-submitting from SUBMITTED is allowed and creates a second record.
	res2, err := env.svc.Submit(context.Background(), "u1", "c1", nil, "second attempt")
	if err != nil {
		t.Fatalf("re-submit: %v", err)
	}
	if res2.Submission.ID == res.Submission.ID {
		t.Error("each submission must be a fresh record")
	}

	if _, err := env.svc.Abandon(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := env.svc.Submit(context.Background(), "u1", "c1", nil, ""); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("submit after abandon: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
}

func TestAbandon(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 2))
	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	res, err := env.svc.Abandon(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if res.UserChallenge.Status != challenge.UserChallengeAbandoned {
		t.Errorf("status = %s, want ABANDONED", res.UserChallenge.Status)
	}
	if res.UserChallenge.AbandonedAt == nil {
		t.Error("AbandonedAt must be set")
	}

	// Participant count keeps the historical join.
	ch, err := env.svc.GetChallenge(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get challenge: %v", err)
	}
	if ch.ParticipantCount != 1 {
		t.Errorf("participantCount = %d, want 1 after abandon", ch.ParticipantCount)
	}

	if _, err := env.svc.Abandon(context.Background(), "u1", "c1"); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("repeat abandon: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
	if _, err := env.svc.UpdateProgress(context.Background(), "u1", "c1", 1, nil); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("progress after abandon: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
}

func TestManualComplete(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 5))
	// Clerk-style user id with underscores exercises the id split.
	userID := "user_2abcDEF"
	if _, err := env.svc.Join(context.Background(), userID, "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	res, err := env.svc.ManualComplete(context.Background(), userID+"_c1")
	if err != nil {
		t.Fatalf("manual complete: %v", err)
	}
	if res.UserChallenge.Status != challenge.UserChallengeCompleted {
		t.Errorf("status = %s, want COMPLETED", res.UserChallenge.Status)
	}
	if res.UserChallenge.Progress != 5 {
		t.Errorf("progress = %d, want forced to MaxProgress 5", res.UserChallenge.Progress)
	}
	// INTERMEDIATE on the manual table, never the early bonus.
	if res.XPAwarded != 30 {
		t.Errorf("manual XP = %d, want 30", res.XPAwarded)
	}
	if len(env.progression.completions) != 1 {
		t.Errorf("tier progression recorded %d times, want 1", len(env.progression.completions))
	}
	// Manual completion does not mark streak activity.
	if len(env.streaks.days) != 0 {
		t.Errorf("streak marked %d times, want 0", len(env.streaks.days))
	}

	if _, err := env.svc.ManualComplete(context.Background(), userID+"_c1"); challenge.KindOf(err) != challenge.KindAlreadyCompleted {
		t.Errorf("repeat manual complete: kind = %s, want ALREADY_COMPLETED", challenge.KindOf(err))
	}
}

func TestManualCompleteErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))

	if _, err := env.svc.ManualComplete(context.Background(), "garbage"); challenge.KindOf(err) != challenge.KindNotFound {
		t.Errorf("malformed id: kind = %s, want NOT_FOUND", challenge.KindOf(err))
	}
	if _, err := env.svc.ManualComplete(context.Background(), "u1_c1"); challenge.KindOf(err) != challenge.KindNotFound {
		t.Errorf("never joined: kind = %s, want NOT_FOUND", challenge.KindOf(err))
	}

	if _, err := env.svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.svc.Abandon(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if _, err := env.svc.ManualComplete(context.Background(), "u1_c1"); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("manual complete after abandon: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
}

func TestListChallenges(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))
	archived := activeChallenge("c2", 1)
	archived.Status = challenge.StatusArchived
	env.seedChallenge(t, archived)

	active, err := env.svc.ListActiveChallenges(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != "c1" {
		t.Errorf("active = %v, want just c1", active)
	}
}

func TestListUserChallenges(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))
	env.seedChallenge(t, activeChallenge("c2", 1))

	for _, c := range []string{"c1", "c2"} {
		if _, err := env.svc.Join(context.Background(), "u1", c); err != nil {
			t.Fatalf("join %s: %v", c, err)
		}
	}
	if _, err := env.svc.Join(context.Background(), "u2", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.svc.Abandon(context.Background(), "u1", "c2"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	records, err := env.svc.ListUserChallenges(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Terminal records included, other users' records excluded.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

// conflictStore fails the first n transactions with ErrConflict, then
// delegates to the wrapped store.
type conflictStore struct {
	inner     docstore.Store
	mu        sync.Mutex
	remaining int
}

func (s *conflictStore) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	s.mu.Lock()
	if s.remaining > 0 {
		s.remaining--
		s.mu.Unlock()
		return docstore.ErrConflict
	}
	s.mu.Unlock()
	return s.inner.RunTransaction(ctx, fn)
}

func (s *conflictStore) List(ctx context.Context, prefix string, visit func(key string, raw []byte) error) error {
	return s.inner.List(ctx, prefix, visit)
}

func TestTransactionConflictRetry(t *testing.T) {
	env := newTestEnv(t)
	env.seedChallenge(t, activeChallenge("c1", 1))

	wrapped := &conflictStore{inner: env.store, remaining: 2}
	dispatcher := NewEventDispatcher()
	gate := NewTierGate(&stubTierSource{tiers: map[string]bool{}}, false)
	svc := NewChallengeService(wrapped, gate, dispatcher, env.xp, env.streaks, env.xp, env.progression)

	// Two conflicts, third attempt lands.
	if _, err := svc.Join(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("join should succeed on the third attempt: %v", err)
	}

	// Three conflicts exhaust the retry budget.
	wrapped.mu.Lock()
	wrapped.remaining = 3
	wrapped.mu.Unlock()
	_, err := svc.Join(context.Background(), "u2", "c1")
	if challenge.KindOf(err) != challenge.KindStoreConflict {
		t.Errorf("exhausted retries: kind = %s, want STORE_CONFLICT", challenge.KindOf(err))
	}
}

func TestCreateChallenge(t *testing.T) {
	env := newTestEnv(t)

	ch, err := env.svc.CreateChallenge(context.Background(), &challenge.Challenge{
		Title:            "Forge a hook",
		Type:             challenge.TypeSkill,
		Category:         "metalworking",
		Difficulty:       challenge.DifficultyBeginner,
		ParticipantCount: 99,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ch.ID == "" {
		t.Error("created challenge must get an id")
	}
	if ch.Status != challenge.StatusDraft {
		t.Errorf("status = %s, want DRAFT default", ch.Status)
	}
	if ch.ParticipantCount != 0 {
		t.Errorf("participantCount = %d, counters must start at zero", ch.ParticipantCount)
	}

	if _, err := env.svc.CreateChallenge(context.Background(), &challenge.Challenge{ID: ch.ID}); challenge.KindOf(err) != challenge.KindInvalidState {
		t.Errorf("duplicate id: kind = %s, want INVALID_STATE", challenge.KindOf(err))
	}
}

func TestSplitUserChallengeID(t *testing.T) {
	cases := []struct {
		in        string
		userID    string
		challenge string
		ok        bool
	}{
		{"u1_c1", "u1", "c1", true},
		{"user_2abc_f47ac10b", "user_2abc", "f47ac10b", true},
		{"nounderscore", "", "", false},
		{"_c1", "", "", false},
		{"u1_", "", "", false},
	}
	for _, c := range cases {
		u, ch, ok := splitUserChallengeID(c.in)
		if u != c.userID || ch != c.challenge || ok != c.ok {
			t.Errorf("splitUserChallengeID(%q) = (%q, %q, %v), want (%q, %q, %v)", c.in, u, ch, ok, c.userID, c.challenge, c.ok)
		}
	}
}
