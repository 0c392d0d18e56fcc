package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradeCraftAPI/internal/docstore"
	"tradeCraftAPI/internal/types/challenge"
	"tradeCraftAPI/internal/types/event"
	"tradeCraftAPI/utils"
)

// Bounded retry for serialization aborts. The transaction functions compute
// everything from fresh in-transaction reads, so re-running them is safe.
const txnAttempts = 3

const hookTimeout = 10 * time.Second

// XPAwarder grants experience points to a user. Additive and best-effort;
// the engine calls it at most once per state transition.
type XPAwarder interface {
	AwardXP(ctx context.Context, userID string, amount int, source, refID string) error
}

// StreakMarker records one day of activity for the streak subsystem.
type StreakMarker interface {
	MarkActivityDay(ctx context.Context, userID string, day time.Time) error
}

// SkillXPAwarder grants XP to a named skill.
type SkillXPAwarder interface {
	AwardSkillXP(ctx context.Context, userID, skill string, amount int, source, refID, note string) error
}

// ProgressionUpdater advances the three-tier progression counters after a
// completion of a SOLO, TRADE or COLLABORATION challenge.
type ProgressionUpdater interface {
	RecordCompletion(ctx context.Context, userID string, challengeType challenge.ChallengeType) error
}

// ChallengeService is the lifecycle manager for (user, challenge) pairs. All
// state transitions run inside store transactions; XP, streaks, skill XP,
// tier progression and event publishing are post-commit side effects that can
// never fail a committed transition.
type ChallengeService struct {
	store       docstore.Store
	gate        *TierGate
	dispatcher  *EventDispatcher
	xp          XPAwarder
	streaks     StreakMarker
	skills      SkillXPAwarder
	progression ProgressionUpdater
}

func NewChallengeService(
	store docstore.Store,
	gate *TierGate,
	dispatcher *EventDispatcher,
	xp XPAwarder,
	streaks StreakMarker,
	skills SkillXPAwarder,
	progression ProgressionUpdater,
) *ChallengeService {
	return &ChallengeService{
		store:       store,
		gate:        gate,
		dispatcher:  dispatcher,
		xp:          xp,
		streaks:     streaks,
		skills:      skills,
		progression: progression,
	}
}

type JoinResult struct {
	UserChallenge *challenge.UserChallenge `json:"userChallenge"`
	XPAwarded     int                      `json:"xpAwarded"`
}

// Join enrolls userID into a challenge. Duplicate-join protection is the
// point read of the deterministic user-challenge key inside the same
// transaction that creates it; two concurrent joins for the same pair commit
// exactly once.
func (s *ChallengeService) Join(ctx context.Context, userID, challengeID string) (*JoinResult, error) {
	var uc challenge.UserChallenge
	var title string

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		var ch challenge.Challenge
		found, err := tx.Get(challenge.ChallengeKey(challengeID), &ch)
		if err != nil {
			return err
		}
		if !found {
			return challenge.NewError(challenge.KindNotFound, "challenge %s not found", challengeID)
		}
		if ch.Status != challenge.StatusActive {
			return challenge.NewError(challenge.KindInvalidState, "challenge %s is %s, not ACTIVE", challengeID, ch.Status)
		}

		var existing challenge.UserChallenge
		joined, err := tx.Get(challenge.UserChallengeKey(userID, challengeID), &existing)
		if err != nil {
			return err
		}
		if joined {
			return challenge.NewError(challenge.KindAlreadyJoined, "user %s already joined challenge %s", userID, challengeID)
		}

		if decision := s.gate.Check(ctx, userID, ch.Type); !decision.Allowed {
			return challenge.NewError(challenge.KindGated, "%s", decision.Reason)
		}

		if ch.MaxParticipants > 0 && ch.ParticipantCount >= ch.MaxParticipants {
			return challenge.NewError(challenge.KindFull, "challenge %s is full (%d participants)", challengeID, ch.ParticipantCount)
		}

		maxProgress := len(ch.Requirements)
		if maxProgress < 1 {
			maxProgress = 1
		}
		now := time.Now().UTC()
		uc = challenge.UserChallenge{
			UserID:         userID,
			ChallengeID:    challengeID,
			Status:         challenge.UserChallengeActive,
			Progress:       0,
			MaxProgress:    maxProgress,
			StartedAt:      now,
			LastActivityAt: now,
		}
		if err := tx.Set(challenge.UserChallengeKey(userID, challengeID), &uc); err != nil {
			return err
		}

		ch.ParticipantCount++
		title = ch.Title
		return tx.Set(challenge.ChallengeKey(challengeID), &ch)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}

	challengeJoins.Inc()
	joinXP := JoinReward()
	s.runHook("join_xp", func(hookCtx context.Context) error {
		return s.awardUserXP(hookCtx, userID, joinXP, "challenge_join", challengeID)
	})
	s.publish(&event.ChallengeEvent{
		UserID:         userID,
		Type:           event.ChallengeStarted,
		ChallengeID:    challengeID,
		ChallengeTitle: title,
		XPAwarded:      &joinXP,
	})

	return &JoinResult{UserChallenge: &uc, XPAwarded: joinXP}, nil
}

type ProgressResult struct {
	UserChallenge *challenge.UserChallenge `json:"userChallenge"`
	Completed     bool                     `json:"completed"`
	XPAwarded     int                      `json:"xpAwarded"`
	CompletionXP  int                      `json:"completionXp,omitempty"`
}

// UpdateProgress advances the progress counter by increment, clamped at
// MaxProgress. Reaching MaxProgress completes the challenge in the same
// transaction; everything that follows completion is post-commit.
func (s *ChallengeService) UpdateProgress(ctx context.Context, userID, challengeID string, increment int, metadata map[string]any) (*ProgressResult, error) {
	if increment < 1 {
		return nil, challenge.NewError(challenge.KindInvalidState, "progress increment must be positive, got %d", increment)
	}

	var uc challenge.UserChallenge
	var ch challenge.Challenge
	var haveChallenge bool
	var oldPct float64
	var completed bool

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		found, err := tx.Get(challenge.UserChallengeKey(userID, challengeID), &uc)
		if err != nil {
			return err
		}
		if !found {
			return challenge.NewError(challenge.KindNotFound, "user %s has not joined challenge %s", userID, challengeID)
		}
		if uc.Status != challenge.UserChallengeActive {
			return challenge.NewError(challenge.KindInvalidState, "user challenge is %s, progress requires ACTIVE", uc.Status)
		}

		haveChallenge, err = tx.Get(challenge.ChallengeKey(challengeID), &ch)
		if err != nil {
			return err
		}

		oldPct = uc.ProgressPercent()
		newProgress := uc.Progress + increment
		if newProgress > uc.MaxProgress {
			newProgress = uc.MaxProgress
		}
		now := time.Now().UTC()
		uc.Progress = newProgress
		uc.LastActivityAt = now

		completed = newProgress >= uc.MaxProgress
		if completed {
			uc.Status = challenge.UserChallengeCompleted
			uc.CompletedAt = &now
			minutes := int(now.Sub(uc.StartedAt).Minutes())
			uc.CompletionTimeMinutes = &minutes
		}
		return tx.Set(challenge.UserChallengeKey(userID, challengeID), &uc)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}

	progressXP := ProgressReward(oldPct, uc.ProgressPercent(), uc.Progress)
	if progressXP > 0 {
		s.runHook("progress_xp", func(hookCtx context.Context) error {
			return s.awardUserXP(hookCtx, userID, progressXP, "challenge_progress", challengeID)
		})
	}

	result := &ProgressResult{UserChallenge: &uc, Completed: completed, XPAwarded: progressXP}

	if completed {
		var chPtr *challenge.Challenge
		if haveChallenge {
			chPtr = &ch
		}
		result.CompletionXP = s.completionSideEffects(userID, challengeID, chPtr, &uc)
		return result, nil
	}

	progress, maxProgress := uc.Progress, uc.MaxProgress
	s.publish(&event.ChallengeEvent{
		UserID:         userID,
		Type:           event.ChallengeProgress,
		ChallengeID:    challengeID,
		ChallengeTitle: ch.Title,
		Progress:       &progress,
		MaxProgress:    &maxProgress,
		XPAwarded:      &progressXP,
		Data:           metadata,
	})
	return result, nil
}

// completionSideEffects is the organic completion sequence. It runs after the
// completing transaction committed; each step is independently fallible and
// none of them can roll the completion back.
func (s *ChallengeService) completionSideEffects(userID, challengeID string, ch *challenge.Challenge, uc *challenge.UserChallenge) int {
	challengeCompletions.WithLabelValues("organic").Inc()

	s.runHook("completion_count", func(hookCtx context.Context) error {
		return s.incrementCompletionCount(hookCtx, challengeID)
	})

	if ch == nil {
		// Catalog entry vanished between join and completion. The state
		// transition stands; there is nothing to compute a reward from.
		log.Printf("completion side effects: challenge %s missing, skipping reward for user %s", challengeID, userID)
		return 0
	}

	minutes := 0
	if uc.CompletionTimeMinutes != nil {
		minutes = *uc.CompletionTimeMinutes
	}
	breakdown := CompletionReward(ch.Difficulty, ch.Reward.XP, minutes, ch.TimeEstimate)
	total := breakdown.Total()

	s.runHook("completion_xp", func(hookCtx context.Context) error {
		return s.awardUserXP(hookCtx, userID, total, "challenge_completion", challengeID)
	})

	s.runHook("streak", func(hookCtx context.Context) error {
		return s.streaks.MarkActivityDay(hookCtx, userID, time.Now().UTC())
	})

	s.runHook("skill_xp", func(hookCtx context.Context) error {
		skill := utils.SkillNameForCategory(ch.Category)
		note := fmt.Sprintf("completed %q", ch.Title)
		return s.skills.AwardSkillXP(hookCtx, userID, skill, breakdown.DifficultyXP, "challenge_completion", challengeID, note)
	})

	s.runHook("tier_progression", func(hookCtx context.Context) error {
		return s.recordTierProgress(hookCtx, userID, ch.Type)
	})

	s.publish(&event.ChallengeEvent{
		UserID:         userID,
		Type:           event.ChallengeCompleted,
		ChallengeID:    challengeID,
		ChallengeTitle: ch.Title,
		XPAwarded:      &total,
		Badges:         ch.Reward.Badges,
		Data: map[string]any{
			"difficultyXp": breakdown.DifficultyXP,
			"earlyBonus":   breakdown.EarlyBonus,
			"baseXp":       breakdown.BaseXP,
		},
	})
	return total
}

type SubmitResult struct {
	Submission    *challenge.ChallengeSubmission `json:"submission"`
	UserChallenge *challenge.UserChallenge       `json:"userChallenge"`
}

// Submit stores an append-only evidence record and moves the user challenge
// to SUBMITTED. SUBMITTED is not terminal; completion can still follow from
// progress or from ManualComplete, and re-submitting fresh evidence from
// SUBMITTED is allowed.
func (s *ChallengeService) Submit(ctx context.Context, userID, challengeID string, data map[string]any, note string) (*SubmitResult, error) {
	var uc challenge.UserChallenge
	var sub challenge.ChallengeSubmission

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		found, err := tx.Get(challenge.UserChallengeKey(userID, challengeID), &uc)
		if err != nil {
			return err
		}
		if !found {
			return challenge.NewError(challenge.KindNotFound, "user %s has not joined challenge %s", userID, challengeID)
		}
		if uc.Terminal() {
			return challenge.NewError(challenge.KindInvalidState, "user challenge is %s, submissions are closed", uc.Status)
		}

		now := time.Now().UTC()
		sub = challenge.ChallengeSubmission{
			ID:          uuid.New().String(),
			UserID:      userID,
			ChallengeID: challengeID,
			Data:        data,
			Note:        note,
			SubmittedAt: now,
		}
		if err := tx.Set(challenge.SubmissionKey(sub.ID), &sub); err != nil {
			return err
		}

		uc.Status = challenge.UserChallengeSubmitted
		uc.LastActivityAt = now
		return tx.Set(challenge.UserChallengeKey(userID, challengeID), &uc)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}

	s.publish(&event.ChallengeEvent{
		UserID:         userID,
		Type:           event.ChallengeSubmitted,
		ChallengeID:    challengeID,
		Data:           map[string]any{"submissionId": sub.ID},
	})
	return &SubmitResult{Submission: &sub, UserChallenge: &uc}, nil
}

type AbandonResult struct {
	UserChallenge *challenge.UserChallenge `json:"userChallenge"`
}

// Abandon is the alternate terminal path. The record stays as a tombstone and
// the challenge's participant count is deliberately not decremented, so
// historical participation is preserved.
func (s *ChallengeService) Abandon(ctx context.Context, userID, challengeID string) (*AbandonResult, error) {
	var uc challenge.UserChallenge

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		found, err := tx.Get(challenge.UserChallengeKey(userID, challengeID), &uc)
		if err != nil {
			return err
		}
		if !found {
			return challenge.NewError(challenge.KindNotFound, "user %s has not joined challenge %s", userID, challengeID)
		}
		if uc.Terminal() {
			return challenge.NewError(challenge.KindInvalidState, "user challenge is already %s", uc.Status)
		}

		now := time.Now().UTC()
		uc.Status = challenge.UserChallengeAbandoned
		uc.AbandonedAt = &now
		uc.LastActivityAt = now
		return tx.Set(challenge.UserChallengeKey(userID, challengeID), &uc)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}

	s.publish(&event.ChallengeEvent{
		UserID:      userID,
		Type:        event.ChallengeAbandoned,
		ChallengeID: challengeID,
	})
	return &AbandonResult{UserChallenge: &uc}, nil
}

type ManualCompleteResult struct {
	UserChallenge *challenge.UserChallenge `json:"userChallenge"`
	XPAwarded     int                      `json:"xpAwarded"`
}

// ManualComplete is the administrative completion path, keyed by the combined
// "{userID}_{challengeID}" id. It uses the simpler reward table and never the
// early-completion bonus; see the reward calculator for why the two formulas
// stay separate.
func (s *ChallengeService) ManualComplete(ctx context.Context, userChallengeID string) (*ManualCompleteResult, error) {
	userID, challengeID, ok := splitUserChallengeID(userChallengeID)
	if !ok {
		return nil, challenge.NewError(challenge.KindNotFound, "malformed user challenge id %q", userChallengeID)
	}

	var uc challenge.UserChallenge
	var ch challenge.Challenge
	var haveChallenge bool

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		found, err := tx.Get(challenge.UserChallengeKey(userID, challengeID), &uc)
		if err != nil {
			return err
		}
		if !found {
			return challenge.NewError(challenge.KindNotFound, "user challenge %s not found", userChallengeID)
		}
		if uc.Status == challenge.UserChallengeCompleted {
			return challenge.NewError(challenge.KindAlreadyCompleted, "user challenge %s is already completed", userChallengeID)
		}
		if uc.Status == challenge.UserChallengeAbandoned {
			return challenge.NewError(challenge.KindInvalidState, "user challenge %s was abandoned", userChallengeID)
		}

		haveChallenge, err = tx.Get(challenge.ChallengeKey(challengeID), &ch)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		uc.Progress = uc.MaxProgress
		uc.Status = challenge.UserChallengeCompleted
		uc.CompletedAt = &now
		uc.LastActivityAt = now
		minutes := int(now.Sub(uc.StartedAt).Minutes())
		uc.CompletionTimeMinutes = &minutes
		return tx.Set(challenge.UserChallengeKey(userID, challengeID), &uc)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}

	challengeCompletions.WithLabelValues("manual").Inc()

	s.runHook("completion_count", func(hookCtx context.Context) error {
		return s.incrementCompletionCount(hookCtx, challengeID)
	})

	xpAmount := 0
	if haveChallenge {
		xpAmount = ManualCompletionReward(ch.Difficulty)
		s.runHook("manual_completion_xp", func(hookCtx context.Context) error {
			return s.awardUserXP(hookCtx, userID, xpAmount, "challenge_manual_completion", challengeID)
		})
		s.runHook("tier_progression", func(hookCtx context.Context) error {
			return s.recordTierProgress(hookCtx, userID, ch.Type)
		})
	}

	xp := xpAmount
	s.publish(&event.ChallengeEvent{
		UserID:         userID,
		Type:           event.ChallengeCompleted,
		ChallengeID:    challengeID,
		ChallengeTitle: ch.Title,
		XPAwarded:      &xp,
		Badges:         ch.Reward.Badges,
	})
	return &ManualCompleteResult{UserChallenge: &uc, XPAwarded: xpAmount}, nil
}

// GetChallenge returns a catalog entry.
func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID string) (*challenge.Challenge, error) {
	var ch challenge.Challenge
	var found bool
	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		var err error
		found, err = tx.Get(challenge.ChallengeKey(challengeID), &ch)
		return err
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}
	if !found {
		return nil, challenge.NewError(challenge.KindNotFound, "challenge %s not found", challengeID)
	}
	return &ch, nil
}

// ListActiveChallenges returns every ACTIVE catalog entry.
func (s *ChallengeService) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	challenges := []*challenge.Challenge{}
	err := s.store.List(ctx, "challenges/", func(key string, raw []byte) error {
		var ch challenge.Challenge
		if err := unmarshalDoc(raw, &ch); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if ch.Status == challenge.StatusActive {
			challenges = append(challenges, &ch)
		}
		return nil
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}
	return challenges, nil
}

// ListUserChallenges returns every join record for a user, terminal ones
// included.
func (s *ChallengeService) ListUserChallenges(ctx context.Context, userID string) ([]*challenge.UserChallenge, error) {
	records := []*challenge.UserChallenge{}
	err := s.store.List(ctx, "userChallenges/"+userID+"_", func(key string, raw []byte) error {
		var uc challenge.UserChallenge
		if err := unmarshalDoc(raw, &uc); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		records = append(records, &uc)
		return nil
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}
	return records, nil
}

// CreateChallenge writes a catalog entry. Authoring is a thin admin surface;
// counters always start at zero regardless of the input.
func (s *ChallengeService) CreateChallenge(ctx context.Context, ch *challenge.Challenge) (*challenge.Challenge, error) {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if ch.Status == "" {
		ch.Status = challenge.StatusDraft
	}
	ch.ParticipantCount = 0
	ch.CompletionCount = 0
	ch.CreatedAt = time.Now().UTC()

	err := s.runTxn(ctx, func(tx docstore.Tx) error {
		var existing challenge.Challenge
		found, err := tx.Get(challenge.ChallengeKey(ch.ID), &existing)
		if err != nil {
			return err
		}
		if found {
			return challenge.NewError(challenge.KindInvalidState, "challenge %s already exists", ch.ID)
		}
		return tx.Set(challenge.ChallengeKey(ch.ID), ch)
	})
	if err != nil {
		return nil, s.asEngineError(err)
	}
	return ch, nil
}

func (s *ChallengeService) incrementCompletionCount(ctx context.Context, challengeID string) error {
	return s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		var ch challenge.Challenge
		found, err := tx.Get(challenge.ChallengeKey(challengeID), &ch)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("challenge %s not found", challengeID)
		}
		ch.CompletionCount++
		return tx.Set(challenge.ChallengeKey(challengeID), &ch)
	})
}

func (s *ChallengeService) recordTierProgress(ctx context.Context, userID string, challengeType challenge.ChallengeType) error {
	switch challengeType {
	case challenge.TypeSolo, challenge.TypeTrade, challenge.TypeCollaboration:
		return s.progression.RecordCompletion(ctx, userID, challengeType)
	}
	return nil
}

func (s *ChallengeService) awardUserXP(ctx context.Context, userID string, amount int, source, refID string) error {
	if amount <= 0 {
		return nil
	}
	if err := s.xp.AwardXP(ctx, userID, amount, source, refID); err != nil {
		return err
	}
	xpAwardedTotal.Add(float64(amount))
	return nil
}

// runHook executes one post-commit side effect with its own containment
// boundary. Failures and panics are logged and counted, never propagated.
func (s *ChallengeService) runHook(name string, hook func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			hookFailures.WithLabelValues(name).Inc()
			log.Printf("post-commit hook %s panicked: %v", name, r)
		}
	}()
	if err := hook(ctx); err != nil {
		hookFailures.WithLabelValues(name).Inc()
		log.Printf("post-commit hook %s failed: %v", name, err)
	}
}

func (s *ChallengeService) publish(evt *event.ChallengeEvent) {
	evt.CreatedAt = time.Now().UTC()
	s.dispatcher.Publish(evt)
}

func (s *ChallengeService) runTxn(ctx context.Context, fn func(tx docstore.Tx) error) error {
	var err error
	for attempt := 1; attempt <= txnAttempts; attempt++ {
		err = s.store.RunTransaction(ctx, fn)
		if err == nil || !errors.Is(err, docstore.ErrConflict) {
			return err
		}
		log.Printf("challenge transaction conflict (attempt %d/%d): %v", attempt, txnAttempts, err)
	}
	return err
}

// asEngineError resolves any transaction failure to a typed engine error, so
// nothing else ever crosses the public boundary.
func (s *ChallengeService) asEngineError(err error) *challenge.Error {
	var e *challenge.Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, docstore.ErrConflict) {
		return challenge.NewError(challenge.KindStoreConflict, "transaction kept conflicting after %d attempts", txnAttempts)
	}
	return challenge.NewError(challenge.KindUnexpected, "%v", err)
}

// User ids may themselves contain underscores (auth providers do this), so
// the combined id splits on the last one; challenge ids never contain it.
func splitUserChallengeID(id string) (userID, challengeID string, ok bool) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

func unmarshalDoc(raw []byte, dest any) error {
	return json.Unmarshal(raw, dest)
}
