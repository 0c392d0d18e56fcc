package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradeCraftAPI/internal/types/challenge"
)

// Completions needed in a tier before the next one unlocks.
const (
	tradeUnlockAt  = 3
	collabUnlockAt = 3
)

// ProgressionService owns the three-tier progression: SOLO completions unlock
// the TRADE tier, TRADE completions unlock COLLABORATION. It backs both the
// tier gate's lookups and the post-completion updater.
type ProgressionService struct {
	db *pgxpool.Pool
}

func NewProgressionService(db *pgxpool.Pool) *ProgressionService {
	return &ProgressionService{db: db}
}

func (s *ProgressionService) GetUnlockedTiers(ctx context.Context, userID string) (map[string]bool, error) {
	var tiers []string
	err := s.db.QueryRow(ctx,
		`SELECT unlocked_tiers FROM user_progression WHERE user_id = $1`, userID).Scan(&tiers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to load unlocked tiers: %w", err)
	}

	unlocked := make(map[string]bool, len(tiers))
	for _, tier := range tiers {
		unlocked[tier] = true
	}
	return unlocked, nil
}

// RecordCompletion bumps the counter for the completed challenge type and
// unlocks the next tier when its threshold is reached.
func (s *ProgressionService) RecordCompletion(ctx context.Context, userID string, challengeType challenge.ChallengeType) error {
	var column string
	switch challengeType {
	case challenge.TypeSolo:
		column = "solo_completions"
	case challenge.TypeTrade:
		column = "trade_completions"
	case challenge.TypeCollaboration:
		column = "collab_completions"
	default:
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin progression transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO user_progression (user_id, %[1]s, unlocked_tiers, updated_at)
		VALUES ($1, 1, '{}', NOW())
		ON CONFLICT (user_id) DO UPDATE SET %[1]s = user_progression.%[1]s + 1, updated_at = NOW()
		RETURNING solo_completions, trade_completions, collab_completions, unlocked_tiers
	`, column)

	var solo, trade, collab int
	var tiers []string
	if err := tx.QueryRow(ctx, query, userID).Scan(&solo, &trade, &collab, &tiers); err != nil {
		return fmt.Errorf("failed to record %s completion: %w", challengeType, err)
	}

	unlocked := make(map[string]bool, len(tiers))
	for _, tier := range tiers {
		unlocked[tier] = true
	}

	changed := false
	if solo >= tradeUnlockAt && !unlocked["TRADE"] {
		tiers = append(tiers, "TRADE")
		changed = true
		log.Printf("progression: user %s unlocked the TRADE tier", userID)
	}
	if trade >= collabUnlockAt && !unlocked["COLLABORATION"] {
		tiers = append(tiers, "COLLABORATION")
		changed = true
		log.Printf("progression: user %s unlocked the COLLABORATION tier", userID)
	}

	if changed {
		_, err := tx.Exec(ctx,
			`UPDATE user_progression SET unlocked_tiers = $2, updated_at = NOW() WHERE user_id = $1`,
			userID, tiers)
		if err != nil {
			return fmt.Errorf("failed to store unlocked tiers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit progression update: %w", err)
	}
	return nil
}
