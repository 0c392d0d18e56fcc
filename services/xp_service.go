package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// XPService grants user XP and skill XP. Every grant also lands in the XP
// ledger, which is what makes the best-effort hooks observable after the
// fact.
type XPService struct {
	db *pgxpool.Pool
}

func NewXPService(db *pgxpool.Pool) *XPService {
	return &XPService{db: db}
}

func (s *XPService) AwardXP(ctx context.Context, userID string, amount int, source, refID string) error {
	if amount <= 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin xp transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, xp, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET xp = users.xp + EXCLUDED.xp, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to award xp: %w", err)
	}

	if err := s.writeLedger(ctx, tx, userID, "", amount, source, refID, ""); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *XPService) AwardSkillXP(ctx context.Context, userID, skill string, amount int, source, refID, note string) error {
	if amount <= 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin skill xp transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO skill_xp (user_id, skill, xp, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, skill) DO UPDATE SET xp = skill_xp.xp + EXCLUDED.xp, updated_at = NOW()
	`, userID, skill, amount)
	if err != nil {
		return fmt.Errorf("failed to award skill xp: %w", err)
	}

	if err := s.writeLedger(ctx, tx, userID, skill, amount, source, refID, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *XPService) writeLedger(ctx context.Context, tx pgx.Tx, userID, skill string, amount int, source, refID, note string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO xp_ledger (id, user_id, skill, amount, source, ref_id, note, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8)
	`, uuid.New(), userID, skill, amount, source, refID, note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write xp ledger: %w", err)
	}
	return nil
}
