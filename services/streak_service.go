package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreakService tracks consecutive days with challenge activity.
type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// MarkActivityDay records one day of activity and rolls the current/longest
// streak counters forward. Marking the same day twice is a no-op.
func (s *StreakService) MarkActivityDay(ctx context.Context, userID string, day time.Time) error {
	date := day.UTC().Truncate(24 * time.Hour)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin streak transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO daily_activity (user_id, date)
		VALUES ($1, $2)
		ON CONFLICT (user_id, date) DO NOTHING
	`, userID, date)
	if err != nil {
		return fmt.Errorf("failed to record activity day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already marked today.
		return tx.Commit(ctx)
	}

	var current, longest int
	var lastDate *time.Time
	err = tx.QueryRow(ctx, `
		SELECT current_streak, longest_streak, last_activity_date
		FROM streaks WHERE user_id = $1
	`, userID).Scan(&current, &longest, &lastDate)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to load streak: %w", err)
	}

	switch {
	case lastDate != nil && lastDate.UTC().Truncate(24*time.Hour).Equal(date.AddDate(0, 0, -1)):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = $2, longest_streak = $3, last_activity_date = $4, updated_at = NOW()
	`, userID, current, longest, date)
	if err != nil {
		return fmt.Errorf("failed to store streak: %w", err)
	}

	return tx.Commit(ctx)
}
