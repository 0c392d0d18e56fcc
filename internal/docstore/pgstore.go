package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps every document in a single documents table and relies on
// Postgres SERIALIZABLE isolation for the transaction contract. Serialization
// failures (SQLSTATE 40001) and deadlocks (40P01) surface as ErrConflict.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return mapConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, prefix string, visit func(key string, raw []byte) error) error {
	rows, err := s.db.Query(ctx,
		`SELECT key, doc FROM documents WHERE key LIKE $1 || '%' ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		if err := visit(key, raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTx) Get(key string, dest any) (bool, error) {
	var raw []byte
	err := t.tx.QueryRow(t.ctx, `SELECT doc FROM documents WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapConflict(fmt.Errorf("get %s: %w", key, err))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *pgTx) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO documents (key, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, key, raw)
	if err != nil {
		return mapConflict(fmt.Errorf("set %s: %w", key, err))
	}
	return nil
}

func (t *pgTx) Update(key string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update for %s: %w", key, err)
	}
	tag, err := t.tx.Exec(t.ctx, `
		UPDATE documents SET doc = doc || $2::jsonb, updated_at = NOW() WHERE key = $1
	`, key, raw)
	if err != nil {
		return mapConflict(fmt.Errorf("update %s: %w", key, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: document not found", key)
	}
	return nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	return err
}
