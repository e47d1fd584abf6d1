// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/duo/internal/models"
)

// ErrTableNotFound is returned by Summary for an unknown table id.
var ErrTableNotFound = errors.New("table not found")

// History writes the action log of finished and running tables. It is an
// audit trail; no game state is ever restored from it.
type History struct {
	pool *pgxpool.Pool
}

func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// TableSummary is one row of the tables table plus its action count.
type TableSummary struct {
	ID      uuid.UUID
	Status  string
	Winner  string
	Actions int
	Started time.Time
	Ended   *time.Time
}

// InsertActions persists a batch of records in one transaction. Records already
// stored are skipped, so a replayed batch is harmless. A game_end record marks
// its table completed.
func (h *History) InsertActions(ctx context.Context, recs []models.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.TableID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec models.ActionRecord) error {
	upsertTableQ := `
		INSERT INTO tables (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertTableQ, rec.TableID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO table_actions (
			table_id, action_index, seat, actor_id, action_type, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (table_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.TableID, rec.ActionIndex, rec.Seat, rec.ActorID, rec.ActionType, payload,
		time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	switch rec.ActionType {
	case models.ActionGameStart:
		// A redeal reopens a table whose previous game completed.
		_, err = tx.Exec(ctx, `
			UPDATE tables SET status = 'in_progress', winner = NULL, end_time = NULL
			WHERE id = $1 AND status = 'completed'
		`, rec.TableID)
	case models.ActionGameEnd:
		winner, _ := rec.Payload["winner"].(string)
		_, err = tx.Exec(ctx, `
			UPDATE tables SET status = 'completed', winner = $2, end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`, rec.TableID, winner)
	case models.ActionAbandoned:
		err = markAbandonedTx(ctx, tx, rec.TableID)
	}
	return err
}

// MarkAbandoned flags a table that is still in progress as abandoned.
func (h *History) MarkAbandoned(ctx context.Context, tableID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return markAbandonedTx(ctx, tx, tableID)
	})
}

func markAbandonedTx(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tables SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`, tableID)
	return err
}

// Summary loads the stored row for a table.
func (h *History) Summary(ctx context.Context, tableID uuid.UUID) (TableSummary, error) {
	q := `
		SELECT t.id, t.status, COALESCE(t.winner, ''), t.start_time, t.end_time,
			(SELECT COUNT(*) FROM table_actions a WHERE a.table_id = t.id)
		FROM tables t
		WHERE t.id = $1
	`
	var s TableSummary
	err := h.pool.QueryRow(ctx, q, tableID).Scan(&s.ID, &s.Status, &s.Winner, &s.Started, &s.Ended, &s.Actions)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, ErrTableNotFound
	}
	if err != nil {
		return s, fmt.Errorf("query table %s: %w", tableID, err)
	}
	return s, nil
}
