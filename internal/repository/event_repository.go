package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gridtrain/eval-api/internal/models"
)

const eventColumns = `id, cycle_id, title, sequence, status, score, max_score, weight, attempt_number, has_penalty, penalty_amount, original_score, notes, evaluated_at, created_at, updated_at`

// EventRepository persists cycle events. Every write also stores the
// recomputed parent cycle so both change atomically.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// FindByID returns an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

const eventsByCycleQuery = `SELECT ` + eventColumns + ` FROM events WHERE cycle_id = $1 ORDER BY sequence ASC, created_at ASC`

// ListByCycle returns a cycle's events in sequence order.
func (r *EventRepository) ListByCycle(ctx context.Context, cycleID string) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, eventsByCycleQuery, cycleID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// CycleRecompute derives a cycle's status, progress and score from the
// events it holds after a write.
type CycleRecompute func(cycle *models.Cycle, events []models.Event)

// CreateWithCycle inserts event and stores the recomputed parent cycle.
func (r *EventRepository) CreateWithCycle(ctx context.Context, event *models.Event, recompute CycleRecompute) (*models.Cycle, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	return r.writeLocked(ctx, event.CycleID, recompute, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO events (` + eventColumns + `)
VALUES (:id, :cycle_id, :title, :sequence, :status, :score, :max_score, :weight, :attempt_number, :has_penalty, :penalty_amount, :original_score, :notes, :evaluated_at, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("create event: %w", translateError(err))
		}
		return nil
	})
}

// UpdateWithCycle writes event and stores the recomputed parent cycle.
func (r *EventRepository) UpdateWithCycle(ctx context.Context, event *models.Event, recompute CycleRecompute) (*models.Cycle, error) {
	event.UpdatedAt = time.Now().UTC()
	return r.writeLocked(ctx, event.CycleID, recompute, func(tx *sqlx.Tx) error {
		const query = `UPDATE events SET title = :title, sequence = :sequence, status = :status, score = :score, max_score = :max_score, weight = :weight,
attempt_number = :attempt_number, has_penalty = :has_penalty, penalty_amount = :penalty_amount, original_score = :original_score, notes = :notes,
evaluated_at = :evaluated_at, updated_at = :updated_at WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, query, event)
		if err != nil {
			return fmt.Errorf("update event: %w", translateError(err))
		}
		return expectOneRow(res)
	})
}

// DeleteWithCycle removes event and stores the recomputed parent cycle.
func (r *EventRepository) DeleteWithCycle(ctx context.Context, event *models.Event, recompute CycleRecompute) (*models.Cycle, error) {
	return r.writeLocked(ctx, event.CycleID, recompute, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, event.ID)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return expectOneRow(res)
	})
}

// writeLocked serialises event writes per cycle: the cycle row is locked
// before write runs and the events are re-read inside the same transaction,
// so the stored cycle always reflects every committed event.
func (r *EventRepository) writeLocked(ctx context.Context, cycleID string, recompute CycleRecompute, write func(tx *sqlx.Tx) error) (*models.Cycle, error) {
	var cycle models.Cycle
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &cycle, `SELECT `+cycleColumns+` FROM cycles WHERE id = $1 FOR UPDATE`, cycleID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return err
		case err != nil:
			return fmt.Errorf("lock cycle: %w", err)
		}
		if err := write(tx); err != nil {
			return err
		}
		var events []models.Event
		if err := tx.SelectContext(ctx, &events, eventsByCycleQuery, cycleID); err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		recompute(&cycle, events)
		return updateCycleTx(ctx, tx, &cycle)
	})
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}
