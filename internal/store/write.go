package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/derby/internal/model"
)

// BeginSession clears any earlier session and records the roster and
// schedule a race starts with, in a single transaction.
func (s *Store) BeginSession(ctx context.Context, session string, seq int64, roster []model.Horse, sched model.Schedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	defer tx.Rollback()

	// Cascades to every dependent table.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("begin session: clear: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (token, seq, runs)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, session, seq, len(sched)); err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	if err := insertHorses(ctx, tx, session, roster); err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	if err := insertSchedule(ctx, tx, session, sched); err != nil {
		return fmt.Errorf("begin session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("begin session: commit: %w", err)
	}
	return nil
}

func insertHorses(ctx context.Context, tx *sql.Tx, session string, roster []model.Horse) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO horses
		(session, id, name, condition, silk_a, silk_b, color_label, color_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare horses: %w", err)
	}
	defer stmt.Close()

	for _, h := range roster {
		if _, err := stmt.ExecContext(ctx,
			session,
			h.ID,
			h.Name,
			h.Condition,
			h.Silks[0],
			h.Silks[1],
			h.Color.Label,
			h.Color.Value,
		); err != nil {
			return fmt.Errorf("insert horse %d: %w", h.ID, err)
		}
	}
	return nil
}

func insertSchedule(ctx context.Context, tx *sql.Tx, session string, sched model.Schedule) error {
	for i, run := range sched {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (session, run_index, distance)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, session, i, run.Distance); err != nil {
			return fmt.Errorf("insert run %d: %w", i, err)
		}

		for slot, h := range run.Entrants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO entrants (session, run_index, slot, horse_id)
				VALUES (?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, session, i, slot, h.ID); err != nil {
				return fmt.Errorf("insert run %d entrant %d: %w", i, h.ID, err)
			}
		}
	}
	return nil
}

// RecordTransition appends a state change of session.
// Duplicate (session, seq) pairs are silently ignored.
func (s *Store) RecordTransition(ctx context.Context, session string, seq int64, state string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transitions (session, seq, state)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, session, seq, state)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// RecordRun stores the committed ranking of one run, one row per place.
//
// Note: the session and run must already exist (foreign key constraint);
// BeginSession creates them.
func (s *Store) RecordRun(ctx context.Context, session string, seq int64, run, distance int, results []model.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run %d: %w", run, err)
	}
	defer tx.Rollback()

	var stored int
	err = tx.QueryRowContext(ctx, `
		SELECT distance FROM runs WHERE session = ? AND run_index = ?
	`, session, run).Scan(&stored)
	if err != nil {
		return fmt.Errorf("record run %d: %w", run, err)
	}
	if stored != distance {
		return fmt.Errorf("record run %d: distance %d does not match scheduled %d", run, distance, stored)
	}

	for place, r := range results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (session, run_index, place, horse_id, score, speed, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, session, run, place+1, r.Horse.ID, r.Score, string(r.Speed), seq); err != nil {
			return fmt.Errorf("record run %d place %d: %w", run, place+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run %d: commit: %w", run, err)
	}
	return nil
}
