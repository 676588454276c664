package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/derby/internal/model"
)

// ErrNoSession is returned when the journal holds no session.
var ErrNoSession = errors.New("no session recorded")

// Session describes the recorded race session.
type Session struct {
	Token string `json:"token"`
	Seq   int64  `json:"seq"`
	Runs  int    `json:"runs"`
}

// Transition is one recorded state change.
type Transition struct {
	Seq   int64  `json:"seq"`
	State string `json:"state"`
}

// ReadSession returns the current session.
func (s *Store) ReadSession(ctx context.Context) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT token, seq, runs FROM sessions
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&sess.Token, &sess.Seq, &sess.Runs)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ReadRoster returns the roster of session ordered by horse ID.
func (s *Store) ReadRoster(ctx context.Context, session string) ([]model.Horse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, condition, silk_a, silk_b, color_label, color_value
		FROM horses
		WHERE session = ?
		ORDER BY id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	defer rows.Close()

	var horses []model.Horse
	for rows.Next() {
		h, err := scanHorse(rows)
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		horses = append(horses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return horses, nil
}

// ReadSchedule returns the schedule of session with entrants in draw order.
func (s *Store) ReadSchedule(ctx context.Context, session string) (model.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_index, r.distance,
		       h.id, h.name, h.condition, h.silk_a, h.silk_b, h.color_label, h.color_value
		FROM runs r
		JOIN entrants e ON e.session = r.session AND e.run_index = r.run_index
		JOIN horses h ON h.session = e.session AND h.id = e.horse_id
		WHERE r.session = ?
		ORDER BY r.run_index ASC, e.slot ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	defer rows.Close()

	var sched model.Schedule
	for rows.Next() {
		var (
			run, distance int
			h             model.Horse
		)
		if err := rows.Scan(&run, &distance,
			&h.ID, &h.Name, &h.Condition, &h.Silks[0], &h.Silks[1], &h.Color.Label, &h.Color.Value,
		); err != nil {
			return nil, fmt.Errorf("read schedule: %w", err)
		}
		for len(sched) <= run {
			sched = append(sched, model.Run{})
		}
		sched[run].Distance = distance
		sched[run].Entrants = append(sched[run].Entrants, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return sched, nil
}

// ReadResults returns the committed rankings of session, one slice per run
// in commit order, places in order.
func (s *Store) ReadResults(ctx context.Context, session string) ([][]model.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_index, r.score, r.speed,
		       h.id, h.name, h.condition, h.silk_a, h.silk_b, h.color_label, h.color_value
		FROM results r
		JOIN horses h ON h.session = r.session AND h.id = r.horse_id
		WHERE r.session = ?
		ORDER BY r.seq ASC, r.run_index ASC, r.place ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	defer rows.Close()

	var (
		results [][]model.Result
		lastRun = -1
	)
	for rows.Next() {
		var (
			run   int
			speed string
			res   model.Result
		)
		h := &res.Horse
		if err := rows.Scan(&run, &res.Score, &speed,
			&h.ID, &h.Name, &h.Condition, &h.Silks[0], &h.Silks[1], &h.Color.Label, &h.Color.Value,
		); err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		res.Speed = model.SpeedClass(speed)

		if run != lastRun {
			results = append(results, nil)
			lastRun = run
		}
		results[len(results)-1] = append(results[len(results)-1], res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return results, nil
}

// ReadTransitions returns the state changes of session in seq order.
func (s *Store) ReadTransitions(ctx context.Context, session string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, state FROM transitions
		WHERE session = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var tr Transition
		if err := rows.Scan(&tr.Seq, &tr.State); err != nil {
			return nil, fmt.Errorf("read transitions: %w", err)
		}
		transitions = append(transitions, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transitions: %w", err)
	}
	return transitions, nil
}

func scanHorse(rows *sql.Rows) (model.Horse, error) {
	var h model.Horse
	err := rows.Scan(&h.ID, &h.Name, &h.Condition, &h.Silks[0], &h.Silks[1], &h.Color.Label, &h.Color.Value)
	return h, err
}
