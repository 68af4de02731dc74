package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"soundlab/internal/config"
	"soundlab/internal/timeline"
)

// ErrNotFound is returned when a session or job does not exist.
var ErrNotFound = errors.New("session: not found")

// Store manages session and render job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.SessionDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// SaveSession inserts a new session snapshot.
func (s *Store) SaveSession(ctx context.Context, name string, state *timeline.State, collapsed []timeline.Lane) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("session name required")
	}
	if state == nil {
		return nil, errors.New("session state required")
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	collapsedJSON, err := encodeLanes(collapsed)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (name, state, collapsed_lanes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		name, string(stateJSON), collapsedJSON, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &Session{
		ID:             id,
		Name:           name,
		State:          state.Clone(),
		CollapsedLanes: append([]timeline.Lane(nil), collapsed...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// UpdateSession replaces a session's state snapshot.
func (s *Store) UpdateSession(ctx context.Context, id int64, state *timeline.State, collapsed []timeline.Lane) error {
	if state == nil {
		return errors.New("session state required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	collapsedJSON, err := encodeLanes(collapsed)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET state = ?, collapsed_lanes = ?, updated_at = ? WHERE id = ?`,
		string(stateJSON), collapsedJSON, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, state, collapsed_lanes, created_at, updated_at FROM sessions WHERE id = ?`,
		id,
	)
	return scanSession(row)
}

// ListSessions returns all sessions ordered by most recent update.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, state, collapsed_lanes, created_at, updated_at
         FROM sessions ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its render jobs.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess          Session
		stateJSON     string
		collapsedJSON string
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(&sess.ID, &sess.Name, &stateJSON, &collapsedJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	state := timeline.NewState()
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	sess.State = state

	lanes, err := decodeLanes(collapsedJSON)
	if err != nil {
		return nil, err
	}
	sess.CollapsedLanes = lanes

	sess.CreatedAt = parseTimestamp(createdAt)
	sess.UpdatedAt = parseTimestamp(updatedAt)
	return &sess, nil
}

// encodeLanes serializes the collapsed-lane set as an ordered JSON array in
// fixed lane order so encoding is deterministic.
func encodeLanes(lanes []timeline.Lane) (string, error) {
	set := make(map[timeline.Lane]struct{}, len(lanes))
	for _, lane := range lanes {
		set[lane] = struct{}{}
	}
	ordered := make([]timeline.Lane, 0, len(set))
	for _, lane := range timeline.Lanes() {
		if _, ok := set[lane]; ok {
			ordered = append(ordered, lane)
		}
	}
	data, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("encode collapsed lanes: %w", err)
	}
	return string(data), nil
}

func decodeLanes(encoded string) ([]timeline.Lane, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}
	var lanes []timeline.Lane
	if err := json.Unmarshal([]byte(encoded), &lanes); err != nil {
		return nil, fmt.Errorf("decode collapsed lanes: %w", err)
	}
	return lanes, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
