package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code      string
	GameType  string
	Status    string // "waiting", "playing", "finished", "abandoned"
	CreatedAt time.Time
}

// ResultRow is one finished match.
type ResultRow struct {
	ID          string    `json:"id"`
	SessionCode string    `json:"sessionCode"`
	GameType    string    `json:"gameType"`
	WinnerID    string    `json:"winnerId"`
	LoserID     string    `json:"loserId"`
	LoserCards  int       `json:"loserCards"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Each connection to :memory: would get its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			id           TEXT PRIMARY KEY,
			session_code TEXT NOT NULL UNIQUE,
			game_type    TEXT NOT NULL,
			winner_id    TEXT NOT NULL,
			loser_id     TEXT NOT NULL,
			loser_cards  INTEGER NOT NULL,
			finished_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS results_winner ON results(winner_id);
		CREATE INDEX IF NOT EXISTS results_loser ON results(loser_id);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(code, gameType string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status) VALUES (?, ?, 'waiting')",
		code, gameType,
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow("SELECT code, game_type, status, created_at FROM sessions WHERE code = ?", code)
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query("SELECT code, game_type, status, created_at FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT code, game_type, status, created_at FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(sessionCode, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// DeleteSession removes a session and its match state.
func (s *Store) DeleteSession(code string) error {
	_, err := s.db.Exec("DELETE FROM match_state WHERE session_code = ?", code)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM sessions WHERE code = ?", code)
	return err
}

// RecordResult stores the outcome of a match. A session is recorded at
// most once; repeats are ignored.
func (s *Store) RecordResult(r ResultRow) error {
	_, err := s.db.Exec(`
		INSERT INTO results (id, session_code, game_type, winner_id, loser_id, loser_cards)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_code) DO NOTHING
	`, r.ID, r.SessionCode, r.GameType, r.WinnerID, r.LoserID, r.LoserCards)
	return err
}

// ListResults returns the most recent results, newest first.
func (s *Store) ListResults(limit int) ([]ResultRow, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryResults(`
		SELECT id, session_code, game_type, winner_id, loser_id, loser_cards, finished_at
		FROM results ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
}

// ResultsByPlayer returns every result the player took part in, newest first.
func (s *Store) ResultsByPlayer(playerID string) ([]ResultRow, error) {
	return s.queryResults(`
		SELECT id, session_code, game_type, winner_id, loser_id, loser_cards, finished_at
		FROM results WHERE winner_id = ? OR loser_id = ?
		ORDER BY finished_at DESC, rowid DESC`, playerID, playerID)
}

func (s *Store) queryResults(query string, args ...any) ([]ResultRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []ResultRow{}
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.ID, &r.SessionCode, &r.GameType, &r.WinnerID, &r.LoserID, &r.LoserCards, &r.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
