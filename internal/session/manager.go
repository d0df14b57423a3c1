package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shed/internal/game"
	"shed/internal/storage"
)

var ErrUnknownGameType = errors.New("unknown game type")

// codeAttempts bounds the retries when a generated code is already taken.
const codeAttempts = 8

// Manager manages all active sessions and the connections bound to them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	conns    map[string]string // connID -> session code
	registry *game.Registry
	store    *storage.Store
	log      *zap.Logger
	newCode  func() (string, error)

	// NewConfig supplies the match config for each new session.
	NewConfig func() game.MatchConfig
}

// NewManager creates a session manager.
func NewManager(registry *game.Registry, store *storage.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions:  make(map[string]*Session),
		conns:     make(map[string]string),
		registry:  registry,
		store:     store,
		log:       log,
		newCode:   generateCode,
		NewConfig: func() game.MatchConfig { return game.MatchConfig{} },
	}
}

// Create makes a new session and persists it.
func (m *Manager) Create(gameType string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(gameType)
}

func (m *Manager) createLocked(gameType string) (*Session, error) {
	g, ok := m.registry.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameType, gameType)
	}
	code, err := m.newCodeLocked()
	if err != nil {
		return nil, err
	}
	if err := m.store.CreateSession(code, gameType); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s := NewSession(code, gameType, g, m.NewConfig(), m.log)
	m.sessions[code] = s
	m.log.Info("session created", zap.String("session", code), zap.String("gameType", gameType))
	return s, nil
}

// newCodeLocked picks a code not used by a live session or a stored one.
func (m *Manager) newCodeLocked() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := m.newCode()
		if err != nil {
			return "", fmt.Errorf("generate session code: %w", err)
		}
		if _, taken := m.sessions[code]; taken {
			continue
		}
		_, err = m.store.GetSession(code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return "", fmt.Errorf("check session code: %w", err)
		}
		return code, nil
	}
	return "", fmt.Errorf("generate session code: %d collisions in a row", codeAttempts)
}

// QuickMatch seats playerID in the oldest session of gameType with a free
// seat, or in a new one. The pick and the seat are taken under the manager
// lock, so concurrent callers never share a seat. A player already seated
// in an unfinished session of gameType gets that session back.
func (m *Manager) QuickMatch(gameType, playerID string) (*Session, error) {
	if _, ok := m.registry.Get(gameType); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameType, gameType)
	}
	if playerID == "" {
		return nil, fmt.Errorf("%w: empty player id", game.ErrUnknownPlayer)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var candidates []*Session
	for _, s := range m.sessions {
		if s.GameType == gameType {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	for _, s := range candidates {
		if s.holds(playerID) {
			return s, nil
		}
	}
	for _, s := range candidates {
		if !s.open() {
			continue
		}
		if err := s.Join(playerID, nil); err == nil {
			return s, nil
		}
	}

	s, err := m.createLocked(gameType)
	if err != nil {
		return nil, err
	}
	if err := s.Join(playerID, nil); err != nil {
		return nil, fmt.Errorf("seat %s in %s: %w", playerID, s.Code, err)
	}
	return s, nil
}

// Get returns a session by code.
func (m *Manager) Get(code string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	return s, ok
}

// List returns info for all active sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].Code < infos[j].Code
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Bind registers a new connection against a session and returns its id.
func (m *Manager) Bind(code string) string {
	connID := uuid.NewString()
	m.mu.Lock()
	m.conns[connID] = code
	m.mu.Unlock()
	return connID
}

// Unbind forgets a connection.
func (m *Manager) Unbind(connID string) {
	m.mu.Lock()
	delete(m.conns, connID)
	m.mu.Unlock()
}

// MatchFor returns the session a connection is bound to.
func (m *Manager) MatchFor(connID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.conns[connID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[code]
	return s, ok
}

// SaveMatchState persists the session after a change and records the
// result the first time a finished match is seen.
func (m *Manager) SaveMatchState(s *Session) error {
	p, err := s.persistState()
	if err != nil {
		return fmt.Errorf("marshal match state: %w", err)
	}
	if err := m.store.UpdateSessionStatus(s.Code, string(p.status)); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := m.store.SaveMatchState(s.Code, string(p.state)); err != nil {
		return fmt.Errorf("save match state: %w", err)
	}
	if p.record {
		if err := m.RecordResult(s.Code, s.GameType, p.results); err != nil {
			return err
		}
	}
	return nil
}

// RecordResult stores the outcome of a finished two-player match.
func (m *Manager) RecordResult(code, gameType string, results []game.PlayerResult) error {
	var winner, loser *game.PlayerResult
	for i := range results {
		switch results[i].Rank {
		case 1:
			winner = &results[i]
		default:
			loser = &results[i]
		}
	}
	if winner == nil || loser == nil {
		return fmt.Errorf("record result %s: need a winner and a loser, got %d results", code, len(results))
	}
	row := storage.ResultRow{
		ID:          uuid.NewString(),
		SessionCode: code,
		GameType:    gameType,
		WinnerID:    winner.PlayerID,
		LoserID:     loser.PlayerID,
		LoserCards:  loser.Score,
	}
	if err := m.store.RecordResult(row); err != nil {
		return fmt.Errorf("record result %s: %w", code, err)
	}
	m.log.Info("match finished",
		zap.String("session", code),
		zap.String("winner", winner.PlayerID),
		zap.String("loser", loser.PlayerID),
		zap.Int("loserCards", loser.Score))
	return nil
}

// Restore loads unfinished sessions from the database on startup.
func (m *Manager) Restore() error {
	rows, err := m.store.ListSessions("")
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, row := range rows {
		if Status(row.Status).Over() {
			continue
		}
		log := m.log.With(zap.String("session", row.Code))
		g, ok := m.registry.Get(row.GameType)
		if !ok {
			log.Warn("skipping session: unknown game type", zap.String("gameType", row.GameType))
			continue
		}
		s := NewSession(row.Code, row.GameType, g, m.NewConfig(), m.log)
		s.CreatedAt = row.CreatedAt

		stateJSON, err := m.store.GetMatchState(row.Code)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			log.Warn("skipping session: load match state", zap.Error(err))
			continue
		default:
			if err := s.restore([]byte(stateJSON)); err != nil {
				log.Warn("skipping session: unmarshal match state", zap.Error(err))
				continue
			}
		}
		m.mu.Lock()
		m.sessions[row.Code] = s
		m.mu.Unlock()
		log.Info("session restored", zap.String("status", string(s.Status)))
	}
	return nil
}

// Remove deletes a session from memory and storage.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	delete(m.sessions, code)
	for connID, c := range m.conns {
		if c == code {
			delete(m.conns, connID)
		}
	}
	m.mu.Unlock()
	if err := m.store.DeleteSession(code); err != nil {
		m.log.Warn("delete session", zap.String("session", code), zap.Error(err))
	}
}

// CleanupLoop removes stale sessions until ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(maxAge)
		}
	}
}

// cleanup drops sessions nobody is seated in, and sessions older than
// maxAge that are over or have no live connection. Results stay in the
// results table.
func (m *Manager) cleanup(maxAge time.Duration) {
	now := time.Now()
	var stale []string

	m.mu.RLock()
	for code, s := range m.sessions {
		info := s.Info()
		idle := info.Status.Over() || len(info.Connected) == 0
		if len(info.Players) == 0 || (idle && now.Sub(info.CreatedAt) > maxAge) {
			stale = append(stale, code)
		}
	}
	m.mu.RUnlock()

	for _, code := range stale {
		m.log.Info("cleaning up session", zap.String("session", code))
		m.Remove(code)
	}
}

func generateCode() (string, error) {
	b := make([]byte, 3) // 6 hex chars
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Results returns the most recent finished matches.
func (m *Manager) Results(limit int) ([]storage.ResultRow, error) {
	return m.store.ListResults(limit)
}

// PlayerResults returns every finished match the player took part in.
func (m *Manager) PlayerResults(playerID string) ([]storage.ResultRow, error) {
	return m.store.ResultsByPlayer(playerID)
}
