package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"shed/internal/game"
	"shed/internal/protocol"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
	StatusAbandoned Status = "abandoned"
)

// Over reports whether no further play can happen.
func (s Status) Over() bool {
	return s == StatusFinished || s == StatusAbandoned
}

// SendBuffer is the capacity of a player's outbound queue.
const SendBuffer = 64

// Session is one match plus the connections of the players seated in it.
// Every call into the match happens under mu.
type Session struct {
	mu        sync.Mutex
	Code      string
	GameType  string
	Status    Status
	HostID    string
	CreatedAt time.Time
	Match     game.Match

	conns    map[string]chan []byte // playerID -> outbound queue
	recorded bool
	game     game.Game
	log      *zap.Logger
}

// NewSession creates a session with an empty match.
func NewSession(code, gameType string, g game.Game, config game.MatchConfig, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		Code:      code,
		GameType:  gameType,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		Match:     g.NewMatch(config),
		conns:     make(map[string]chan []byte),
		game:      g,
		log:       log.With(zap.String("session", code)),
	}
}

// Join seats playerID, or reattaches it if already seated, and routes its
// outbound messages to send. A nil send seats the player without a
// connection.
func (s *Session) Join(playerID string, send chan []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Match.Join(playerID)
	if err != nil {
		return err
	}
	if s.HostID == "" {
		s.HostID = playerID
	}
	if send != nil {
		s.conns[playerID] = send
	}
	s.refreshStatus()
	s.deliver(events)
	return nil
}

// Apply runs one game action. A rule violation is reported to the player
// as actionRejected and also returned.
func (s *Session) Apply(playerID string, action game.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Match.ApplyAction(playerID, action)
	if err != nil {
		if game.IsRejection(err) {
			s.sendLocked(playerID, protocol.TypeRejected, protocol.Rejected(action.Type, err))
		} else {
			s.log.Error("apply action", zap.String("player", playerID), zap.String("action", action.Type), zap.Error(err))
			s.sendLocked(playerID, protocol.TypeError, protocol.ErrorPayload{Message: "internal error"})
		}
		return err
	}
	s.refreshStatus()
	s.deliver(events)
	return nil
}

// Leave gives up the player's seat. During play this abandons the match.
func (s *Session) Leave(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.Match.Leave(playerID)
	if err != nil {
		return err
	}
	delete(s.conns, playerID)
	if s.HostID == playerID {
		s.HostID = ""
		if ids := s.Match.PlayerIDs(); len(ids) > 0 {
			s.HostID = ids[0]
		}
	}
	s.refreshStatus()
	s.deliver(events)
	return nil
}

// Detach forgets the player's connection but keeps the seat, so the player
// can reconnect. It only detaches send if it is still the current queue.
func (s *Session) Detach(playerID string, send chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.conns[playerID]; ok && cur == send {
		delete(s.conns, playerID)
	}
}

// Send queues a message for one player.
func (s *Session) Send(playerID, msgType string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(playerID, msgType, payload)
}

// Connected reports how many seated players have a live connection.
func (s *Session) Connected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Session) refreshStatus() {
	switch {
	case s.Match.IsOver() && len(s.Match.Results()) > 0:
		s.Status = StatusFinished
	case s.Match.IsOver():
		s.Status = StatusAbandoned
	case s.Match.Started():
		s.Status = StatusPlaying
	default:
		s.Status = StatusWaiting
	}
}

// deliver renders events for their recipients. Snapshots are rendered per
// viewer so hidden cards never leave the server.
func (s *Session) deliver(events []game.Event) {
	for _, ev := range events {
		recipients := ev.Recipients
		if len(recipients) == 0 {
			recipients = s.Match.PlayerIDs()
		}
		for _, pid := range recipients {
			if ev.Kind == game.EventSnapshot {
				s.sendLocked(pid, string(ev.Kind), s.Match.State(pid))
				continue
			}
			s.sendLocked(pid, string(ev.Kind), ev.Payload)
		}
	}
}

func (s *Session) sendLocked(playerID, msgType string, payload any) {
	send, ok := s.conns[playerID]
	if !ok {
		return
	}
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		s.log.Error("encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case send <- msg:
	default:
		s.log.Warn("dropping message, send buffer full", zap.String("player", playerID), zap.String("type", msgType))
	}
}

// Info returns session info for the API.
type Info struct {
	Code      string    `json:"code"`
	GameType  string    `json:"gameType"`
	Status    Status    `json:"status"`
	Players   []string  `json:"players"`
	Connected []string  `json:"connected"`
	HostID    string    `json:"hostId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	ids := s.Match.PlayerIDs()
	connected := make([]string, 0, len(s.conns))
	for _, id := range ids {
		if _, ok := s.conns[id]; ok {
			connected = append(connected, id)
		}
	}
	return Info{
		Code:      s.Code,
		GameType:  s.GameType,
		Status:    s.Status,
		Players:   ids,
		Connected: connected,
		HostID:    s.HostID,
		CreatedAt: s.CreatedAt,
	}
}

// open reports whether a new player could still take a seat.
func (s *Session) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status == StatusWaiting && len(s.Match.PlayerIDs()) < s.game.Info().MaxPlayers
}

// holds reports whether playerID is seated and the match is not over.
func (s *Session) holds(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Status.Over() {
		return false
	}
	for _, id := range s.Match.PlayerIDs() {
		if id == playerID {
			return true
		}
	}
	return false
}

// persisted is what the manager writes to storage after a change.
type persisted struct {
	status  Status
	state   []byte
	results []game.PlayerResult
	record  bool
}

func (s *Session) persistState() (persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.Match.MarshalJSON()
	if err != nil {
		return persisted{}, err
	}
	p := persisted{status: s.Status, state: data}
	if s.Status == StatusFinished && !s.recorded {
		p.results = s.Match.Results()
		p.record = true
		s.recorded = true
	}
	return p, nil
}

// restore replaces the match with a persisted one.
func (s *Session) restore(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Match.UnmarshalJSON(data); err != nil {
		return err
	}
	if ids := s.Match.PlayerIDs(); len(ids) > 0 {
		s.HostID = ids[0]
	}
	s.refreshStatus()
	s.recorded = s.Status == StatusFinished
	return nil
}
