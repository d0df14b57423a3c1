package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"shed/internal/game"
	"shed/internal/protocol"
	"shed/internal/session"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := s.manager.Get(code); !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	connID := s.manager.Bind(code)
	defer s.manager.Unbind(connID)
	log := s.log.With(zap.String("session", code), zap.String("conn", connID))

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	msg, err := protocol.Decode(data)
	if err != nil || msg.Type != protocol.TypeJoin {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join protocol.JoinPayload
	if len(msg.Payload) > 0 {
		if err := msg.DecodePayload(&join); err != nil {
			sendWSError(ctx, conn, "invalid join payload")
			return
		}
	}
	playerID := strings.TrimSpace(join.PlayerID)
	if playerID == "" {
		playerID = uuid.NewString()
	}

	sess, ok := s.manager.MatchFor(connID)
	if !ok {
		sendWSRejected(ctx, conn, protocol.TypeJoin, game.ErrMatchNotFound)
		return
	}

	send := make(chan []byte, session.SendBuffer)
	// joined goes out ahead of the snapshot the join produces.
	sendWSMsg(send, protocol.TypeJoined, protocol.JoinedPayload{Code: code, GameType: sess.GameType, PlayerID: playerID})
	if err := sess.Join(playerID, send); err != nil {
		sendWSRejected(ctx, conn, protocol.TypeJoin, err)
		return
	}
	s.save(sess)
	log = log.With(zap.String("player", playerID))
	log.Info("player joined")

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			sendWSMsg(send, protocol.TypeError, protocol.ErrorPayload{Message: "invalid message"})
			continue
		}
		if !s.handleMessage(connID, playerID, send, msg, log) {
			break
		}
	}

	// Keep the seat so the player can reconnect.
	sess.Detach(playerID, send)
	close(send)
	log.Info("player disconnected")
}

// handleMessage processes one frame. It returns false when the connection
// should be closed.
func (s *Server) handleMessage(connID, playerID string, send chan []byte, msg protocol.Message, log *zap.Logger) bool {
	sess, ok := s.manager.MatchFor(connID)
	if !ok {
		sendWSMsg(send, protocol.TypeRejected, protocol.Rejected(msg.Type, game.ErrMatchNotFound))
		return false
	}

	switch msg.Type {
	case protocol.TypePing:
		sendWSMsg(send, protocol.TypePong, nil)

	case protocol.TypeJoin:
		sendWSMsg(send, protocol.TypeError, protocol.ErrorPayload{Message: "already joined"})

	case protocol.TypeLeave:
		if err := sess.Leave(playerID); err != nil {
			sendWSMsg(send, protocol.TypeRejected, protocol.Rejected(msg.Type, err))
			return true
		}
		s.save(sess)
		log.Info("player left")
		return false

	default:
		if err := sess.Apply(playerID, msg.Action()); err != nil {
			if !game.IsRejection(err) {
				log.Error("apply action", zap.String("action", msg.Type), zap.Error(err))
			}
			return true
		}
		s.save(sess)
	}
	return true
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return
	}
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	msg, _ := protocol.NewMessage(protocol.TypeError, protocol.ErrorPayload{Message: message})
	conn.Write(ctx, websocket.MessageText, msg)
}

func sendWSRejected(ctx context.Context, conn *websocket.Conn, action string, err error) {
	msg, _ := protocol.NewMessage(protocol.TypeRejected, protocol.Rejected(action, err))
	conn.Write(ctx, websocket.MessageText, msg)
}
