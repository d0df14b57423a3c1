package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"nhooyr.io/websocket"

	"shed/internal/game"
	"shed/internal/game/shed"
	"shed/internal/protocol"
	"shed/internal/session"
	"shed/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := game.NewRegistry()
	for _, v := range shed.Variants() {
		reg.Register(v)
	}
	mgr := session.NewManager(reg, store, nil)
	var seed uint64
	mgr.NewConfig = func() game.MatchConfig {
		seed++
		return game.MatchConfig{Rand: rand.New(rand.NewPCG(seed, 7))}
	}

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
	}
	srv := New(reg, mgr, webFS, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createSessionViaAPI(t *testing.T, ts *httptest.Server, gameType, playerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"gameType":%q,"playerId":%q}`, gameType, playerID)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/sessions/" + code + "/ws"
}

// wsConnect dials a WebSocket and sends a join message.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	wsSend(ctx, t, conn, protocol.TypeJoin, protocol.JoinPayload{PlayerID: playerID})
	return conn
}

// wsSend writes one envelope, calling t.Fatal on error.
func wsSend(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("marshal ws message: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

// wsRead reads and decodes one envelope, calling t.Fatal on error.
func wsRead(ctx context.Context, t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("decode ws message: %v", err)
	}
	return msg
}

// readUntil skips messages until one of msgType arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string) protocol.Message {
	t.Helper()
	for {
		msg := wsRead(ctx, t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
}

func readSnapshot(ctx context.Context, t *testing.T, conn *websocket.Conn) shed.Snapshot {
	t.Helper()
	msg := readUntil(ctx, t, conn, "snapshot")
	var snap shed.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	return snap
}

func readRejected(ctx context.Context, t *testing.T, conn *websocket.Conn) protocol.RejectedPayload {
	t.Helper()
	msg := readUntil(ctx, t, conn, protocol.TypeRejected)
	var rp protocol.RejectedPayload
	if err := json.Unmarshal(msg.Payload, &rp); err != nil {
		t.Fatalf("unmarshal rejection: %v", err)
	}
	return rp
}

func readError(ctx context.Context, t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := wsRead(ctx, t, conn)
	if msg.Type != protocol.TypeError {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep protocol.ErrorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep.Message
}

// startMatch creates a session for alice and connects both players. Both
// connections have consumed their messages up to the deal.
func startMatch(t *testing.T, env *testEnv) (string, *websocket.Conn, *websocket.Conn) {
	t.Helper()
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "shed", "alice")
	alice := wsConnect(t, env.ts, code, "alice")
	t.Cleanup(func() { alice.Close(websocket.StatusNormalClosure, "") })
	readUntil(ctx, t, alice, protocol.TypeJoined)
	readSnapshot(ctx, t, alice)

	bob := wsConnect(t, env.ts, code, "bob")
	t.Cleanup(func() { bob.Close(websocket.StatusNormalClosure, "") })
	readUntil(ctx, t, bob, protocol.TypeJoined)
	if snap := readSnapshot(ctx, t, bob); snap.Phase != shed.PhasePlaying {
		t.Fatalf("expected playing after bob joined, got %s", snap.Phase)
	}
	if snap := readSnapshot(ctx, t, alice); snap.Phase != shed.PhasePlaying {
		t.Fatalf("expected alice to see the deal, got %s", snap.Phase)
	}
	return code, alice, bob
}

func containsPlayer(players []string, id string) bool {
	for _, p := range players {
		if p == id {
			return true
		}
	}
	return false
}
