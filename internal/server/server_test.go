package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"shed/internal/game"
	"shed/internal/session"
	"shed/internal/storage"
)

func TestListGames(t *testing.T) {
	env := setupTestEnv(t)

	var games []game.GameInfo
	if status := getJSON(t, env.ts.URL+"/api/games", &games); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(games) != 2 || games[0].Name != "shed" || games[1].Name != "shed-sweep" {
		t.Fatalf("expected [shed shed-sweep], got %v", games)
	}
}

func TestCreateSessionValid(t *testing.T) {
	env := setupTestEnv(t)

	body := `{"gameType":"shed","playerId":"alice"}`
	resp, err := http.Post(env.ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/sessions: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Code == "" {
		t.Fatal("expected non-empty code")
	}

	row, err := env.store.GetSession(result.Code)
	if err != nil {
		t.Fatalf("expected session to be persisted: %v", err)
	}
	if row.GameType != "shed" {
		t.Fatalf("expected game type shed, got %s", row.GameType)
	}
}

func TestCreateSessionMissingFields(t *testing.T) {
	env := setupTestEnv(t)

	body := `{"gameType":"","playerId":""}`
	resp, err := http.Post(env.ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Post(env.ts.URL+"/api/sessions", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateSessionUnknownGame(t *testing.T) {
	env := setupTestEnv(t)

	body := `{"gameType":"chess","playerId":"alice"}`
	resp, err := http.Post(env.ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSessionFound(t *testing.T) {
	env := setupTestEnv(t)
	code := createSessionViaAPI(t, env.ts, "shed", "alice")

	var info session.Info
	if status := getJSON(t, env.ts.URL+"/api/sessions/"+code, &info); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if info.Code != code {
		t.Fatalf("expected code %s, got %s", code, info.Code)
	}
	if !containsPlayer(info.Players, "alice") {
		t.Fatalf("expected alice in players, got %v", info.Players)
	}
	if info.Status != session.StatusWaiting {
		t.Fatalf("expected waiting, got %s", info.Status)
	}
	if info.HostID != "alice" {
		t.Fatalf("expected alice as host, got %s", info.HostID)
	}
	if len(info.Connected) != 0 {
		t.Fatalf("expected nobody connected yet, got %v", info.Connected)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	env := setupTestEnv(t)

	if status := getJSON(t, env.ts.URL+"/api/sessions/nope00", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestListSessions(t *testing.T) {
	env := setupTestEnv(t)
	createSessionViaAPI(t, env.ts, "shed", "alice")
	createSessionViaAPI(t, env.ts, "shed-sweep", "bob")

	var infos []session.Info
	if status := getJSON(t, env.ts.URL+"/api/sessions", &infos); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
}

func TestQuickMatch(t *testing.T) {
	env := setupTestEnv(t)

	post := func(body string) (int, createSessionResponse) {
		t.Helper()
		resp, err := http.Post(env.ts.URL+"/api/sessions/quick", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST quick: %v", err)
		}
		defer resp.Body.Close()
		var out createSessionResponse
		json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	status, first := post(`{"playerId":"alice"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if first.GameType != "shed" {
		t.Fatalf("expected default game type shed, got %s", first.GameType)
	}
	if first.PlayerID != "alice" {
		t.Fatalf("expected playerId alice, got %q", first.PlayerID)
	}

	_, second := post(`{"gameType":"shed","playerId":"bob"}`)
	if second.Code != first.Code {
		t.Fatalf("expected to be paired into %s, got %s", first.Code, second.Code)
	}

	_, third := post(`{"playerId":"carol"}`)
	if third.Code == first.Code {
		t.Fatalf("third caller must not be sent to the full session %s", first.Code)
	}

	var info session.Info
	getJSON(t, env.ts.URL+"/api/sessions/"+first.Code, &info)
	if len(info.Players) != 2 || info.Status != session.StatusPlaying {
		t.Fatalf("expected alice and bob playing, got %+v", info)
	}
	getJSON(t, env.ts.URL+"/api/sessions/"+third.Code, &info)
	if len(info.Players) != 1 || info.Players[0] != "carol" {
		t.Fatalf("expected carol seated alone, got %+v", info)
	}

	_, anon := post(`{}`)
	if anon.PlayerID == "" {
		t.Fatal("expected an assigned player id")
	}
	if anon.Code != third.Code {
		t.Fatalf("expected to be paired with carol in %s, got %s", third.Code, anon.Code)
	}

	if status, _ := post(`{"gameType":"chess","playerId":"dave"}`); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown game, got %d", status)
	}
}

func TestResults(t *testing.T) {
	env := setupTestEnv(t)

	var rows []storage.ResultRow
	if status := getJSON(t, env.ts.URL+"/api/results", &rows); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no results, got %d", len(rows))
	}

	err := env.mgr.RecordResult("abc123", "shed", []game.PlayerResult{
		{PlayerID: "alice", Rank: 1},
		{PlayerID: "bob", Rank: 2, Score: 4},
	})
	if err != nil {
		t.Fatalf("record result: %v", err)
	}

	getJSON(t, env.ts.URL+"/api/results?limit=5", &rows)
	if len(rows) != 1 || rows[0].WinnerID != "alice" || rows[0].LoserCards != 4 {
		t.Fatalf("unexpected results %+v", rows)
	}

	getJSON(t, env.ts.URL+"/api/results/player/bob", &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 result for bob, got %d", len(rows))
	}
	getJSON(t, env.ts.URL+"/api/results/player/carol", &rows)
	if len(rows) != 0 {
		t.Fatalf("expected no results for carol, got %d", len(rows))
	}

	if status := getJSON(t, env.ts.URL+"/api/results?limit=x", nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", status)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)
	createSessionViaAPI(t, env.ts, "shed", "alice")

	var h healthResponse
	if status := getJSON(t, env.ts.URL+"/healthz", &h); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if h.Status != "ok" || h.Sessions != 1 {
		t.Fatalf("unexpected health %+v", h)
	}
}

func TestStaticFileServing(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "test") {
		t.Fatalf("expected index.html body, got %s", body)
	}
}
