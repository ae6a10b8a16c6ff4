package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/idziarhai/crossword/internal/db"
	"github.com/idziarhai/crossword/internal/game"
	"github.com/idziarhai/crossword/internal/httpserver"
	"github.com/idziarhai/crossword/internal/player"
	"github.com/idziarhai/crossword/internal/question"
	"github.com/idziarhai/crossword/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	playersDB, err := db.Open(filepath.Join(dir, "players.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = playersDB.Close() })
	require.NoError(t, db.MigratePlayers(playersDB))

	questionsDB, err := db.Open(filepath.Join(dir, "questions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = questionsDB.Close() })
	require.NoError(t, db.MigrateQuestions(questionsDB))

	questions := question.NewStore(questionsDB)
	// Two questions sharing one answer keep the flow deterministic even
	// though the draw order is random.
	_, err = questions.Import(context.Background(), []question.Question{
		{Text: "first clue", Answer: "alpha", Difficulty: "Easy", Category: "en"},
		{Text: "second clue", Answer: "alpha", Difficulty: "Easy", Category: "en"},
	})
	require.NoError(t, err)

	srv := httpserver.New(
		store.NewMemoryRegistry(),
		player.NewStore(playersDB),
		questions,
		"test_secret",
		time.Hour,
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func signup(t *testing.T, ts *httptest.Server, name string) string {
	t.Helper()
	resp, out := postJSON(t, ts.URL+"/auth/signup", map[string]string{
		"name": name, "password": "hunter22hunter", "confirm": "hunter22hunter",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok, _ := out["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func newSessionRequest(tokens []string, mode, category string) map[string]any {
	return map[string]any{
		"tokens":     tokens,
		"difficulty": "Easy",
		"mode":       mode,
		"category":   category,
	}
}

func waitSaveState(t *testing.T, ts *httptest.Server, id, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, out := getJSON(t, ts.URL+"/sessions/"+id)
		if out["saveState"] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s never reached save state %q", id, want)
}

func TestSignupValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := postJSON(t, ts.URL+"/auth/signup", map[string]string{
		"name": "alice", "password": "hunter22hunter", "confirm": "different",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/auth/signup", map[string]string{
		"name": "alice", "password": "short", "confirm": "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	signup(t, ts, "alice")
	resp, _ = postJSON(t, ts.URL+"/auth/signup", map[string]string{
		"name": "alice", "password": "hunter22hunter", "confirm": "hunter22hunter",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, "alice")

	resp, out := postJSON(t, ts.URL+"/auth/login", map[string]string{
		"name": "alice", "password": "hunter22hunter",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, out["token"])

	resp, _ = postJSON(t, ts.URL+"/auth/login", map[string]string{
		"name": "alice", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/auth/login", map[string]string{
		"name": "nobody", "password": "hunter22hunter",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGuestNameSuggestion(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/auth/guestname")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	name, _ := out["name"].(string)
	require.True(t, strings.HasPrefix(name, "Guest_"), "got %q", name)
	require.Len(t, name, len("Guest_")+4)
}

func TestFullSessionFlow(t *testing.T) {
	ts := newTestServer(t)
	tok1 := signup(t, ts, "p1")
	tok2 := signup(t, ts, "p2")

	resp, snap := postJSON(t, ts.URL+"/sessions", newSessionRequest([]string{tok1, tok2}, "until-mistake", "en"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := snap["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, string(game.StatusInProgress), snap["status"])
	require.Equal(t, "p1", snap["currentPlayer"])
	require.NotEmpty(t, snap["question"])

	// p1 answers correctly, p2 answers correctly: both score 10 and the
	// session ends with a two-way tie.
	resp, out := postJSON(t, ts.URL+"/sessions/"+id+"/answer", map[string]string{"answer": "ALPHA"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, string(game.VerdictCorrect), out["verdict"])

	resp, out = postJSON(t, ts.URL+"/sessions/"+id+"/answer", map[string]string{"answer": "alpha"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, string(game.VerdictCorrect), out["verdict"])

	_, snap = getJSON(t, ts.URL+"/sessions/"+id)
	require.Equal(t, string(game.StatusEnded), snap["status"])
	require.Equal(t, game.ReasonAllAnswered, snap["endReason"])

	waitSaveState(t, ts, id, "saved")

	// Counters were persisted for both winners.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/players/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok1)
	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer meResp.Body.Close()
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	var me player.Player
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	require.Equal(t, 1, me.GamesPlayed)
	require.Equal(t, 1, me.Wins)
	require.Zero(t, me.Losses)

	// The outcome is exportable as a PDF.
	pdfResp, err := http.Get(ts.URL + "/reports/sessions/" + id)
	require.NoError(t, err)
	defer pdfResp.Body.Close()
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	require.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))

	// Further actions on the ended session are rejected.
	resp, _ = postJSON(t, ts.URL+"/sessions/"+id+"/answer", map[string]string{"answer": "alpha"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestZeroQuestionCategoryEndsImmediately(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts, "solo")

	resp, snap := postJSON(t, ts.URL+"/sessions", newSessionRequest([]string{tok}, "until-mistake", "nothing-here"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, string(game.StatusEnded), snap["status"])
	require.Equal(t, game.ReasonNoQuestions, snap["endReason"])

	id, _ := snap["id"].(string)
	waitSaveState(t, ts, id, "saved")

	// Zero-score game counts as a loss.
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/players/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer meResp.Body.Close()
	var me player.Player
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	require.Equal(t, 1, me.GamesPlayed)
	require.Zero(t, me.Wins)
	require.Equal(t, 1, me.Losses)
}

func TestPauseBlocksAnswerAndAbandonDiscards(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts, "solo")

	resp, snap := postJSON(t, ts.URL+"/sessions", newSessionRequest([]string{tok}, "timed", "en"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := snap["id"].(string)

	resp, snap = postJSON(t, ts.URL+"/sessions/"+id+"/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, snap["paused"])

	resp, _ = postJSON(t, ts.URL+"/sessions/"+id+"/answer", map[string]string{"answer": "alpha"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/sessions/"+id+"/giveup", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// A report is refused while the session has no outcome.
	reportResp, err := http.Get(ts.URL + "/reports/sessions/" + id)
	require.NoError(t, err)
	defer reportResp.Body.Close()
	require.Equal(t, http.StatusConflict, reportResp.StatusCode)

	// Abandon discards the session without persisting anything.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/sessions/"+id, nil)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	resp, _ = getJSON(t, ts.URL+"/sessions/"+id)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/players/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer meResp.Body.Close()
	var me player.Player
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	require.Zero(t, me.GamesPlayed, "abandoned sessions leave no trace")
}

func TestSessionRejectsBadConfig(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts, "solo")

	resp, _ := postJSON(t, ts.URL+"/sessions", newSessionRequest([]string{tok, tok}, "until-mistake", "en"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "duplicate participant")

	resp, _ = postJSON(t, ts.URL+"/sessions", newSessionRequest(nil, "until-mistake", "en"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "no participants")

	resp, _ = postJSON(t, ts.URL+"/sessions", newSessionRequest([]string{"garbage"}, "until-mistake", "en"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "bad token")

	body := newSessionRequest([]string{tok}, "speedrun", "en")
	resp, _ = postJSON(t, ts.URL+"/sessions", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "bad mode")

	body = newSessionRequest([]string{tok}, "timed", "en")
	body["difficulty"] = "impossible"
	resp, _ = postJSON(t, ts.URL+"/sessions", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "bad difficulty")
}

func TestRoster(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, "alice")
	signup(t, ts, "bob")

	resp, err := http.Get(ts.URL + "/players")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var players []player.Player
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&players))
	require.Len(t, players, 2)
	require.Equal(t, "alice", players[0].Name)

	pdfResp, err := http.Get(ts.URL + "/reports/players")
	require.NoError(t, err)
	defer pdfResp.Body.Close()
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	require.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["ok"])
}
