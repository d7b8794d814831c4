package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"prompt-party/internal/config"
	"prompt-party/internal/game"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubGenerator stands in for the Gemini client and records every
// prompt it was asked to render.
type stubGenerator struct {
	mu      sync.Mutex
	prompts []string
	sources []string
	fail    error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt, sourceImage string) (game.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return game.GenerationResult{}, s.fail
	}
	s.prompts = append(s.prompts, prompt)
	s.sources = append(s.sources, sourceImage)
	return game.GenerationResult{
		ImageURL: "data:image/png;base64,c3R1Yg==",
		Prompt:   prompt,
	}, nil
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubGenerator) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

func newStubServer() (*Server, *stubGenerator) {
	srv := New(nil, config.Default())
	stub := &stubGenerator{}
	srv.generator = stub
	return srv, stub
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createGame(t *testing.T, ts *httptest.Server, payload map[string]any) (string, string) {
	t.Helper()
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["player_id"]; !ok {
		payload["player_id"] = "ada"
	}
	if _, ok := payload["display_name"]; !ok {
		payload["display_name"] = "Ada"
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/games", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	gameID := body["game"].(map[string]any)["id"].(string)
	return gameID, body["session_id"].(string)
}

func joinPlayer(t *testing.T, ts *httptest.Server, gameID, playerID, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/join", map[string]any{
		"player_id":    playerID,
		"display_name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["session_id"].(string)
}

func startGame(t *testing.T, ts *httptest.Server, gameID, playerID, sessionID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", map[string]any{
		"player_id":  playerID,
		"session_id": sessionID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func submitTurn(t *testing.T, ts *httptest.Server, gameID, playerID, sessionID, text string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/turns", map[string]any{
		"player_id":  playerID,
		"session_id": sessionID,
		"text":       text,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, gameID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+gameID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)["game"].(map[string]any)
}
