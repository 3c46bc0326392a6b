package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/papo-live/papo/internal/auth"
	"github.com/papo-live/papo/internal/delivery/ws"
	"github.com/papo-live/papo/internal/domain"
	"github.com/papo-live/papo/internal/room"
)

const testSecret = "test-secret"

func signToken(t *testing.T, id string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  id,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	directory := auth.NewMemoryDirectory()
	directory.Add(domain.Identity{ID: "user-1", Username: "Alice"})

	hub := ws.NewHub(ws.Config{Registry: room.New()})
	handler := NewHandler(Config{
		Hub:            hub,
		Verifier:       auth.NewJWTVerifier(testSecret),
		Directory:      directory,
		AllowedOrigins: []string{"*"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readEnvelope(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("Failed to unmarshal frame %q: %v", raw, err)
	}
	return env
}

func TestHandleWebSocket_MissingToken(t *testing.T) {
	srv := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Handshake should upgrade before rejecting: %v", err)
	}
	defer conn.Close()

	env := readEnvelope(t, conn)
	if env.Event != domain.EventRoomError {
		t.Fatalf("Expected %s, got %s", domain.EventRoomError, env.Event)
	}
	var msg string
	json.Unmarshal(env.Data, &msg)
	if msg != "Unauthorized." {
		t.Errorf("Expected Unauthorized. error, got %q", msg)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to be closed after the error frame")
	}
}

func TestHandleWebSocket_UnknownUser(t *testing.T) {
	srv := newTestServer(t)

	url := wsURL(srv) + "?token=" + signToken(t, "nobody")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	env := readEnvelope(t, conn)
	if env.Event != domain.EventRoomError {
		t.Fatalf("Expected %s, got %s", domain.EventRoomError, env.Event)
	}
}

func TestHandleWebSocket_QueryToken(t *testing.T) {
	srv := newTestServer(t)

	url := wsURL(srv) + "?token=" + signToken(t, "user-1")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(domain.Envelope{Event: domain.EventCreateRoom}); err != nil {
		t.Fatalf("Failed to send create_room: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Event != domain.EventRoomCreated {
		t.Fatalf("Expected %s, got %s", domain.EventRoomCreated, env.Event)
	}
	var code string
	json.Unmarshal(env.Data, &code)
	if len(code) != 4 {
		t.Errorf("Expected a 4-digit room code, got %q", code)
	}
}

func TestHandleWebSocket_BearerHeader(t *testing.T) {
	srv := newTestServer(t)

	header := http.Header{"Authorization": {"Bearer " + signToken(t, "user-1")}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(domain.Envelope{Event: domain.EventListRooms}); err != nil {
		t.Fatalf("Failed to send list_rooms: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Event != domain.EventRoomsList {
		t.Fatalf("Expected %s, got %s", domain.EventRoomsList, env.Event)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		query    string
		expected string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"wrong scheme", "Basic abc", "", ""},
		{"query fallback", "", "xyz", "xyz"},
		{"header wins over query", "Bearer abc", "xyz", "abc"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		allowed  []string
		expected bool
	}{
		{"empty origin", "", []string{"https://a.example"}, true},
		{"exact match", "https://a.example", []string{"https://a.example"}, true},
		{"wildcard", "https://anything.example", []string{"*"}, true},
		{"no match", "https://evil.example", []string{"https://a.example"}, false},
		{"empty list", "https://a.example", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, tt.allowed); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}
