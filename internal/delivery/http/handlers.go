package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/papo-live/papo/internal/auth"
	"github.com/papo-live/papo/internal/delivery/ws"
	"github.com/papo-live/papo/internal/domain"
)

// Handler owns the websocket handshake: upgrade, single-shot credential
// verification, then handing the connection to the hub.
type Handler struct {
	hub       *ws.Hub
	verifier  auth.Verifier
	directory auth.Directory
	upgrader  websocket.Upgrader
	logger    zerolog.Logger
}

// Config carries the handler's dependencies.
type Config struct {
	Hub            *ws.Hub
	Verifier       auth.Verifier
	Directory      auth.Directory
	AllowedOrigins []string
	Logger         *zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "http").Logger()
	}
	return &Handler{
		hub:       cfg.Hub,
		verifier:  cfg.Verifier,
		directory: cfg.Directory,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return isOriginAllowed(r.Header.Get("Origin"), cfg.AllowedOrigins)
			},
		},
	}
}

// isOriginAllowed checks if the origin is in the allowed list
func isOriginAllowed(origin string, allowed []string) bool {
	// Empty origin is allowed (same-origin and non-browser clients)
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// bearerToken pulls the credential from the Authorization header or, for
// browser clients that cannot set headers on a websocket, the token query
// parameter.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}

// authenticate resolves the credential into an identity.
func (h *Handler) authenticate(token string) (*domain.Identity, error) {
	if token == "" {
		return nil, auth.ErrUnauthorized
	}
	id, err := h.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	return h.directory.UserByID(id)
}

// HandleWebSocket upgrades the connection, verifies the handshake credential
// exactly once, and starts the client pumps. A failed verification gets a
// room_error frame and an immediate close; there is no re-authentication.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	identity, err := h.authenticate(token)
	if err != nil {
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("handshake rejected")
		payload, _ := json.Marshal("Unauthorized.")
		frame, _ := json.Marshal(domain.Envelope{Event: domain.EventRoomError, Data: payload})
		conn.WriteMessage(websocket.TextMessage, frame)
		conn.Close()
		return
	}

	client := ws.NewClient(h.hub, conn, *identity)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
