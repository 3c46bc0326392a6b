package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/papo-live/papo/internal/domain"
	"github.com/papo-live/papo/internal/room"
)

// Session-level error strings delivered via room_error. They go to the
// originating connection only and never terminate it.
const (
	errAlreadyInRoom = "User is already in a room."
	errRoomNotFound  = "Room does not exist."
	errJoinARoom     = "Join a room."
	errInvalidImage  = "Invalid image payload."
	errImageTooLarge = "Image too large. Max 5MB."
	errAIUnavailable = "AI unavailable. Check API key or model."
	errCreateFailed  = "Unable to create a room right now."
)

// Session is the per-connection state machine. The identity is fixed at
// handshake time; roomCode is the only mutable state and is owned by the
// connection's read goroutine, so intents are handled strictly in order.
type Session struct {
	client   *Client
	hub      *Hub
	identity domain.Identity
	roomCode string
}

func newSession(c *Client, hub *Hub, identity domain.Identity) *Session {
	return &Session{
		client:   c,
		hub:      hub,
		identity: identity,
	}
}

// dispatch routes one intent through the state machine. Unknown events are
// dropped.
func (s *Session) dispatch(event string, data json.RawMessage) {
	switch event {
	case domain.EventCreateRoom:
		s.handleCreateRoom(data)
	case domain.EventJoinRoom:
		s.handleJoinRoom(data)
	case domain.EventSendMessage:
		s.handleSendMessage(data)
	case domain.EventLeaveRoom:
		s.handleLeaveRoom()
	case domain.EventListRooms:
		s.handleListRooms()
	}
}

// member is this session's wire representation.
func (s *Session) member() domain.Member {
	return domain.Member{
		ID:         s.client.ID,
		Username:   s.identity.Username,
		ProfilePic: s.identity.ProfilePic,
	}
}

func (s *Session) sendError(msg string) {
	s.client.Send(frame(domain.EventRoomError, msg))
}

func (s *Session) handleCreateRoom(data json.RawMessage) {
	if s.roomCode != "" {
		s.sendError(errAlreadyInRoom)
		return
	}

	var payload struct {
		Visibility string `json:"visibility"`
	}
	if len(data) > 0 {
		_ = json.Unmarshal(data, &payload)
	}

	s.hub.eventMu.Lock()
	defer s.hub.eventMu.Unlock()

	code, err := s.hub.registry.CreateRoom(domain.ParseVisibility(payload.Visibility))
	if err != nil {
		// code space exhaustion is a server fault, not a client error
		s.hub.logger.Error().Err(err).Msg("room creation failed")
		s.sendError(errCreateFailed)
		return
	}
	// the room was created this instant with no members, join cannot fail
	_ = s.hub.registry.Join(code, s.client.ID)
	s.roomCode = code

	s.client.Send(frame(domain.EventRoomCreated, code))
	s.announceJoin(code)
}

func (s *Session) handleJoinRoom(data json.RawMessage) {
	if s.roomCode != "" {
		s.sendError(errAlreadyInRoom)
		return
	}

	code := parseRoomCode(data)

	s.hub.eventMu.Lock()
	defer s.hub.eventMu.Unlock()

	if err := s.hub.registry.Join(code, s.client.ID); errors.Is(err, room.ErrRoomNotFound) {
		s.sendError(errRoomNotFound)
		return
	}
	s.roomCode = code

	s.client.Send(frame(domain.EventRoomJoined, code))
	s.announceJoin(code)
}

// announceJoin tells the whole room (joiner included) about the new member
// and refreshes roster, count and the public listing.
func (s *Session) announceJoin(code string) {
	s.hub.sendToRoom(code, frame(domain.EventUserJoined, s.member()))
	s.hub.broadcastRoomPresence(code)
	s.hub.broadcastPublicRooms()
}

func (s *Session) handleSendMessage(data json.RawMessage) {
	if s.roomCode == "" || !s.hub.registry.Exists(s.roomCode) {
		s.sendError(errJoinARoom)
		return
	}

	out := parseOutgoing(data)
	if out.kind == domain.MessageImage {
		s.sendImage(out.data)
		return
	}

	text := strings.TrimSpace(out.text)
	if text == "" {
		return
	}

	msg := domain.ChatMessage{
		ID:         messageID(s.client.ID),
		Username:   s.identity.Username,
		ProfilePic: s.identity.ProfilePic,
		Type:       domain.MessageText,
		Message:    text,
		At:         time.Now().UnixMilli(),
	}
	s.hub.sendToRoom(s.roomCode, frame(domain.EventNewMessage, msg))

	// the human message is already on the wire; the AI reply (if any) is an
	// independent follow-up and must never delay or break this handler
	if MentionsAI(text) {
		go s.respondToMention(s.roomCode, text)
	}
}

func (s *Session) sendImage(data string) {
	if err := ValidateImage(data, domain.MaxImageBytes); err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			s.sendError(errImageTooLarge)
			return
		}
		s.sendError(errInvalidImage)
		return
	}

	msg := domain.ChatMessage{
		ID:         messageID(s.client.ID),
		Username:   s.identity.Username,
		ProfilePic: s.identity.ProfilePic,
		Type:       domain.MessageImage,
		ImageData:  data,
		At:         time.Now().UnixMilli(),
	}
	s.hub.sendToRoom(s.roomCode, frame(domain.EventNewMessage, msg))
}

func (s *Session) handleLeaveRoom() {
	code := s.roomCode
	if code == "" {
		s.client.Send(frame(domain.EventRoomLeft, domain.RoomLeft{Left: false}))
		return
	}
	s.roomCode = ""

	s.hub.eventMu.Lock()
	destroyed, _ := s.hub.registry.Leave(code, s.client.ID)
	if !destroyed {
		// the leaver is out of the member set by now, so these reach the
		// remaining members only
		s.hub.sendToRoom(code, frame(domain.EventUserLeft, s.member()))
		s.hub.broadcastRoomPresence(code)
	}
	s.hub.broadcastPublicRooms()
	s.hub.eventMu.Unlock()

	s.client.Send(frame(domain.EventRoomLeft, domain.RoomLeft{Code: code, Left: true}))
}

func (s *Session) handleListRooms() {
	s.client.Send(frame(domain.EventRoomsList, s.hub.registry.PublicRooms()))
}

// disconnect performs the implicit leave on transport disconnect. An empty
// room is destroyed silently; survivors get the usual leave events.
func (s *Session) disconnect() {
	code := s.roomCode
	if code == "" {
		return
	}
	s.roomCode = ""

	s.hub.eventMu.Lock()
	defer s.hub.eventMu.Unlock()

	destroyed, _ := s.hub.registry.Leave(code, s.client.ID)
	if !destroyed {
		s.hub.sendToRoom(code, frame(domain.EventUserLeft, s.member()))
		s.hub.broadcastRoomPresence(code)
	}
	s.hub.broadcastPublicRooms()
}

// messageID derives a message id from the sender connection and the emission
// time, mirroring the wire format clients already rely on.
func messageID(connID string) string {
	return fmt.Sprintf("%s-%d", connID, time.Now().UnixMilli())
}

// parseRoomCode accepts either a bare JSON string or {"code": "1234"}.
func parseRoomCode(data json.RawMessage) string {
	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		return strings.TrimSpace(code)
	}

	var payload struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(data, &payload)
	return strings.TrimSpace(payload.Code)
}

type outgoing struct {
	kind string
	text string
	data string
}

// parseOutgoing mirrors the tolerant client message shape: a bare string is
// a text message; objects discriminate on type and may use alias fields.
func parseOutgoing(data json.RawMessage) outgoing {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return outgoing{kind: domain.MessageText, text: text}
	}

	var payload struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		Message string `json:"message"`
		Data    string `json:"data"`
		Image   string `json:"image"`
	}
	_ = json.Unmarshal(data, &payload)

	out := outgoing{kind: domain.MessageText}
	if payload.Type == domain.MessageImage {
		out.kind = domain.MessageImage
	}
	out.text = payload.Text
	if out.text == "" {
		out.text = payload.Message
	}
	out.data = payload.Data
	if out.data == "" {
		out.data = payload.Image
	}
	return out
}
