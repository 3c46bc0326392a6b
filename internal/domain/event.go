package domain

import "encoding/json"

// Event names carried on the wire, client to server.
const (
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventLeaveRoom   = "leave_room"
	EventListRooms   = "list_rooms"
)

// Event names carried on the wire, server to client.
const (
	EventRoomError     = "room_error"
	EventRoomCreated   = "room_created"
	EventRoomJoined    = "room_joined"
	EventRoomLeft      = "room_left"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventRoomUsers     = "room_users"
	EventRoomUserCount = "room_user_count"
	EventNewMessage    = "new_message"
	EventRoomsList     = "rooms_list"
)

// Message kinds inside a new_message event.
const (
	MessageText  = "text"
	MessageImage = "image"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Member is the member shape used by user_joined, user_left and room_users.
type Member struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	ProfilePic *string `json:"profilePic"`
}

// ChatMessage is the payload of a new_message event. At is Unix milliseconds.
type ChatMessage struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	ProfilePic *string `json:"profilePic,omitempty"`
	Type       string  `json:"type"`
	Message    string  `json:"message,omitempty"`
	ImageData  string  `json:"imageData,omitempty"`
	At         int64   `json:"at"`
}

// RoomLeft is the payload of a room_left event. Left reports whether a room
// was actually held, so repeated leaves stay idempotent.
type RoomLeft struct {
	Code string `json:"code"`
	Left bool   `json:"left"`
}

// RoomInfo is one entry of a rooms_list event. CreatedAt is Unix milliseconds.
type RoomInfo struct {
	Code       string `json:"code"`
	UsersCount int    `json:"usersCount"`
	CreatedAt  int64  `json:"createdAt"`
}
