package server

import (
	"time"

	"github.com/npezzotti/go-geochat/internal/types"
)

// ClientMessage is the inbound envelope. Exactly one of the operation
// fields is set per message.
type ClientMessage struct {
	Join        *Join        `json:"join,omitempty"`
	SendMessage *SendMessage `json:"send_message,omitempty"`
	SendArt     *SendArt     `json:"send_art,omitempty"`
}

type Join struct {
	Username     string `json:"username"`
	Geocell      string `json:"geocell"`
	SessionToken string `json:"session_token,omitempty"`
}

type SendMessage struct {
	Content string `json:"content"`
}

// SendArt carries a drawing as a data URI.
type SendArt struct {
	Data string `json:"data"`
}

// ServerMessage is the outbound envelope. Exactly one of the event
// fields is set per message.
type ServerMessage struct {
	Timestamp        time.Time      `json:"timestamp"`
	RoomJoined       *RoomJoined    `json:"room_joined,omitempty"`
	UserJoined       *PresenceEvent `json:"user_joined,omitempty"`
	UserRejoined     *PresenceEvent `json:"user_rejoined,omitempty"`
	UserDisconnected *PresenceEvent `json:"user_disconnected,omitempty"`
	UserLeft         *PresenceEvent `json:"user_left,omitempty"`
	ReceiveMessage   *types.Message `json:"receive_message,omitempty"`
}

// RoomJoined is sent to the joining connection only.
type RoomJoined struct {
	RoomId       string          `json:"room_id"`
	RoomName     string          `json:"room_name"`
	UserCount    int             `json:"user_count"`
	SessionToken string          `json:"session_token"`
	Reconnected  bool            `json:"reconnected"`
	Recent       []types.Message `json:"recent,omitempty"`
}

// PresenceEvent announces a membership or liveness change to the rest
// of the room.
type PresenceEvent struct {
	Username  string `json:"username"`
	UserCount int    `json:"user_count"`
}

func newRoomJoined(rj *RoomJoined) *ServerMessage {
	return &ServerMessage{Timestamp: Now(), RoomJoined: rj}
}

func newUserJoined(username string, count int) *ServerMessage {
	return &ServerMessage{Timestamp: Now(), UserJoined: &PresenceEvent{Username: username, UserCount: count}}
}

func newUserRejoined(username string, count int) *ServerMessage {
	return &ServerMessage{Timestamp: Now(), UserRejoined: &PresenceEvent{Username: username, UserCount: count}}
}

func newUserDisconnected(username string, count int) *ServerMessage {
	return &ServerMessage{Timestamp: Now(), UserDisconnected: &PresenceEvent{Username: username, UserCount: count}}
}

func newUserLeft(username string, count int) *ServerMessage {
	return &ServerMessage{Timestamp: Now(), UserLeft: &PresenceEvent{Username: username, UserCount: count}}
}

func newReceiveMessage(msg types.Message) *ServerMessage {
	return &ServerMessage{Timestamp: msg.Timestamp, ReceiveMessage: &msg}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
