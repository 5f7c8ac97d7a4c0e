package types

import (
	"time"
)

const (
	MessageTypeText = "text"
	MessageTypeArt  = "art"
)

// User is a connected participant. ConnectionId changes across
// reconnects; SessionToken is assigned once at first join and survives
// the reconnect grace window.
type User struct {
	ConnectionId string `json:"-"`
	SessionToken string `json:"-"`
	Username     string `json:"username"`
	Geocell      string `json:"-"`
	RoomId       string `json:"room_id,omitempty"`
}

// RoomSummary is the read-only view of a room exposed over the HTTP API.
type RoomSummary struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Geocell   string    `json:"geocell"`
	UserCount int       `json:"user_count"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
