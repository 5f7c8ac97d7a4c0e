package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-geochat/internal/server"
)

func (s *GeoChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

type RoomsResponse struct {
	Rooms          []RoomResponse `json:"rooms"`
	ConnectedUsers int            `json:"connected_users"`
	HeldSessions   int            `json:"held_sessions"`
}

type RoomResponse struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	Geocell   string `json:"geocell"`
	UserCount int    `json:"user_count"`
}

func (s *GeoChatApp) getRooms(w http.ResponseWriter, r *http.Request) {
	connected, held := s.registry.Counts()

	summaries := s.dir.Rooms()
	resp := RoomsResponse{
		Rooms:          make([]RoomResponse, len(summaries)),
		ConnectedUsers: connected,
		HeldSessions:   held,
	}
	for i, room := range summaries {
		resp.Rooms[i] = RoomResponse{
			Id:        room.Id,
			Name:      room.Name,
			Geocell:   room.Geocell,
			UserCount: room.UserCount,
		}
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *GeoChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(conn, s.hub, s.registry, s.log, s.msgRate, s.msgBurst)
	s.hub.Register(client)

	go client.Write()
	go client.Read()
}
