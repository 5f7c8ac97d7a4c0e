package server

import (
	"log"
	"slices"
	"sync"
)

// Hub tracks live websocket clients and named broadcast groups. It is
// the Gateway implementation the registry relays through. Group
// membership here is transport-level only; room membership is owned by
// the directory.
type Hub struct {
	log *log.Logger

	mu      sync.Mutex
	clients map[string]*Client
	groups  map[string]map[string]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log:     logger,
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// Unregister drops the connection and removes it from every group.
func (h *Hub) Unregister(connId string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, connId)
	for group, members := range h.groups {
		delete(members, connId)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) JoinGroup(connId, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[string]struct{})
	}
	h.groups[group][connId] = struct{}{}
}

func (h *Hub) LeaveGroup(connId, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[group]; ok {
		delete(members, connId)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) SendToConnection(connId string, msg *ServerMessage) {
	h.mu.Lock()
	c, ok := h.clients[connId]
	h.mu.Unlock()

	if !ok {
		// connection dropped before the send, best-effort
		return
	}

	c.queueMessage(msg)
}

func (h *Hub) SendToGroup(group string, msg *ServerMessage, exclude ...string) {
	h.mu.Lock()
	var targets []*Client
	for connId := range h.groups[group] {
		if slices.Contains(exclude, connId) {
			continue
		}
		if c, ok := h.clients[connId]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.queueMessage(msg)
	}
}

// Shutdown stops every connected client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stopClient()
	}
}
