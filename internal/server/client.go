package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// art payloads are data URIs, so the limit is generous
	maxMessageSize = 256 * 1024
)

// Client is one websocket connection. It forwards inbound operations to
// the registry and drains outbound events from its send channel.
type Client struct {
	id       string
	conn     *websocket.Conn
	hub      *Hub
	registry *PresenceRegistry
	log      *log.Logger
	send     chan *ServerMessage
	limiter  *rate.Limiter
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(conn *websocket.Conn, hub *Hub, registry *PresenceRegistry, logger *log.Logger, msgRate float64, msgBurst int) *Client {
	return &Client{
		id:       uuid.NewString(),
		conn:     conn,
		hub:      hub,
		registry: registry,
		log:      logger,
		send:     make(chan *ServerMessage, 256),
		limiter:  rate.NewLimiter(rate.Limit(msgRate), msgBurst),
		stop:     make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// malformed input is dropped, not an error to the client
			c.log.Println("error parsing message:", err)
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *ClientMessage) {
	switch {
	case msg.Join != nil:
		c.registry.Join(c.id, msg.Join.Username, msg.Join.Geocell, msg.Join.SessionToken)
	case msg.SendMessage != nil:
		if !c.limiter.Allow() {
			c.log.Printf("rate limit exceeded on %q, dropping message", c.id)
			return
		}
		c.registry.SendText(c.id, msg.SendMessage.Content)
	case msg.SendArt != nil:
		if !c.limiter.Allow() {
			c.log.Printf("rate limit exceeded on %q, dropping art", c.id)
			return
		}
		c.registry.SendArt(c.id, msg.SendArt.Data)
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send channel full on %q, dropping message", c.id)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) cleanup() {
	c.hub.Unregister(c.id)
	c.registry.Disconnect(c.id)
	c.stopClient()
}
