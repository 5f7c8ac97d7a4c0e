package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-geochat/internal/config"
	"github.com/npezzotti/go-geochat/internal/stats"
	"github.com/npezzotti/go-geochat/internal/types"
)

const (
	StatConnectedUsers  = "ConnectedUsers"
	StatHeldSessions    = "HeldSessions"
	StatMessagesRelayed = "MessagesRelayed"
)

// PresenceRegistry arbitrates the per-session connection state machine:
// Connected (keyed by connection id), GraceHeld (keyed by session
// token, grace timer armed), Gone. It owns every User and is the only
// component that moves them between states.
//
// Lock order is registry, then directory, then timer table. Broadcasts
// are issued after the mutation they report and outside the lock.
type PresenceRegistry struct {
	log         *log.Logger
	gw          Gateway
	dir         *RoomDirectory
	stats       stats.StatsProvider
	gracePeriod time.Duration

	mu           sync.Mutex
	connected    map[string]*types.User
	disconnected map[string]*types.User
	grace        *timerTable
}

func NewPresenceRegistry(logger *log.Logger, gw Gateway, dir *RoomDirectory, sp stats.StatsProvider, cfg *config.Config) *PresenceRegistry {
	sp.RegisterMetric(StatConnectedUsers)
	sp.RegisterMetric(StatHeldSessions)
	sp.RegisterMetric(StatMessagesRelayed)

	return &PresenceRegistry{
		log:          logger,
		gw:           gw,
		dir:          dir,
		stats:        sp,
		gracePeriod:  cfg.ReconnectGracePeriod,
		connected:    make(map[string]*types.User),
		disconnected: make(map[string]*types.User),
		grace:        newTimerTable(),
	}
}

// Join handles the Join operation for a connection. A session token
// found in the grace-held map resumes that session in its prior room;
// anything else, including a token whose grace timer already fired, is
// a brand-new join.
func (p *PresenceRegistry) Join(connId, username, geocell, sessionToken string) {
	if sessionToken != "" && p.reconnect(connId, sessionToken) {
		return
	}

	user := &types.User{
		ConnectionId: connId,
		SessionToken: uuid.NewString(),
		Username:     username,
		Geocell:      geocell,
	}

	p.mu.Lock()
	room, err := p.dir.FindOrCreateRoomForUser(user)
	if err != nil {
		p.mu.Unlock()
		p.log.Printf("join from %q rejected: %v", connId, err)
		return
	}

	count := p.dir.AddUserToRoom(user, room)
	p.connected[connId] = user
	recent := p.dir.RecentMessages(room.Id)
	p.mu.Unlock()

	p.stats.Incr(StatConnectedUsers)
	p.log.Printf("user %q joined room %q (%d users)", username, room.Id, count)

	p.gw.JoinGroup(connId, room.Id)
	p.gw.SendToConnection(connId, newRoomJoined(&RoomJoined{
		RoomId:       room.Id,
		RoomName:     room.Name,
		UserCount:    count,
		SessionToken: user.SessionToken,
		Reconnected:  false,
		Recent:       recent,
	}))
	p.gw.SendToGroup(room.Id, newUserJoined(username, count), connId)
}

// reconnect resumes a grace-held session under a new connection id,
// reporting whether the token was held.
func (p *PresenceRegistry) reconnect(connId, sessionToken string) bool {
	p.mu.Lock()
	user, ok := p.disconnected[sessionToken]
	if !ok {
		p.mu.Unlock()
		return false
	}

	p.grace.Cancel(sessionToken)
	delete(p.disconnected, sessionToken)
	user.ConnectionId = connId
	p.connected[connId] = user

	summary, _ := p.dir.Snapshot(user.RoomId)
	recent := p.dir.RecentMessages(user.RoomId)
	p.mu.Unlock()

	p.stats.Decr(StatHeldSessions)
	p.stats.Incr(StatConnectedUsers)
	p.log.Printf("user %q reconnected to room %q", user.Username, user.RoomId)

	p.gw.JoinGroup(connId, user.RoomId)
	p.gw.SendToConnection(connId, newRoomJoined(&RoomJoined{
		RoomId:       user.RoomId,
		RoomName:     summary.Name,
		UserCount:    summary.UserCount,
		SessionToken: user.SessionToken,
		Reconnected:  true,
		Recent:       recent,
	}))
	p.gw.SendToGroup(user.RoomId, newUserRejoined(user.Username, summary.UserCount), connId)
	return true
}

// Disconnect moves a connection into the grace-held state and arms its
// reconnect timer. Room membership is not touched yet; the immediate
// UserDisconnected event carries the unchanged count.
func (p *PresenceRegistry) Disconnect(connId string) {
	p.mu.Lock()
	user, ok := p.connected[connId]
	if !ok {
		p.mu.Unlock()
		return
	}

	delete(p.connected, connId)
	token := user.SessionToken
	p.disconnected[token] = user

	summary, _ := p.dir.Snapshot(user.RoomId)
	p.grace.Arm(token, p.gracePeriod, func() {
		p.handleGraceTimeout(token)
	})
	p.mu.Unlock()

	p.stats.Decr(StatConnectedUsers)
	p.stats.Incr(StatHeldSessions)
	p.log.Printf("user %q disconnected, holding session for %s", user.Username, p.gracePeriod)

	p.gw.SendToGroup(user.RoomId, newUserDisconnected(user.Username, summary.UserCount))
}

// handleGraceTimeout is the only path that removes a user from room
// membership. It re-validates that the token is still held: a reconnect
// racing the timer wins if it got the registry lock first.
func (p *PresenceRegistry) handleGraceTimeout(sessionToken string) {
	p.mu.Lock()
	user, ok := p.disconnected[sessionToken]
	if !ok {
		p.mu.Unlock()
		return
	}

	delete(p.disconnected, sessionToken)
	count, removed := p.dir.RemoveUser(user)
	p.mu.Unlock()

	p.stats.Decr(StatHeldSessions)
	p.log.Printf("session for %q expired, removed from room %q", user.Username, user.RoomId)

	p.gw.LeaveGroup(user.ConnectionId, user.RoomId)
	if removed {
		p.gw.SendToGroup(user.RoomId, newUserLeft(user.Username, count))
	}
}

// SendText relays a text message to the sender's room. Messages from
// connections with no live session are dropped silently.
func (p *PresenceRegistry) SendText(connId, content string) {
	p.relay(connId, content, types.MessageTypeText)
}

// SendArt relays a drawing payload to the sender's room.
func (p *PresenceRegistry) SendArt(connId, data string) {
	p.relay(connId, data, types.MessageTypeArt)
}

func (p *PresenceRegistry) relay(connId, content, msgType string) {
	p.mu.Lock()
	user, ok := p.connected[connId]
	p.mu.Unlock()
	if !ok {
		return
	}

	msg := types.Message{
		Username:  user.Username,
		Content:   content,
		Type:      msgType,
		Timestamp: Now(),
	}

	p.dir.AppendMessage(user.RoomId, msg)
	p.stats.Incr(StatMessagesRelayed)
	p.gw.SendToGroup(user.RoomId, newReceiveMessage(msg))
}

// Counts reports the number of live connections and grace-held
// sessions.
func (p *PresenceRegistry) Counts() (connected, held int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.connected), len(p.disconnected)
}
