package server

import (
	"testing"

	"github.com/npezzotti/go-geochat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, id string) *Client {
	t.Helper()
	return &Client{
		id:   id,
		send: make(chan *ServerMessage, 8),
		log:  testutil.TestLogger(t),
		stop: make(chan struct{}),
	}
}

func drain(c *Client) []*ServerMessage {
	var msgs []*ServerMessage
	for {
		select {
		case msg := <-c.send:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	c := newTestClient(t, "c1")
	h.Register(c)
	h.JoinGroup("c1", "room-1")

	h.Unregister("c1")
	assert.NotContains(t, h.clients, "c1")
	assert.NotContains(t, h.groups, "room-1", "empty groups are dropped with their last member")
}

func TestHub_SendToConnection(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	c := newTestClient(t, "c1")
	h.Register(c)

	h.SendToConnection("c1", &ServerMessage{Timestamp: Now()})
	assert.Len(t, drain(c), 1)

	// sends to unknown connections are swallowed
	h.SendToConnection("ghost", &ServerMessage{Timestamp: Now()})
}

func TestHub_SendToGroup(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	c1 := newTestClient(t, "c1")
	c2 := newTestClient(t, "c2")
	c3 := newTestClient(t, "c3")
	for _, c := range []*Client{c1, c2, c3} {
		h.Register(c)
	}
	h.JoinGroup("c1", "room-1")
	h.JoinGroup("c2", "room-1")
	h.JoinGroup("c3", "room-2")

	h.SendToGroup("room-1", &ServerMessage{Timestamp: Now()})
	assert.Len(t, drain(c1), 1)
	assert.Len(t, drain(c2), 1)
	assert.Empty(t, drain(c3), "members of other groups receive nothing")

	t.Run("exclusion", func(t *testing.T) {
		h.SendToGroup("room-1", &ServerMessage{Timestamp: Now()}, "c1")
		assert.Empty(t, drain(c1), "excluded connection receives nothing")
		assert.Len(t, drain(c2), 1)
	})

	t.Run("unknown group", func(t *testing.T) {
		h.SendToGroup("no-such-group", &ServerMessage{Timestamp: Now()})
		assert.Empty(t, drain(c1))
	})
}

func TestHub_LeaveGroup(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	c1 := newTestClient(t, "c1")
	c2 := newTestClient(t, "c2")
	h.Register(c1)
	h.Register(c2)
	h.JoinGroup("c1", "room-1")
	h.JoinGroup("c2", "room-1")

	h.LeaveGroup("c1", "room-1")
	h.SendToGroup("room-1", &ServerMessage{Timestamp: Now()})
	assert.Empty(t, drain(c1))
	assert.Len(t, drain(c2), 1)

	h.LeaveGroup("c2", "room-1")
	assert.NotContains(t, h.groups, "room-1")

	// leaving a group you are not in is a no-op
	h.LeaveGroup("c1", "room-1")
}

func TestHub_Shutdown(t *testing.T) {
	h := NewHub(testutil.TestLogger(t))

	c1 := newTestClient(t, "c1")
	c2 := newTestClient(t, "c2")
	h.Register(c1)
	h.Register(c2)

	h.Shutdown()

	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.stop:
		default:
			t.Errorf("expected client %q to be stopped", c.id)
		}
	}
}

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(&ServerMessage{})
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			require.NotNil(t, msg)
		default:
			t.Error("expected a message on the send channel")
		}
	})

	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerMessage{}
		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})
}
