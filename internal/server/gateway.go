package server

// Gateway is the transport surface the registry relays through. The
// websocket hub implements it; tests substitute a mock. Sends are
// fire-and-forget: the registry never waits on delivery and a send to
// a dead connection is the transport's problem, not the registry's.
type Gateway interface {
	// JoinGroup subscribes a connection to a named broadcast group.
	JoinGroup(connId, group string)
	// LeaveGroup removes a connection from a named broadcast group.
	LeaveGroup(connId, group string)
	// SendToConnection delivers msg to a single connection.
	SendToConnection(connId string, msg *ServerMessage)
	// SendToGroup delivers msg to every member of group except the
	// connections listed in exclude.
	SendToGroup(group string, msg *ServerMessage, exclude ...string)
}
