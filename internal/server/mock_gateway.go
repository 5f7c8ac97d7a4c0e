package server

import "github.com/stretchr/testify/mock"

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) JoinGroup(connId, group string) {
	m.Called(connId, group)
}

func (m *MockGateway) LeaveGroup(connId, group string) {
	m.Called(connId, group)
}

func (m *MockGateway) SendToConnection(connId string, msg *ServerMessage) {
	m.Called(connId, msg)
}

func (m *MockGateway) SendToGroup(group string, msg *ServerMessage, exclude ...string) {
	m.Called(group, msg, exclude)
}
