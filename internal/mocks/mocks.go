package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger/internal/models"
	"messenger/internal/protocol"
)

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) Emit(e protocol.Event) error {
	args := m.Called(e)
	return args.Error(0)
}

type HistoryMock struct {
	mock.Mock
}

func (m *HistoryMock) ChatHistory(ctx context.Context, selfID, peerID int) ([]models.Message, error) {
	args := m.Called(ctx, selfID, peerID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type ReadFallbackMock struct {
	mock.Mock
}

func (m *ReadFallbackMock) MarkAsRead(ctx context.Context, senderID, receiverID int) error {
	args := m.Called(ctx, senderID, receiverID)
	return args.Error(0)
}

type NotificationAPIMock struct {
	mock.Mock
}

func (m *NotificationAPIMock) Notifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationAPIMock) MarkNotificationsRead(ctx context.Context, id *int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type RosterAPIMock struct {
	mock.Mock
}

func (m *RosterAPIMock) MessagePeers(ctx context.Context, selfID int) ([]models.ChatPeer, error) {
	args := m.Called(ctx, selfID)
	var peers []models.ChatPeer
	if val := args.Get(0); val != nil {
		peers = val.([]models.ChatPeer)
	}
	return peers, args.Error(1)
}

func (m *RosterAPIMock) User(ctx context.Context, id int) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type TokenSourceMock struct {
	mock.Mock
}

func (m *TokenSourceMock) Token() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
