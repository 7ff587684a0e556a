package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/mocks"
	"messenger/internal/models"
	"messenger/internal/protocol"
	"messenger/internal/session"
)

func TestBackfillRecomputesUnread(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	api.On("Notifications", mock.Anything).Return([]models.Notification{
		{ID: 5, Title: "a"},
		{ID: 4, Title: "b", IsRead: true},
		{ID: 3, Title: "c"},
		{ID: 2, Title: "d", IsRead: true},
		{ID: 1, Title: "e"},
	}, nil).Once()

	f := NewFeed(api)
	require.NoError(t, f.Backfill(context.Background()))

	assert.Len(t, f.Items(), 5)
	assert.Equal(t, 3, f.Unread())
	api.AssertExpectations(t)
}

func TestBackfillErrorKeepsState(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	api.On("Notifications", mock.Anything).Return(([]models.Notification)(nil), assert.AnError).Once()

	f := NewFeed(api)
	f.ApplyPush(models.Notification{ID: 9})

	require.Error(t, f.Backfill(context.Background()))
	assert.Len(t, f.Items(), 1)
	assert.Equal(t, 1, f.Unread())
}

func TestApplyPushPrependsAndIncrements(t *testing.T) {
	f := NewFeed(new(mocks.NotificationAPIMock))

	f.ApplyPush(models.Notification{ID: 1, Title: "older"})
	f.ApplyPush(models.Notification{ID: 2, Title: "newer"})

	items := f.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID, "newest first")
	assert.Equal(t, 2, f.Unread())
}

func TestMarkReadFlipsOnceAndConfirms(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	id := 2
	api.On("MarkNotificationsRead", mock.Anything, &id).Return(nil).Twice()

	f := NewFeed(api)
	f.ApplyPush(models.Notification{ID: 1})
	f.ApplyPush(models.Notification{ID: 2})

	require.NoError(t, f.MarkRead(context.Background(), 2))
	assert.Equal(t, 1, f.Unread())
	assert.True(t, f.Items()[0].IsRead)

	// Marking an already read item leaves the counter alone.
	require.NoError(t, f.MarkRead(context.Background(), 2))
	assert.Equal(t, 1, f.Unread())
	api.AssertExpectations(t)
}

func TestMarkReadFailureKeepsOptimisticState(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	api.On("MarkNotificationsRead", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	f := NewFeed(api)
	f.ApplyPush(models.Notification{ID: 1})

	require.Error(t, f.MarkRead(context.Background(), 1))
	assert.True(t, f.Items()[0].IsRead, "no rollback on a failed confirmation")
	assert.Zero(t, f.Unread())
}

func TestMarkAllReadZeroesCounter(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	api.On("MarkNotificationsRead", mock.Anything, (*int)(nil)).Return(nil).Once()

	f := NewFeed(api)
	f.ApplyPush(models.Notification{ID: 1})
	f.ApplyPush(models.Notification{ID: 2})

	require.NoError(t, f.MarkAllRead(context.Background()))
	assert.Zero(t, f.Unread())
	for _, n := range f.Items() {
		assert.True(t, n.IsRead)
	}
	api.AssertExpectations(t)
}

func TestMarkSingleThenAll(t *testing.T) {
	api := new(mocks.NotificationAPIMock)
	api.On("Notifications", mock.Anything).Return([]models.Notification{
		{ID: 5}, {ID: 4, IsRead: true}, {ID: 3}, {ID: 2, IsRead: true}, {ID: 1},
	}, nil).Once()
	api.On("MarkNotificationsRead", mock.Anything, mock.Anything).Return(nil)

	f := NewFeed(api)
	require.NoError(t, f.Backfill(context.Background()))
	require.Equal(t, 3, f.Unread())

	require.NoError(t, f.MarkRead(context.Background(), 3))
	assert.Equal(t, 2, f.Unread())

	require.NoError(t, f.MarkAllRead(context.Background()))
	assert.Zero(t, f.Unread())
	for _, n := range f.Items() {
		assert.True(t, n.IsRead)
	}
}

func TestAttachReceivesPushes(t *testing.T) {
	fake := mocks.NewTransportFake()
	s := session.New(fake)
	require.NoError(t, s.Connect(context.Background(), 1))
	defer s.Disconnect()

	f := NewFeed(new(mocks.NotificationAPIMock))
	f.Attach(s)
	defer f.Detach()

	frame, err := protocol.Encode(&protocol.Notification{Notification: models.Notification{ID: 7, Title: "new job"}})
	require.NoError(t, err)
	fake.PushFrame(frame)

	assert.Eventually(t, func() bool {
		return f.Unread() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 7, f.Items()[0].ID)
}
