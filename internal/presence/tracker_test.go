package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/mocks"
	"messenger/internal/protocol"
	"messenger/internal/session"
	"messenger/internal/transport"
)

func TestReplaceInstallsSnapshotWholesale(t *testing.T) {
	tr := NewTracker()

	tr.Replace([]int{1, 2, 3})
	assert.True(t, tr.IsOnline(2))
	assert.Equal(t, 3, tr.Count())

	// A later snapshot replaces, never merges.
	tr.Replace([]int{4})
	assert.False(t, tr.IsOnline(2))
	assert.True(t, tr.IsOnline(4))
	assert.Equal(t, 1, tr.Count())
}

func TestClearEmptiesSet(t *testing.T) {
	tr := NewTracker()
	tr.Replace([]int{1, 2})

	tr.Clear()
	assert.Zero(t, tr.Count())
	assert.False(t, tr.IsOnline(1))
}

func TestAttachAppliesPresencePushes(t *testing.T) {
	fake := mocks.NewTransportFake()
	s := session.New(fake)
	require.NoError(t, s.Connect(context.Background(), 1))
	defer s.Disconnect()

	tr := NewTracker()
	tr.Attach(s)
	defer tr.Detach()

	frame, err := protocol.Encode(&protocol.OnlineUsers{UserIDs: []int{5, 6}})
	require.NoError(t, err)
	fake.PushFrame(frame)

	assert.Eventually(t, func() bool {
		return tr.IsOnline(5) && tr.IsOnline(6)
	}, time.Second, 5*time.Millisecond)
}

func TestDropClearsPresence(t *testing.T) {
	fake := mocks.NewTransportFake()
	s := session.New(fake)
	require.NoError(t, s.Connect(context.Background(), 1))
	defer s.Disconnect()

	tr := NewTracker()
	tr.Attach(s)
	defer tr.Detach()

	tr.Replace([]int{5, 6})
	fake.PushStatus(transport.Status{Err: assert.AnError})

	assert.Eventually(t, func() bool {
		return tr.Count() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDetachStopsUpdates(t *testing.T) {
	fake := mocks.NewTransportFake()
	s := session.New(fake)
	require.NoError(t, s.Connect(context.Background(), 1))
	defer s.Disconnect()

	tr := NewTracker()
	tr.Attach(s)
	tr.Detach()

	frame, err := protocol.Encode(&protocol.OnlineUsers{UserIDs: []int{5}})
	require.NoError(t, err)
	fake.PushFrame(frame)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, tr.Count())
}
