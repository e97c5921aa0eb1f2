package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/stats"
	"github.com/commonground-app/commonground/internal/testutil"
	"github.com/commonground-app/commonground/internal/types"
)

func TestNewClient(t *testing.T) {
	cs := newTestChatServer(t, &database.MockRepository{}, &stats.MockStatsUpdater{})
	u := types.User{Id: 1, Name: "testuser"}

	c := NewClient(u, nil, cs, testutil.TestLogger(t))
	assert.NotEmpty(t, c.sessionId, "expected a session id")
	assert.Equal(t, u, c.user, "expected user to be pinned to the connection")
	assert.Equal(t, cs, c.chatServer)
	assert.NotNil(t, c.send, "expected send channel to be initialized")
	assert.NotNil(t, c.rooms, "expected rooms map to be initialized")
	assert.NotNil(t, c.typingTimers, "expected typing timer map to be initialized")

	c2 := NewClient(u, nil, cs, testutil.TestLogger(t))
	assert.NotEqual(t, c.sessionId, c2.sessionId, "expected unique session ids per connection")
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
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
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

func Test_stopClient(t *testing.T) {
	c := &Client{
		stop: make(chan struct{}),
	}

	c.stopClient()

	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed")
	}

	// second call must not panic on the closed channel
	c.stopClient()
}

func Test_addRoom_getRoom_delRoom(t *testing.T) {
	c := &Client{rooms: make(map[string]*Room)}
	r := &Room{channelId: "room1"}

	c.addRoom(r)
	assert.Equal(t, r, c.getRoom("room1"), "expected getRoom to return the added room")
	assert.Nil(t, c.getRoom("missing"), "expected nil for unknown room")

	c.delRoom("room1")
	assert.Nil(t, c.getRoom("room1"), "expected room to be removed")
}

func Test_leaveAllRooms(t *testing.T) {
	rooms := []*Room{
		{
			channelId: "room1",
			leaveChan: make(chan *ClientMessage, 1),
		},
		{
			channelId: "room2",
			leaveChan: make(chan *ClientMessage, 1),
		},
	}

	c := &Client{
		rooms: make(map[string]*Room),
	}

	for _, room := range rooms {
		c.addRoom(room)
	}

	c.leaveAllRooms()

	for _, room := range rooms {
		select {
		case msg := <-room.leaveChan:
			assert.NotNil(t, msg.Leave, "expected a leave message for room %s", room.channelId)
			assert.Equal(t, room.channelId, msg.Leave.ChannelId, "expected leave message for room %s", room.channelId)
			assert.Equal(t, c, msg.client, "expected leave message to carry the client")
		default:
			t.Errorf("expected leave message for room %s, but none was sent", room.channelId)
		}
	}
}

func Test_leaveChannel(t *testing.T) {
	c := &Client{
		rooms: make(map[string]*Room),
		send:  make(chan *ServerMessage, 1),
		log:   testutil.TestLogger(t),
	}

	t.Run("leave a joined room", func(t *testing.T) {
		r := &Room{channelId: "room1", leaveChan: make(chan *ClientMessage, 1)}
		c.addRoom(r)

		c.leaveChannel(&ClientMessage{Leave: &LeaveChannel{ChannelId: "room1"}, client: c})
		assert.Len(t, r.leaveChan, 1, "expected leave message to be forwarded")
	})

	t.Run("leave without membership is a silent no-op", func(t *testing.T) {
		c.leaveChannel(&ClientMessage{Leave: &LeaveChannel{ChannelId: "never-joined"}, client: c})

		select {
		case msg := <-c.send:
			t.Fatalf("expected no response, got %+v", msg)
		default:
		}
	})
}

func Test_joinChannel(t *testing.T) {
	cs := newTestChatServer(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

	t.Run("successful join request", func(t *testing.T) {
		c := newTestClient(cs)
		msg := &ClientMessage{Join: &JoinChannel{ChannelId: "room1"}, client: c}

		c.joinChannel(msg)
		select {
		case got := <-cs.joinChan:
			assert.Equal(t, msg, got, "expected join request to be forwarded to the server")
		default:
			t.Error("expected join request on joinChan")
		}
	})

	t.Run("join channel full", func(t *testing.T) {
		c := newTestClient(cs)
		cs.joinChan = make(chan *ClientMessage) // unbuffered, no reader

		c.joinChannel(&ClientMessage{Join: &JoinChannel{ChannelId: "room1"}, client: c})

		select {
		case msg := <-c.send:
			assert.Equal(t, ErrFailedToJoin().Error, msg.Error)
		default:
			t.Error("expected join failure message")
		}
	})
}

func Test_typingTimers(t *testing.T) {
	c := &Client{
		typingTimers: make(map[string]*time.Timer),
		log:          testutil.TestLogger(t),
	}
	r1 := &Room{channelId: "room1", typingExpiryChan: make(chan *Client, 1)}
	r2 := &Room{channelId: "room2", typingExpiryChan: make(chan *Client, 1)}

	t.Run("one timer per room", func(t *testing.T) {
		c.resetTypingTimer(r1)
		c.resetTypingTimer(r1)
		c.resetTypingTimer(r2)

		c.typingLock.Lock()
		assert.Len(t, c.typingTimers, 2, "expected one timer per room")
		c.typingLock.Unlock()
	})

	t.Run("clearTypingTimer reports pending state", func(t *testing.T) {
		assert.True(t, c.clearTypingTimer("room1"), "expected pending timer to be cleared")
		assert.False(t, c.clearTypingTimer("room1"), "expected no timer on second clear")
	})

	t.Run("cancelTypingTimers clears everything", func(t *testing.T) {
		c.resetTypingTimer(r1)
		c.cancelTypingTimers()

		c.typingLock.Lock()
		assert.Empty(t, c.typingTimers, "expected all timers cleared")
		c.typingLock.Unlock()
	})
}

func Test_cleanup(t *testing.T) {
	cs := newTestChatServer(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

	r := &Room{channelId: "room1", leaveChan: make(chan *ClientMessage, 1)}
	c := newTestClient(cs)
	c.log = testutil.TestLogger(t)
	c.addRoom(r)
	c.resetTypingTimer(&Room{channelId: "room1", typingExpiryChan: make(chan *Client, 1)})

	c.cleanup()
	c.cleanup() // second disconnect report has no extra effect

	assert.Len(t, cs.deRegisterChan, 1, "expected exactly one deregistration")
	assert.Len(t, r.leaveChan, 1, "expected exactly one leave per joined room")

	c.typingLock.Lock()
	assert.Empty(t, c.typingTimers, "expected typing timers to be cancelled")
	c.typingLock.Unlock()

	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel to be closed after cleanup")
	}
}

func Test_serializeMessage(t *testing.T) {
	msg := &ServerMessage{
		UserJoined: &PresenceEvent{UserId: 1, ChannelId: "room1"},
	}

	bytes, err := serializeMessage(msg)
	assert.NoError(t, err, "expected no error during serialization")
	assert.Equal(t, `{"userJoined":{"userId":1,"channelId":"room1"}}`, string(bytes))
}
