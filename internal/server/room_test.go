package server

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/stats"
	"github.com/commonground-app/commonground/internal/types"
)

func newTestRoom(t *testing.T, db database.Repository, su *stats.MockStatsUpdater) *Room {
	cs := newTestChatServer(t, db, su)
	r := newRoom("test-channel", cs)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()
	return r
}

func Test_addClient_removeClient_Room(t *testing.T) {
	r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

	c := newTestClient(r.cs)
	r.addClient(c)
	assert.Contains(t, r.clients, c, "expected room to contain client")
	assert.Equal(t, r, c.getRoom(r.channelId), "expected client to track the room")

	r.removeClient(c)
	assert.NotContains(t, r.clients, c, "expected room to not contain client after removal")
	assert.Nil(t, c.getRoom(r.channelId), "expected client to drop the room")

	// last client out arms the kill timer
	assert.True(t, r.killTimer.Stop(), "expected kill timer to be armed after last client left")

	// removing a client that isn't in the room is a no-op
	r.removeClient(c)
}

func Test_handleJoin(t *testing.T) {
	r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

	observer := newTestClient(r.cs)
	observer.user = types.User{Id: 2, Name: "observer"}
	r.addClient(observer)

	joiner := newTestClient(r.cs)
	r.handleJoin(&ClientMessage{Join: &JoinChannel{ChannelId: r.channelId}, client: joiner})

	assert.Contains(t, r.clients, joiner, "expected joiner to be added to the room")

	select {
	case msg := <-observer.send:
		if assert.NotNil(t, msg.UserJoined, "expected userJoined event") {
			assert.Equal(t, joiner.user.Id, msg.UserJoined.UserId)
			assert.Equal(t, r.channelId, msg.UserJoined.ChannelId)
		}
	default:
		t.Error("expected observer to receive userJoined broadcast")
	}

	select {
	case msg := <-joiner.send:
		t.Fatalf("expected joiner to receive nothing, got %+v", msg)
	default:
	}
}

func Test_handleLeave(t *testing.T) {
	r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

	leaver := newTestClient(r.cs)
	observer := newTestClient(r.cs)
	observer.user = types.User{Id: 2, Name: "observer"}
	r.addClient(leaver)
	r.addClient(observer)

	r.handleLeave(&ClientMessage{Leave: &LeaveChannel{ChannelId: r.channelId}, client: leaver})

	assert.NotContains(t, r.clients, leaver, "expected leaver to be removed")

	// leaving is silent for everyone
	select {
	case msg := <-observer.send:
		t.Fatalf("expected no broadcast on leave, got %+v", msg)
	default:
	}
	select {
	case msg := <-leaver.send:
		t.Fatalf("expected no message for leaver, got %+v", msg)
	default:
	}
}

func Test_deliverMessage(t *testing.T) {
	sender := database.User{Id: 1, Name: "testuser", Email: "test@example.com"}

	t.Run("empty content is rejected before any write", func(t *testing.T) {
		db := &database.MockRepository{}
		defer db.AssertExpectations(t)

		r := newTestRoom(t, db, &stats.MockStatsUpdater{})
		c := newTestClient(r.cs)
		r.addClient(c)

		r.deliverMessage(&ClientMessage{
			Send:   &SendMessage{ChannelId: r.channelId, Content: "   "},
			client: c,
		})

		select {
		case msg := <-c.send:
			assert.Equal(t, ErrEmptyMessage().Error, msg.Error)
		default:
			t.Error("expected error message for sender")
		}
	})

	t.Run("sender lookup failure", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetAccountById", 1).Return(database.User{}, sql.ErrNoRows).Once()
		defer db.AssertExpectations(t)

		r := newTestRoom(t, db, &stats.MockStatsUpdater{})
		c := newTestClient(r.cs)
		r.addClient(c)

		r.deliverMessage(&ClientMessage{
			Send:   &SendMessage{ChannelId: r.channelId, Content: "hello"},
			client: c,
		})

		select {
		case msg := <-c.send:
			assert.Equal(t, ErrFailedToSend().Error, msg.Error)
		default:
			t.Error("expected error message for sender")
		}
	})

	t.Run("persist failure suppresses fan-out", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetAccountById", 1).Return(sender, nil).Once()
		db.On("CreateMessage", database.CreateMessageParams{
			ChannelExId: "test-channel",
			SenderId:    1,
			Content:     "hello",
		}).Return(database.Message{}, sql.ErrNoRows).Once()
		defer db.AssertExpectations(t)

		r := newTestRoom(t, db, &stats.MockStatsUpdater{})
		c := newTestClient(r.cs)
		observer := newTestClient(r.cs)
		observer.user = types.User{Id: 2}
		r.addClient(c)
		r.addClient(observer)

		r.deliverMessage(&ClientMessage{
			Send:   &SendMessage{ChannelId: r.channelId, Content: "hello"},
			client: c,
		})

		select {
		case msg := <-c.send:
			assert.Equal(t, ErrFailedToSend().Error, msg.Error)
		default:
			t.Error("expected error message for sender")
		}

		select {
		case msg := <-observer.send:
			t.Fatalf("expected nothing broadcast on failed persist, got %+v", msg)
		default:
		}
	})

	t.Run("saved message is delivered to everyone including sender", func(t *testing.T) {
		now := Now()
		db := &database.MockRepository{}
		db.On("GetAccountById", 1).Return(sender, nil).Once()
		db.On("CreateMessage", database.CreateMessageParams{
			ChannelExId: "test-channel",
			SenderId:    1,
			Content:     "hello",
		}).Return(database.Message{Id: 7, Content: "hello", CreatedAt: now}, nil).Once()
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		su.On("Incr", stats.MessagesSent).Once()
		defer su.AssertExpectations(t)

		r := newTestRoom(t, db, su)
		c := newTestClient(r.cs)
		observer := newTestClient(r.cs)
		observer.user = types.User{Id: 2}
		r.addClient(c)
		r.addClient(observer)

		r.deliverMessage(&ClientMessage{
			Send:   &SendMessage{ChannelId: r.channelId, Content: "hello"},
			client: c,
		})

		for _, recipient := range []*Client{c, observer} {
			select {
			case msg := <-recipient.send:
				if assert.NotNil(t, msg.Message, "expected receiveMessage event") {
					assert.Equal(t, 7, msg.Message.MessageId)
					assert.Equal(t, "hello", msg.Message.Content)
					assert.Equal(t, sender.Id, msg.Message.Sender.Id)
					assert.Equal(t, sender.Name, msg.Message.Sender.Name)
					assert.Equal(t, r.channelId, msg.Message.ChannelId)
					assert.Equal(t, now, msg.Message.CreatedAt)
				}
			default:
				t.Error("expected message for recipient")
			}
		}
	})

	t.Run("fan-out failure is reported only to the sender", func(t *testing.T) {
		db := &database.MockRepository{}
		db.On("GetAccountById", 1).Return(sender, nil).Once()
		db.On("CreateMessage", database.CreateMessageParams{
			ChannelExId: "test-channel",
			SenderId:    1,
			Content:     "hello",
		}).Return(database.Message{Id: 8, Content: "hello"}, nil).Once()
		defer db.AssertExpectations(t)

		su := &stats.MockStatsUpdater{}
		su.On("Incr", stats.MessagesSent).Once()
		defer su.AssertExpectations(t)

		r := newTestRoom(t, db, su)
		c := newTestClient(r.cs)
		stalled := newTestClient(r.cs)
		stalled.user = types.User{Id: 2}
		stalled.send = make(chan *ServerMessage) // no buffer, no reader
		r.addClient(c)
		r.addClient(stalled)

		r.deliverMessage(&ClientMessage{
			Send:   &SendMessage{ChannelId: r.channelId, Content: "hello"},
			client: c,
		})

		// sender still gets the message, then the delivery warning
		select {
		case msg := <-c.send:
			assert.NotNil(t, msg.Message, "expected the message itself first")
		default:
			t.Fatal("expected message for sender")
		}

		select {
		case msg := <-c.send:
			assert.Equal(t, ErrDeliveryIncomplete().Error, msg.Error)
		default:
			t.Error("expected delivery warning for sender")
		}
	})
}

func Test_handleTyping(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", stats.TypingSignals).Times(3)
	defer su.AssertExpectations(t)

	r := newTestRoom(t, &database.MockRepository{}, su)
	typer := newTestClient(r.cs)
	observer := newTestClient(r.cs)
	observer.user = types.User{Id: 2}
	r.addClient(typer)
	r.addClient(observer)

	// no dedup: every signal re-broadcasts
	for i := 0; i < 3; i++ {
		r.handleTyping(&ClientMessage{Typing: &TypingSignal{ChannelId: r.channelId}, client: typer})
	}

	for i := 0; i < 3; i++ {
		select {
		case msg := <-observer.send:
			if assert.NotNil(t, msg.UserTyping, "expected userTyping event") {
				assert.Equal(t, typer.user.Id, msg.UserTyping.UserId)
				assert.Equal(t, r.channelId, msg.UserTyping.ChannelId)
			}
		default:
			t.Error("expected userTyping broadcast")
		}
	}

	// the typer never hears its own typing
	select {
	case msg := <-typer.send:
		t.Fatalf("expected nothing for typer, got %+v", msg)
	default:
	}

	// all three signals share one pending debounce timer
	typer.typingLock.Lock()
	assert.Len(t, typer.typingTimers, 1, "expected a single debounce timer")
	typer.typingLock.Unlock()

	typer.cancelTypingTimers()
}

func Test_handleTypingExpiry(t *testing.T) {
	r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})
	typer := newTestClient(r.cs)
	observer := newTestClient(r.cs)
	observer.user = types.User{Id: 2}
	r.addClient(typer)
	r.addClient(observer)

	r.handleTypingExpiry(typer)

	select {
	case msg := <-observer.send:
		if assert.NotNil(t, msg.UserStoppedTyping, "expected userStoppedTyping event") {
			assert.Equal(t, typer.user.Id, msg.UserStoppedTyping.UserId)
		}
	default:
		t.Error("expected userStoppedTyping broadcast")
	}

	select {
	case msg := <-typer.send:
		t.Fatalf("expected nothing for typer, got %+v", msg)
	default:
	}
}

func TestTypingDebounce_SingleStopAfterBurst(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("Incr", stats.TypingSignals).Times(5)
	defer su.AssertExpectations(t)

	r := newTestRoom(t, &database.MockRepository{}, su)
	typer := newTestClient(r.cs)
	r.addClient(typer)

	for i := 0; i < 5; i++ {
		r.handleTyping(&ClientMessage{Typing: &TypingSignal{ChannelId: r.channelId}, client: typer})
		time.Sleep(10 * time.Millisecond)
	}

	// exactly one expiry fires, one quiet period after the last signal
	select {
	case c := <-r.typingExpiryChan:
		assert.Equal(t, typer, c, "expected expiry for the typing connection")
	case <-time.After(typingTimeout + time.Second):
		t.Fatal("timeout waiting for typing expiry")
	}

	select {
	case <-r.typingExpiryChan:
		t.Error("expected a single expiry for the burst")
	case <-time.After(200 * time.Millisecond):
	}

	typer.typingLock.Lock()
	assert.Empty(t, typer.typingTimers, "expected debounce timer to be cleared after firing")
	typer.typingLock.Unlock()
}

func Test_handleRoomTimeout(t *testing.T) {
	t.Run("requests unload", func(t *testing.T) {
		r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

		r.handleRoomTimeout()
		select {
		case id := <-r.cs.unloadRoomChan:
			assert.Equal(t, r.channelId, id, "expected unload request for this room")
		default:
			t.Error("expected unload request")
		}
	})

	t.Run("retries when unload channel is full", func(t *testing.T) {
		r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})

		r.cs.unloadRoomChan = make(chan string, 1)
		r.cs.unloadRoomChan <- "another-room"

		r.handleRoomTimeout()
		assert.True(t, r.killTimer.Stop(), "expected kill timer to be rearmed after failed unload request")
	})
}

func Test_handleRoomExit(t *testing.T) {
	r := newTestRoom(t, &database.MockRepository{}, &stats.MockStatsUpdater{})
	c := newTestClient(r.cs)
	r.addClient(c)

	r.handleRoomExit()

	assert.Nil(t, c.getRoom(r.channelId), "expected client to drop the room on exit")

	select {
	case <-r.done:
	default:
		t.Error("expected done channel to be closed")
	}
}
