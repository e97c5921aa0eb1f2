package server

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/stats"
)

const idleRoomTimeout = time.Second * 5

// Room is the live fan-out counterpart of a persisted channel. It only
// exists while connections are joined to it; membership here is independent
// of persisted channel membership.
type Room struct {
	channelId        string
	cs               *ChatServer
	joinChan         chan *ClientMessage
	leaveChan        chan *ClientMessage
	clientMsgChan    chan *ClientMessage
	typingExpiryChan chan *Client
	clients          map[*Client]struct{}
	clientLock       sync.RWMutex
	log              *log.Logger
	// killTimer unloads the room once its last connection is gone
	killTimer *time.Timer
	exit      chan struct{}
	done      chan struct{}
}

func newRoom(channelId string, cs *ChatServer) *Room {
	return &Room{
		channelId:        channelId,
		cs:               cs,
		joinChan:         make(chan *ClientMessage, 256),
		leaveChan:        make(chan *ClientMessage, 256),
		clientMsgChan:    make(chan *ClientMessage, 256),
		typingExpiryChan: make(chan *Client, 64),
		clients:          make(map[*Client]struct{}),
		log:              cs.log,
		exit:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.channelId)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case leaveMsg := <-r.leaveChan:
			r.handleLeave(leaveMsg)
		case msg := <-r.clientMsgChan:
			if msg.Send != nil {
				r.deliverMessage(msg)
			} else if msg.Typing != nil {
				r.handleTyping(msg)
			}
		case c := <-r.typingExpiryChan:
			r.handleTypingExpiry(c)
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleJoin(join *ClientMessage) {
	// a new client keeps the room alive
	r.killTimer.Stop()

	c := join.client
	r.addClient(c)

	// every join call notifies the other members, including redundant
	// joins; the joining connection itself is never notified
	r.broadcast(&ServerMessage{
		UserJoined: &PresenceEvent{
			UserId:    c.user.Id,
			ChannelId: r.channelId,
		},
		SkipClient: c,
	})
}

func (r *Room) handleLeave(leaveMsg *ClientMessage) {
	// leaving is silent, there is no counterpart to the join broadcast
	r.removeClient(leaveMsg.client)
}

// deliverMessage runs the delivery pipeline: fresh sender lookup, durable
// write, then fan-out. A message is never broadcast unless it was saved
// first; a fan-out failure is reported only to the originator and does not
// undo the write.
func (r *Room) deliverMessage(msg *ClientMessage) {
	c := msg.client

	if strings.TrimSpace(msg.Send.Content) == "" {
		c.queueMessage(ErrEmptyMessage())
		return
	}

	// profile data may have changed since the handshake, so the sender is
	// looked up at send time rather than taken from the claim
	sender, err := r.cs.db.GetAccountById(c.user.Id)
	if err != nil {
		r.log.Printf("sender %d not found: %v", c.user.Id, err)
		c.queueMessage(ErrFailedToSend())
		return
	}

	dbMsg, err := r.cs.db.CreateMessage(database.CreateMessageParams{
		ChannelExId: r.channelId,
		SenderId:    sender.Id,
		Content:     msg.Send.Content,
	})
	if err != nil {
		r.log.Println("error saving message:", err)
		c.queueMessage(ErrFailedToSend())
		return
	}

	r.cs.stats.Incr(stats.MessagesSent)

	// self-delivery included: the sender's client sees the message as sent
	failed := r.broadcast(&ServerMessage{
		Message: &MessagePayload{
			MessageId: dbMsg.Id,
			Content:   dbMsg.Content,
			Sender: Sender{
				Id:    sender.Id,
				Name:  sender.Name,
				Email: sender.Email,
			},
			ChannelId: r.channelId,
			CreatedAt: dbMsg.CreatedAt,
		},
	})

	if failed > 0 {
		// the message is durable even though live delivery fell short
		r.log.Printf("message %d saved but %d deliveries failed in room %q", dbMsg.Id, failed, r.channelId)
		c.queueMessage(ErrDeliveryIncomplete())
	}
}

func (r *Room) handleTyping(msg *ClientMessage) {
	c := msg.client

	// no dedup of the started signal, every keystroke re-broadcasts
	r.broadcast(&ServerMessage{
		UserTyping: &PresenceEvent{
			UserId:    c.user.Id,
			ChannelId: r.channelId,
		},
		SkipClient: c,
	})

	r.cs.stats.Incr(stats.TypingSignals)
	c.resetTypingTimer(r)
}

func (r *Room) handleTypingExpiry(c *Client) {
	r.broadcast(&ServerMessage{
		UserStoppedTyping: &PresenceEvent{
			UserId:    c.user.Id,
			ChannelId: r.channelId,
		},
		SkipClient: c,
	})
}

// queueTypingExpiry hands a fired debounce timer back to the room's event
// loop. Safe to call after the room exited, the signal is simply dropped.
func (r *Room) queueTypingExpiry(c *Client) {
	select {
	case r.typingExpiryChan <- c:
	default:
		r.log.Printf("typing expiry channel full for room %q", r.channelId)
	}
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q is idle", r.channelId)
	select {
	case r.cs.unloadRoomChan <- r.channelId:
	default:
		// retry on the next timeout
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) handleRoomExit() {
	r.log.Printf("room %q is exiting", r.channelId)

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.channelId)
	}
	r.clientLock.Unlock()

	close(r.done)
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)
	c.delRoom(r.channelId)

	if len(r.clients) == 0 {
		r.log.Printf("no clients in %q, starting kill timer", r.channelId)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

// broadcast queues msg for every client in the room except msg.SkipClient.
// It returns the number of clients whose send queue was full.
func (r *Room) broadcast(msg *ServerMessage) int {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	var failed int
	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		if !client.queueMessage(msg) {
			failed++
		}
	}

	return failed
}
