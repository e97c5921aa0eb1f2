package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/commonground-app/commonground/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024

	// quiet period after the last typing signal before the
	// stopped-typing broadcast fires
	typingTimeout = 2000 * time.Millisecond
)

// Client is one live websocket session bound to an authenticated user. The
// user is set at handshake time and never reassigned.
type Client struct {
	sessionId  string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	rooms      map[string]*Room
	roomsLock  sync.RWMutex
	// typingTimers is keyed by channel id so typing in one room never
	// cancels another room's pending stop signal
	typingTimers map[string]*time.Timer
	typingLock   sync.Mutex
	stop         chan struct{}
	stopOnce     sync.Once
	cleanupOnce  sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, cs *ChatServer, l *log.Logger) *Client {
	return &Client{
		sessionId:    uuid.NewString(),
		conn:         conn,
		chatServer:   cs,
		log:          l,
		user:         user,
		send:         make(chan *ServerMessage, 256),
		rooms:        make(map[string]*Room),
		typingTimers: make(map[string]*time.Timer),
		stop:         make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage())
			continue
		}

		msg.client = c

		switch {
		case msg.Join != nil:
			c.joinChannel(&msg)
		case msg.Leave != nil:
			c.leaveChannel(&msg)
		case msg.Send != nil:
			r := c.getRoom(msg.Send.ChannelId)
			if r == nil {
				c.queueMessage(ErrChannelNotFound())
				continue
			}
			select {
			case r.clientMsgChan <- &msg:
			default:
				c.log.Printf("message channel full for room %q", r.channelId)
				c.queueMessage(ErrFailedToSend())
			}
		case msg.Typing != nil:
			r := c.getRoom(msg.Typing.ChannelId)
			if r == nil {
				// typing is ephemeral, drop it
				continue
			}
			select {
			case r.clientMsgChan <- &msg:
			default:
				c.log.Printf("message channel full for room %q, dropping typing signal", r.channelId)
			}
		default:
			c.queueMessage(ErrInvalidMessage())
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("failed to queue message for session %s, channel is full", c.sessionId)
		return false
	}

	return true
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// cleanup releases everything the connection holds: room memberships,
// pending typing timers and the registry entry. Guarded by a sync.Once so a
// transport reporting disconnect more than once has no extra effect.
func (c *Client) cleanup() {
	c.cleanupOnce.Do(func() {
		c.chatServer.deRegisterChan <- c
		c.leaveAllRooms()
		c.cancelTypingTimers()
		c.stopClient()
	})
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) leaveAllRooms() {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	for _, room := range c.rooms {
		room.leaveChan <- &ClientMessage{
			Leave:  &LeaveChannel{ChannelId: room.channelId},
			client: c,
		}
	}
}

func (c *Client) joinChannel(msg *ClientMessage) {
	select {
	case c.chatServer.joinChan <- msg:
	default:
		c.log.Printf("join channel full")
		c.queueMessage(ErrFailedToJoin())
	}
}

func (c *Client) leaveChannel(msg *ClientMessage) {
	r := c.getRoom(msg.Leave.ChannelId)
	if r == nil {
		// leaving a room the connection isn't in is a no-op
		return
	}

	select {
	case r.leaveChan <- msg:
	default:
		c.log.Printf("leave channel full for room %q", r.channelId)
	}
}

// resetTypingTimer (re)arms the stop-typing debounce for one room. The
// first signal creates the timer, repeated signals push it out.
func (c *Client) resetTypingTimer(r *Room) {
	c.typingLock.Lock()
	defer c.typingLock.Unlock()

	if t, ok := c.typingTimers[r.channelId]; ok {
		t.Reset(typingTimeout)
		return
	}

	channelId := r.channelId
	c.typingTimers[channelId] = time.AfterFunc(typingTimeout, func() {
		if c.clearTypingTimer(channelId) {
			r.queueTypingExpiry(c)
		}
	})
}

// clearTypingTimer removes the timer for a room and reports whether it was
// still pending. A false return means the timer was already canceled.
func (c *Client) clearTypingTimer(channelId string) bool {
	c.typingLock.Lock()
	defer c.typingLock.Unlock()

	t, ok := c.typingTimers[channelId]
	if !ok {
		return false
	}

	t.Stop()
	delete(c.typingTimers, channelId)
	return true
}

func (c *Client) cancelTypingTimers() {
	c.typingLock.Lock()
	defer c.typingLock.Unlock()

	for channelId, t := range c.typingTimers {
		t.Stop()
		delete(c.typingTimers, channelId)
	}
}

func (c *Client) delRoom(id string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, id)
}

func (c *Client) addRoom(r *Room) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[r.channelId] = r
}

func (c *Client) getRoom(id string) *Room {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	if room, ok := c.rooms[id]; ok {
		return room
	}

	return nil
}
