package server

import (
	"context"
	"log"
	"sync"

	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/stats"
)

type stopReq struct {
	done chan struct{}
}

// ChatServer is the connection registry: it owns the set of live clients
// and the transport-level rooms. It is constructed at startup and all room
// lifecycle decisions run on its single event loop.
type ChatServer struct {
	log            *log.Logger
	db             database.Repository
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	joinChan       chan *ClientMessage
	registerChan   chan *Client
	deRegisterChan chan *Client
	unloadRoomChan chan string
	rooms          map[string]*Room
	stop           chan stopReq
}

func NewChatServer(logger *log.Logger, db database.Repository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		stats:          su,
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage, 256),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client, 256),
		unloadRoomChan: make(chan string, 64),
		rooms:          make(map[string]*Room),
		stop:           make(chan stopReq),
	}

	su.RegisterMetric(stats.ActiveConnections)
	su.RegisterMetric(stats.ActiveRooms)
	su.RegisterMetric(stats.MessagesSent)
	su.RegisterMetric(stats.TypingSignals)

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case joinMsg := <-cs.joinChan:
			room, ok := cs.rooms[joinMsg.Join.ChannelId]
			if !ok {
				// rooms exist only at the transport level, the first
				// join creates one
				room = newRoom(joinMsg.Join.ChannelId, cs)
				cs.rooms[room.channelId] = room
				cs.stats.Incr(stats.ActiveRooms)
				go room.start()
			}

			select {
			case room.joinChan <- joinMsg:
			default:
				cs.log.Printf("join channel full on room %q", room.channelId)
				joinMsg.client.queueMessage(ErrFailedToJoin())
			}
		case client := <-cs.registerChan:
			cs.log.Printf("adding connection %s for %q", client.sessionId, client.user.Name)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection %s for %q", client.sessionId, client.user.Name)
			cs.removeClient(client)
		case id := <-cs.unloadRoomChan:
			cs.unloadRoom(id)
		case req := <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				close(r.exit)
				<-r.done
			}
			cs.rooms = make(map[string]*Room)

			cs.clientsLock.Lock()
			for c := range cs.clients {
				c.stopClient()
			}
			cs.clientsLock.Unlock()

			close(req.done)
			return
		}
	}
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.registerChan <- c
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
	cs.stats.Incr(stats.ActiveConnections)
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	if _, ok := cs.clients[c]; !ok {
		return
	}
	delete(cs.clients, c)
	cs.stats.Decr(stats.ActiveConnections)
}

func (cs *ChatServer) unloadRoom(id string) {
	r, ok := cs.rooms[id]
	if !ok {
		return
	}

	cs.log.Printf("unloading room %q", r.channelId)
	delete(cs.rooms, id)
	cs.stats.Decr(stats.ActiveRooms)

	close(r.exit)
	<-r.done
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
