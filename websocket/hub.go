package websocket

import (
	"composer/types"
	"log"
	"sync"
	"time"
)

// broadcastWait bounds how long a state change waits for room in a full
// broadcast queue
const broadcastWait = time.Second

// lossy message types carry counters a later message supersedes
var lossy = map[string]bool{
	types.MessageProgress:     true,
	types.MessageScanProgress: true,
	types.MessageFileFound:    true,
}

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Broadcast(msg types.ProgressMessage)
	BroadcastProgress(channel, msgType, status, currentFile, message string, progress float64)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount(channel string) int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by channel id (job or scan session)
	clients map[string]map[*Client]bool

	// Broadcast channel for sending messages to all clients of a channel
	broadcast chan types.ProgressMessage

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.channel] == nil {
				h.clients[client.channel] = make(map[*Client]bool)
			}
			h.clients[client.channel][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for %s", client.channel)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for %s", client.channel)

		case message := <-h.broadcast:
			h.mu.Lock()
			h.deliver(message.JobID, message)
			if message.JobID != AllChannel {
				h.deliver(AllChannel, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver sends message to every client on channel, dropping slow ones
func (h *hub) deliver(channel string, message types.ProgressMessage) {
	for client := range h.clients[channel] {
		select {
		case client.send <- message:
		default:
			log.Printf("WebSocket client on %s too slow, dropping", channel)
			h.remove(client)
		}
	}
}

func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.channel]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.channel)
	}
}

// Broadcast queues msg for the clients of msg.JobID and of AllChannel.
// Progress updates are dropped when the queue is full; other messages wait
// up to broadcastWait for room.
func (h *hub) Broadcast(msg types.ProgressMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- msg:
		return
	default:
	}

	if lossy[msg.Type] {
		log.Printf("WebSocket broadcast channel full, dropping %s message for %s", msg.Type, msg.JobID)
		return
	}

	timer := time.NewTimer(broadcastWait)
	defer timer.Stop()
	select {
	case h.broadcast <- msg:
	case <-timer.C:
		log.Printf("WebSocket broadcast channel full, dropping %s message for %s", msg.Type, msg.JobID)
	}
}

// BroadcastProgress sends a progress message to all clients of a channel
func (h *hub) BroadcastProgress(channel, msgType, status, currentFile, message string, progress float64) {
	h.Broadcast(types.ProgressMessage{
		JobID:       channel,
		Type:        msgType,
		Progress:    progress,
		Status:      status,
		CurrentFile: currentFile,
		Message:     message,
	})
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of clients subscribed to channel
func (h *hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}
