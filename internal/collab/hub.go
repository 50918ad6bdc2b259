package collab

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/strommix/strommix/internal/surface"
)

// Room holds the clients attached to one session.
type Room struct {
	sessionID string
	clients   map[string]*Client // clientID -> client
	// dirty is set by accepted operations and cleared by a commit.
	dirty bool
}

func NewRoom(sessionID string) *Room {
	return &Room{
		sessionID: sessionID,
		clients:   make(map[string]*Client),
	}
}

type Hub struct {
	backend Backend

	mu         sync.RWMutex
	rooms      map[string]*Room // sessionID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub(backend Backend) *Hub {
	return &Hub{
		backend:    backend,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Stop ends Run and commits every session with uncommitted edits.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		var dirty []string
		for id, room := range h.rooms {
			if room.dirty {
				dirty = append(dirty, id)
				room.dirty = false
			}
		}
		h.mu.Unlock()

		for _, id := range dirty {
			if err := h.backend.Commit(id); err != nil {
				slog.Error("commit on shutdown", "session", id, "error", err)
			}
		}
		slog.Info("hub stopped", "committed", len(dirty))
	})
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		room = NewRoom(client.SessionID)
		h.rooms[client.SessionID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, SessionID: client.SessionID})
	client.Send(&Message{Type: TypeWelcome, Payload: welcome})
	h.sendScene(client)

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()

	commit := false
	if len(room.clients) == 0 {
		commit = room.dirty
		delete(h.rooms, client.SessionID)
	}
	h.mu.Unlock()

	// The last client leaving keeps its arrangement.
	if commit {
		if err := h.backend.Commit(client.SessionID); err != nil {
			slog.Warn("commit on leave", "session", client.SessionID, "error", err)
		}
	}

	slog.Info("client left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeSceneRequest:
		h.sendScene(sender)
	case TypeSceneCommit:
		h.handleCommit(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sendError(sender, "unknown message type: "+msg.Type)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err)
		sendError(sender, "invalid operation payload")
		return
	}
	op := submit.Operation

	placement, seq, err := ApplyOperation(h.backend, sender.SessionID, op)
	if err != nil {
		nack, _ := json.Marshal(OperationNackPayload{OperationID: op.ID, Reason: nackReason(err)})
		sender.Send(&Message{Type: TypeOpNack, Payload: nack})
		slog.Debug("op rejected", "op", op.ID, "type", op.Type, "object", op.ObjectID, "error", err)
		return
	}

	h.mu.Lock()
	if room, ok := h.rooms[sender.SessionID]; ok {
		room.dirty = true
	}
	h.mu.Unlock()

	ack, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		Placement:       placement,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Seq: seq, Payload: ack})

	broadcast, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		Placement: placement,
		ClientID:  sender.ClientID,
		ServerSeq: seq,
	})
	h.broadcastToRoom(sender.SessionID, &Message{Type: TypeOpBroadcast, Seq: seq, Payload: broadcast}, sender.ClientID)
}

func (h *Hub) handleCommit(sender *Client) {
	if err := h.backend.Commit(sender.SessionID); err != nil {
		sendError(sender, err.Error())
		return
	}

	h.mu.Lock()
	if room, ok := h.rooms[sender.SessionID]; ok {
		room.dirty = false
	}
	h.mu.Unlock()

	payload, _ := json.Marshal(map[string]string{"sessionId": sender.SessionID})
	h.broadcastToRoom(sender.SessionID, &Message{Type: TypeSceneCommitted, Payload: payload}, "")
}

func (h *Hub) sendScene(client *Client) {
	doc, version, err := h.backend.Live(client.SessionID)
	if err != nil && !errors.Is(err, surface.ErrNoScene) {
		sendError(client, err.Error())
		return
	}
	payload, err := json.Marshal(SceneSyncPayload{Scene: doc, Version: version})
	if err != nil {
		slog.Error("marshal scene", "error", err)
		return
	}
	client.Send(&Message{Type: TypeSceneSync, Seq: int64(version), Payload: payload})
}

func (h *Hub) broadcastToRoom(sessionID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[sessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func nackReason(err error) string {
	switch {
	case errors.Is(err, surface.ErrLocked):
		return "locked"
	case errors.Is(err, surface.ErrNotFound):
		return "not_found"
	case errors.Is(err, surface.ErrTransform), errors.Is(err, ErrUnknownOperation):
		return "invalid"
	case errors.Is(err, surface.ErrNoScene):
		return "no_scene"
	default:
		return err.Error()
	}
}

func sendError(c *Client, message string) {
	payload, _ := json.Marshal(ErrorPayload{Message: message})
	c.Send(&Message{Type: TypeError, Payload: payload})
}
