package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Billy-Davies-2/wordrush/internal/auth"
	"github.com/Billy-Davies-2/wordrush/internal/game"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
	"github.com/Billy-Davies-2/wordrush/internal/pubsub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsCommand is a client frame on /ws
type wsCommand struct {
	Type string `json:"type"` // join, submit, leave or start
	Room string `json:"room,omitempty"`
	Name string `json:"name,omitempty"`
	Word string `json:"word,omitempty"`
}

// wsReply answers a command. Room events are sent as pubsub.Event frames.
type wsReply struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Error     string      `json:"error,omitempty"`
	State     interface{} `json:"state,omitempty"`
}

type wsClient struct {
	h           *APIHandlers
	conn        *websocket.Conn
	connID      string
	defaultName string
	send        chan []byte
	readerDone  chan struct{}
	writerDone  chan struct{}
}

// ServeWS upgrades the request and runs one player connection. Each socket is
// its own connection id, so a browser can hold several seats.
func (h *APIHandlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		h:           h,
		conn:        conn,
		connID:      uuid.NewString(),
		defaultName: auth.GetUser(r).DisplayName(),
		send:        make(chan []byte, 16),
		readerDone:  make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
	logger.Debug("WebSocket connected", "conn", c.connID)

	events := h.pubsub.Subscribe()
	go c.writePump(events)
	c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		close(c.readerDone)
		c.h.registry.Leave(c.connID)
		logger.Debug("WebSocket disconnected", "conn", c.connID)
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read failed", "error", err, "conn", c.connID)
			}
			return
		}
		at := c.h.now()

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.reply(wsReply{Type: "error", Error: "malformed command"})
			continue
		}
		c.reply(c.handle(cmd, at))
	}
}

func (c *wsClient) handle(cmd wsCommand, at time.Time) wsReply {
	reg := c.h.registry
	switch cmd.Type {
	case "join":
		name := cmd.Name
		if name == "" {
			name = c.defaultName
		}
		sessionID, err := reg.Join(cmd.Room, c.connID, name)
		if err != nil {
			return wsReply{Type: "error", Error: err.Error()}
		}
		state, err := reg.State(cmd.Room)
		if err != nil {
			return wsReply{Type: "error", Error: err.Error()}
		}
		return wsReply{Type: "joined", SessionID: sessionID, State: state}
	case "submit":
		reg.Submit(c.connID, cmd.Word, at)
		return wsReply{Type: "ack"}
	case "leave":
		reg.Leave(c.connID)
		return wsReply{Type: "ack"}
	case "start":
		room := cmd.Room
		if room == "" {
			var ok bool
			if room, _, ok = reg.Session(c.connID); !ok {
				return wsReply{Type: "error", Error: game.ErrNotJoined.Error()}
			}
		}
		if err := reg.StartRound(room); err != nil {
			return wsReply{Type: "error", Error: err.Error()}
		}
		return wsReply{Type: "ack"}
	}
	return wsReply{Type: "error", Error: "unknown command"}
}

func (c *wsClient) reply(r wsReply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.writerDone:
	}
}

// writePump is the only writer on the socket. It forwards command replies and
// the events of whichever room the connection currently sits in.
func (c *wsClient) writePump(events chan pubsub.Event) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.h.pubsub.Unsubscribe(events)
		close(c.writerDone)
		c.conn.Close()
	}()

	write := func(data []byte) bool {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return c.conn.WriteMessage(websocket.TextMessage, data) == nil
	}

	for {
		select {
		case data := <-c.send:
			if !write(data) {
				return
			}
		case ev := <-events:
			room, _, ok := c.h.registry.Session(c.connID)
			if !ok || ev.Room != room {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warn("Failed to encode event", "error", err, "type", ev.Type)
				continue
			}
			if !write(data) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.readerDone:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
