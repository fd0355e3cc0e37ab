package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/stayhub/service-desk/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Client is one live connection with its authenticated identity.
type Client struct {
	UserID string
	Name   string
	Role   domain.Role

	hub  *Hub
	conn *websocket.Conn
	send chan Frame

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID, name string, role domain.Role, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{
		UserID: userID,
		Name:   name,
		Role:   role,
		hub:    hub,
		conn:   conn,
		send:   make(chan Frame, buffer),
	}
}

// deliver enqueues a frame without blocking and reports whether the
// frame made it onto the queue. Slow clients lose frames rather than
// stalling a broadcast.
func (c *Client) deliver(frame Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// clientCommand is the inbound message shape.
type clientCommand struct {
	Action     string `json:"action"`
	TicketID   string `json:"ticket_id"`
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
	IsTyping   bool   `json:"is_typing"`
}

// Client-invokable actions.
const (
	actionJoinTicket  = "join_ticket"
	actionLeaveTicket = "leave_ticket"
	actionSendMessage = "send_message"
	actionTyping      = "typing"
)

// readPump reads client commands until the connection drops, then
// detaches the client from the hub.
func (c *Client) readPump(logger *zap.Logger) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read failed", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			c.hub.push(c, c.hub.errorFrame("malformed command"))
			continue
		}
		c.dispatch(cmd)
	}
}

func (c *Client) dispatch(cmd clientCommand) {
	if cmd.TicketID == "" {
		c.hub.push(c, c.hub.errorFrame("ticket_id required"))
		return
	}
	switch cmd.Action {
	case actionJoinTicket:
		c.hub.Join(context.Background(), c, cmd.TicketID)
	case actionLeaveTicket:
		c.hub.Leave(c, cmd.TicketID)
	case actionSendMessage:
		c.hub.Chat(c, cmd.TicketID, cmd.Body, cmd.IsInternal)
	case actionTyping:
		c.hub.Typing(c, cmd.TicketID, cmd.IsTyping)
	default:
		c.hub.push(c, c.hub.errorFrame("unknown action"))
	}
}

// writePump drains the send channel to the socket and keeps the
// connection alive with pings.
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				logger.Debug("websocket write failed", zap.String("user_id", c.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
