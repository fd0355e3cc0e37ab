package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/observability"
)

// TicketAccess validates that an identity may view a ticket before it
// joins the ticket's group. The check is mandatory: without it a chat
// transcript would leak to anyone who guesses a ticket id.
type TicketAccess interface {
	CanViewTicket(ctx context.Context, userID string, role domain.Role, ticketID string) error
}

// Hub tracks connected clients and per-ticket subscriber groups, and fans
// events out to them. Membership is ephemeral: it lives exactly as long
// as the connection or until an explicit leave.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	groups  map[string]map[*Client]struct{}

	access  TicketAccess
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewHub constructs a hub.
func NewHub(access TicketAccess, metrics *observability.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		groups:  make(map[string]map[*Client]struct{}),
		access:  access,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// push hands a frame to one client and feeds the delivery counters.
func (h *Hub) push(c *Client, frame Frame) {
	h.metrics.RecordRelayFrame(c.deliver(frame))
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.RecordRelayConnect()

	h.push(c, Frame{Event: EventConnected, Data: ConnectedData{
		UserID:    c.UserID,
		Name:      c.Name,
		Role:      c.Role,
		Timestamp: h.now(),
	}})
}

// unregister drops the client from every group. Transport-level
// disconnects do not replay per-group UserLeft notifications.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for ticketID, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, ticketID)
		}
	}
	h.mu.Unlock()
	c.closeSend()
	h.metrics.RecordRelayDisconnect()

	h.logger.Debug("client disconnected", zap.String("user_id", c.UserID))
}

// Join validates visibility and subscribes the client to the ticket's
// group. Failures are reported only to the caller.
func (h *Hub) Join(ctx context.Context, c *Client, ticketID string) {
	if err := h.access.CanViewTicket(ctx, c.UserID, c.Role, ticketID); err != nil {
		h.push(c, h.errorFrame("access to ticket denied"))
		return
	}

	h.mu.Lock()
	members, ok := h.groups[ticketID]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[ticketID] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()

	h.broadcastGroup(ticketID, Frame{Event: EventUserJoined, Data: PresenceData{
		TicketID:  ticketID,
		UserID:    c.UserID,
		Name:      c.Name,
		Timestamp: h.now(),
	}}, c)

	h.push(c, Frame{Event: EventJoinedTicket, Data: JoinedTicketData{
		TicketID:  ticketID,
		Timestamp: h.now(),
	}})
}

// Leave unsubscribes the client. Leaving a group the client is not in is
// a no-op.
func (h *Hub) Leave(c *Client, ticketID string) {
	h.mu.Lock()
	members, ok := h.groups[ticketID]
	if ok {
		if _, member := members[c]; !member {
			ok = false
		} else {
			delete(members, c)
			if len(members) == 0 {
				delete(h.groups, ticketID)
			}
		}
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	h.broadcastGroup(ticketID, Frame{Event: EventUserLeft, Data: PresenceData{
		TicketID:  ticketID,
		UserID:    c.UserID,
		Name:      c.Name,
		Timestamp: h.now(),
	}}, nil)
}

// Chat relays an ephemeral message to the full group, sender included.
// Requires active membership; internal messages require a staff role.
func (h *Hub) Chat(c *Client, ticketID, body string, isInternal bool) {
	if !h.isMember(c, ticketID) {
		h.push(c, h.errorFrame("not connected to chat"))
		return
	}
	if isInternal && !domain.IsStaffRole(c.Role) {
		h.push(c, h.errorFrame("internal messages are staff only"))
		return
	}

	h.broadcastGroup(ticketID, Frame{Event: EventMessageReceived, Data: ChatMessageData{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		Body:       body,
		AuthorID:   c.UserID,
		AuthorName: c.Name,
		IsInternal: isInternal,
		Timestamp:  h.now(),
	}}, nil)
}

// Typing relays a typing signal to every group member except the sender.
func (h *Hub) Typing(c *Client, ticketID string, isTyping bool) {
	h.broadcastGroup(ticketID, Frame{Event: EventTypingIndicator, Data: TypingData{
		TicketID:  ticketID,
		UserID:    c.UserID,
		Name:      c.Name,
		IsTyping:  isTyping,
		Timestamp: h.now(),
	}}, c)
}

// BroadcastToTicket fans a lifecycle event out to the ticket's group.
// Authorization happened upstream in the lifecycle manager.
func (h *Hub) BroadcastToTicket(ticketID string, frame Frame) {
	h.broadcastGroup(ticketID, frame, nil)
}

// BroadcastFeed delivers a frame to every connected client.
func (h *Hub) BroadcastFeed(frame Frame) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.push(c, frame)
	}
}

func (h *Hub) broadcastGroup(ticketID string, frame Frame, exclude *Client) {
	h.mu.RLock()
	members := h.groups[ticketID]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		if c == exclude {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.push(c, frame)
	}
}

func (h *Hub) isMember(c *Client, ticketID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.groups[ticketID][c]
	return ok
}

// GroupSize reports current membership; used by monitoring endpoints and
// tests.
func (h *Hub) GroupSize(ticketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[ticketID])
}

func (h *Hub) errorFrame(message string) Frame {
	return Frame{Event: EventError, Data: ErrorData{Message: message, Timestamp: h.now()}}
}
