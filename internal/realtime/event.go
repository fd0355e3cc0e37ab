package realtime

import (
	"time"

	"github.com/stayhub/service-desk/internal/domain"
)

// Server-pushed event names. The set is closed; every frame carries one
// of the typed data structs below.
const (
	EventConnected       = "Connected"
	EventJoinedTicket    = "JoinedTicket"
	EventUserJoined      = "UserJoined"
	EventUserLeft        = "UserLeft"
	EventError           = "Error"
	EventMessageReceived = "MessageReceived"
	EventTypingIndicator = "TypingIndicator"
	EventStatusUpdated   = "StatusUpdated"
	EventTicketAssigned  = "TicketAssigned"
	EventTicketClosed    = "TicketClosed"
	EventCommentAdded    = "CommentAdded"
	EventTicketCreated   = "TicketCreated"
	EventTicketUpdated   = "TicketUpdated"
)

// Frame is the wire envelope for server-pushed events.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ConnectedData acknowledges a successful connect.
type ConnectedData struct {
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
}

// JoinedTicketData acknowledges a group join to the joining client.
type JoinedTicketData struct {
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PresenceData announces a member joining or leaving a group.
type PresenceData struct {
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorData is delivered only to the caller that triggered the failure.
type ErrorData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatMessageData carries an ephemeral chat message. Chat never touches
// persistent storage; the durable path is a ticket comment.
type ChatMessageData struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	IsInternal bool      `json:"is_internal"`
	Timestamp  time.Time `json:"timestamp"`
}

// TypingData signals a member typing state to everyone but the sender.
type TypingData struct {
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	IsTyping  bool      `json:"is_typing"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusData reports workflow field changes on a ticket.
type StatusData struct {
	TicketID  string                `json:"ticket_id"`
	Status    domain.TicketStatus   `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	Timestamp time.Time             `json:"timestamp"`
}

// AssignmentData announces a new assignee.
type AssignmentData struct {
	TicketID     string    `json:"ticket_id"`
	AssigneeID   string    `json:"assignee_id"`
	AssigneeName string    `json:"assignee_name"`
	ActorName    string    `json:"actor_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// ClosedData announces ticket closure with its resolution.
type ClosedData struct {
	TicketID   string    `json:"ticket_id"`
	Resolution string    `json:"resolution"`
	ActorName  string    `json:"actor_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// CommentData announces a persisted comment.
type CommentData struct {
	TicketID   string    `json:"ticket_id"`
	CommentID  string    `json:"comment_id"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	IsInternal bool      `json:"is_internal"`
	Timestamp  time.Time `json:"timestamp"`
}

// CreatedData announces a new ticket on the system-wide feed.
type CreatedData struct {
	TicketID     string                `json:"ticket_id"`
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	ServiceType  domain.ServiceType    `json:"service_type"`
	Priority     domain.TicketPriority `json:"priority"`
	Timestamp    time.Time             `json:"timestamp"`
}
