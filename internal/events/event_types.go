package events

import (
	"time"

	"github.com/stayhub/service-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketClosed   EventType = "ticket_closed"
	EventCommentAdded   EventType = "comment_added"
)

// Actor identifies who triggered an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// Payload is implemented by the closed set of event payload types; every
// event carries exactly one of them, never an untyped map.
type Payload interface {
	isPayload()
}

// Event represents a domain event emitted by the lifecycle manager.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// TicketCreatedPayload is broadcast to the system-wide feed; no client
// has joined the ticket's group at creation time.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	ServiceType  domain.ServiceType    `json:"service_type"`
	Priority     domain.TicketPriority `json:"priority"`
}

// TicketUpdatedPayload carries the post-update workflow fields.
type TicketUpdatedPayload struct {
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketAssignedPayload names the new assignee.
type TicketAssignedPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name"`
}

// TicketClosedPayload carries the closing resolution.
type TicketClosedPayload struct {
	Resolution string `json:"resolution"`
}

// CommentAddedPayload describes a persisted comment.
type CommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	Body       string `json:"body"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	IsInternal bool   `json:"is_internal"`
}

func (TicketCreatedPayload) isPayload()  {}
func (TicketUpdatedPayload) isPayload()  {}
func (TicketAssignedPayload) isPayload() {}
func (TicketClosedPayload) isPayload()   {}
func (CommentAddedPayload) isPayload()   {}
