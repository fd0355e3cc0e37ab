package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/stayhub/service-desk/internal/events"
	"github.com/stayhub/service-desk/internal/realtime"
)

// Broadcaster is the outbound fanout surface the notification service
// pushes frames through. The realtime hub satisfies it.
type Broadcaster interface {
	BroadcastToTicket(ticketID string, frame realtime.Frame)
	BroadcastFeed(frame realtime.Frame)
}

// NotificationService translates lifecycle events into realtime frames.
// It is a pure fanout step; authorization already happened in the
// operation that published the event.
type NotificationService struct {
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewNotificationService(broadcaster Broadcaster, logger *zap.Logger) *NotificationService {
	return &NotificationService{broadcaster: broadcaster, logger: logger}
}

// RegisterHandlers subscribes the service to every lifecycle event type.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, n.onTicketCreated)
	dispatcher.Subscribe(events.EventTicketUpdated, n.onTicketUpdated)
	dispatcher.Subscribe(events.EventTicketAssigned, n.onTicketAssigned)
	dispatcher.Subscribe(events.EventTicketClosed, n.onTicketClosed)
	dispatcher.Subscribe(events.EventCommentAdded, n.onCommentAdded)
}

// onTicketCreated goes to the system-wide feed: nobody has joined the
// ticket's group yet at creation time.
func (n *NotificationService) onTicketCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.broadcaster.BroadcastFeed(realtime.Frame{
		Event: realtime.EventTicketCreated,
		Data: realtime.CreatedData{
			TicketID:     event.TicketID,
			TicketNumber: payload.TicketNumber,
			Title:        payload.Title,
			ServiceType:  payload.ServiceType,
			Priority:     payload.Priority,
			Timestamp:    event.Timestamp,
		},
	})
	return nil
}

// onTicketUpdated pushes both update channels to the group: the status
// channel watched by workflow views, and the ticket-level update frame.
func (n *NotificationService) onTicketUpdated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return n.badPayload(event)
	}
	data := realtime.StatusData{
		TicketID:  event.TicketID,
		Status:    payload.Status,
		Priority:  payload.Priority,
		Timestamp: event.Timestamp,
	}
	n.broadcaster.BroadcastToTicket(event.TicketID, realtime.Frame{
		Event: realtime.EventStatusUpdated,
		Data:  data,
	})
	n.broadcaster.BroadcastToTicket(event.TicketID, realtime.Frame{
		Event: realtime.EventTicketUpdated,
		Data:  data,
	})
	return nil
}

func (n *NotificationService) onTicketAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.broadcaster.BroadcastToTicket(event.TicketID, realtime.Frame{
		Event: realtime.EventTicketAssigned,
		Data: realtime.AssignmentData{
			TicketID:     event.TicketID,
			AssigneeID:   payload.AssigneeID,
			AssigneeName: payload.AssigneeName,
			ActorName:    event.Actor.Name,
			Timestamp:    event.Timestamp,
		},
	})
	return nil
}

func (n *NotificationService) onTicketClosed(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.broadcaster.BroadcastToTicket(event.TicketID, realtime.Frame{
		Event: realtime.EventTicketClosed,
		Data: realtime.ClosedData{
			TicketID:   event.TicketID,
			Resolution: payload.Resolution,
			ActorName:  event.Actor.Name,
			Timestamp:  event.Timestamp,
		},
	})
	return nil
}

func (n *NotificationService) onCommentAdded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return n.badPayload(event)
	}
	n.broadcaster.BroadcastToTicket(event.TicketID, realtime.Frame{
		Event: realtime.EventCommentAdded,
		Data: realtime.CommentData{
			TicketID:   event.TicketID,
			CommentID:  payload.CommentID,
			Body:       payload.Body,
			AuthorID:   payload.AuthorID,
			AuthorName: payload.AuthorName,
			IsInternal: payload.IsInternal,
			Timestamp:  event.Timestamp,
		},
	})
	return nil
}

func (n *NotificationService) badPayload(event events.Event) error {
	n.logger.Warn("event payload type mismatch",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}
