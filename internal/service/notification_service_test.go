package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/events"
	"github.com/stayhub/service-desk/internal/realtime"
)

type recordingBroadcaster struct {
	ticketFrames map[string][]realtime.Frame
	feedFrames   []realtime.Frame
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{ticketFrames: make(map[string][]realtime.Frame)}
}

func (b *recordingBroadcaster) BroadcastToTicket(ticketID string, frame realtime.Frame) {
	b.ticketFrames[ticketID] = append(b.ticketFrames[ticketID], frame)
}

func (b *recordingBroadcaster) BroadcastFeed(frame realtime.Frame) {
	b.feedFrames = append(b.feedFrames, frame)
}

func newNotificationFixture() (*recordingBroadcaster, events.Dispatcher) {
	broadcaster := newRecordingBroadcaster()
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(broadcaster, zap.NewNop()).RegisterHandlers(dispatcher)
	return broadcaster, dispatcher
}

func testEvent(eventType events.EventType, payload events.Payload) events.Event {
	return events.Event{
		ID:        "evt-1",
		Type:      eventType,
		TicketID:  "t1",
		Actor:     events.Actor{ID: "u1", Name: "Ada", Role: domain.RoleAdmin},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload:   payload,
	}
}

func TestTicketCreatedGoesToFeed(t *testing.T) {
	broadcaster, dispatcher := newNotificationFixture()

	err := dispatcher.Publish(context.Background(), testEvent(events.EventTicketCreated,
		events.TicketCreatedPayload{
			TicketNumber: "TKT-2025-001",
			Title:        "Broken AC",
			ServiceType:  domain.ServiceTypeMaintenance,
			Priority:     domain.TicketPriorityHigh,
		}))
	require.NoError(t, err)

	require.Len(t, broadcaster.feedFrames, 1)
	assert.Empty(t, broadcaster.ticketFrames)

	frame := broadcaster.feedFrames[0]
	assert.Equal(t, realtime.EventTicketCreated, frame.Event)
	data := frame.Data.(realtime.CreatedData)
	assert.Equal(t, "TKT-2025-001", data.TicketNumber)
	assert.Equal(t, "t1", data.TicketID)
}

func TestTicketUpdatedGoesToGroup(t *testing.T) {
	broadcaster, dispatcher := newNotificationFixture()

	err := dispatcher.Publish(context.Background(), testEvent(events.EventTicketUpdated,
		events.TicketUpdatedPayload{
			Status:   domain.TicketStatusInProgress,
			Priority: domain.TicketPriorityCritical,
		}))
	require.NoError(t, err)

	frames := broadcaster.ticketFrames["t1"]
	require.Len(t, frames, 2)
	assert.Equal(t, realtime.EventStatusUpdated, frames[0].Event)
	assert.Equal(t, realtime.EventTicketUpdated, frames[1].Event)
	for _, frame := range frames {
		data := frame.Data.(realtime.StatusData)
		assert.Equal(t, "t1", data.TicketID)
		assert.Equal(t, domain.TicketStatusInProgress, data.Status)
		assert.Equal(t, domain.TicketPriorityCritical, data.Priority)
	}
}

func TestAssignmentClosureAndCommentFrames(t *testing.T) {
	broadcaster, dispatcher := newNotificationFixture()
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, testEvent(events.EventTicketAssigned,
		events.TicketAssignedPayload{AssigneeID: "s1", AssigneeName: "Cam"})))
	require.NoError(t, dispatcher.Publish(ctx, testEvent(events.EventTicketClosed,
		events.TicketClosedPayload{Resolution: "fixed"})))
	require.NoError(t, dispatcher.Publish(ctx, testEvent(events.EventCommentAdded,
		events.CommentAddedPayload{CommentID: "c1", Body: "done", AuthorID: "u1", AuthorName: "Ada"})))

	frames := broadcaster.ticketFrames["t1"]
	require.Len(t, frames, 3)
	assert.Equal(t, realtime.EventTicketAssigned, frames[0].Event)
	assert.Equal(t, "Ada", frames[0].Data.(realtime.AssignmentData).ActorName)
	assert.Equal(t, realtime.EventTicketClosed, frames[1].Event)
	assert.Equal(t, "fixed", frames[1].Data.(realtime.ClosedData).Resolution)
	assert.Equal(t, realtime.EventCommentAdded, frames[2].Event)
	assert.Equal(t, "c1", frames[2].Data.(realtime.CommentData).CommentID)
}

func TestMismatchedPayloadIsIgnored(t *testing.T) {
	broadcaster, dispatcher := newNotificationFixture()

	err := dispatcher.Publish(context.Background(), testEvent(events.EventTicketClosed,
		events.TicketCreatedPayload{}))
	require.NoError(t, err)
	assert.Empty(t, broadcaster.ticketFrames)
	assert.Empty(t, broadcaster.feedFrames)
}
