package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/service-desk/internal/domain"
)

func TestDispatcherDeliversToSubscribersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketClosed, func(_ context.Context, _ Event) error {
		got = append(got, "wrong-type")
		return nil
	})

	err := d.Publish(context.Background(), Event{
		Type:     EventTicketCreated,
		TicketID: "t1",
		Actor:    Actor{ID: "u1", Role: domain.RoleUser},
		Payload:  TicketCreatedPayload{TicketNumber: "TKT-2025-001"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:t1", "second:t1"}, got)
}

func TestDispatcherContinuesPastFailingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var reached bool
	d.Subscribe(EventTicketUpdated, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventTicketUpdated, func(_ context.Context, _ Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketUpdated, TicketID: "t2"})
	require.NoError(t, err)
	assert.True(t, reached)
}
