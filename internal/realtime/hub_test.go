package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/stayhub/service-desk/pkg/util"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/observability"
)

type fakeAccess struct {
	mu     sync.Mutex
	denied map[string]bool
}

func (f *fakeAccess) deny(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied == nil {
		f.denied = make(map[string]bool)
	}
	f.denied[userID] = true
}

func (f *fakeAccess) CanViewTicket(_ context.Context, userID string, _ domain.Role, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied[userID] {
		return apperrors.NewNotFound("ticket", nil)
	}
	return nil
}

func newTestHub(access TicketAccess) *Hub {
	if access == nil {
		access = &fakeAccess{}
	}
	h := NewHub(access, observability.NewMetrics(), zap.NewNop())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

// attach registers a client without a live socket. Hub logic only ever
// touches the send channel, so a nil conn is fine here.
func attach(t *testing.T, h *Hub, userID string, role domain.Role) *Client {
	t.Helper()
	c := newClient(h, nil, userID, "name-"+userID, role, 64)
	h.register(c)
	requireFrame(t, c, EventConnected)
	return c
}

func requireFrame(t *testing.T, c *Client, event string) Frame {
	t.Helper()
	select {
	case frame := <-c.send:
		require.Equal(t, event, frame.Event)
		return frame
	default:
		t.Fatalf("expected %s frame, channel empty", event)
	}
	return Frame{}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case frame := <-c.send:
		t.Fatalf("unexpected frame %s", frame.Event)
	default:
	}
}

func TestJoinAcksAndNotifiesOthers(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleReception)

	h.Join(context.Background(), a, "t1")
	requireFrame(t, a, EventJoinedTicket)

	h.Join(context.Background(), b, "t1")
	frame := requireFrame(t, a, EventUserJoined)
	presence, ok := frame.Data.(PresenceData)
	require.True(t, ok)
	assert.Equal(t, "u2", presence.UserID)

	// The joiner gets the ack but not its own presence echo.
	requireFrame(t, b, EventJoinedTicket)
	requireNoFrame(t, b)
	assert.Equal(t, 2, h.GroupSize("t1"))
}

func TestJoinDeniedReportsOnlyToCaller(t *testing.T) {
	access := &fakeAccess{}
	access.deny("intruder")
	h := newTestHub(access)
	member := attach(t, h, "u1", domain.RoleUser)
	h.Join(context.Background(), member, "t1")
	requireFrame(t, member, EventJoinedTicket)

	intruder := attach(t, h, "intruder", domain.RoleUser)
	h.Join(context.Background(), intruder, "t1")

	frame := requireFrame(t, intruder, EventError)
	data, ok := frame.Data.(ErrorData)
	require.True(t, ok)
	assert.Equal(t, "access to ticket denied", data.Message)

	requireNoFrame(t, member)
	assert.Equal(t, 1, h.GroupSize("t1"))
}

func TestChatReachesFullGroupIncludingSender(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleReception)
	h.Join(context.Background(), a, "t1")
	h.Join(context.Background(), b, "t1")
	drain(a)
	drain(b)

	h.Chat(a, "t1", "hello", false)

	for _, c := range []*Client{a, b} {
		frame := requireFrame(t, c, EventMessageReceived)
		msg, ok := frame.Data.(ChatMessageData)
		require.True(t, ok)
		assert.Equal(t, "hello", msg.Body)
		assert.Equal(t, "u1", msg.AuthorID)
		assert.NotEmpty(t, msg.ID)
	}
}

func TestChatRequiresMembership(t *testing.T) {
	h := newTestHub(nil)
	member := attach(t, h, "u1", domain.RoleUser)
	h.Join(context.Background(), member, "t1")
	drain(member)

	outsider := attach(t, h, "u2", domain.RoleUser)
	h.Chat(outsider, "t1", "hi", false)

	frame := requireFrame(t, outsider, EventError)
	data := frame.Data.(ErrorData)
	assert.Equal(t, "not connected to chat", data.Message)
	requireNoFrame(t, member)
}

func TestInternalChatIsStaffOnly(t *testing.T) {
	h := newTestHub(nil)
	guest := attach(t, h, "u1", domain.RoleUser)
	staff := attach(t, h, "s1", domain.RoleCleaningStaff)
	h.Join(context.Background(), guest, "t1")
	h.Join(context.Background(), staff, "t1")
	drain(guest)
	drain(staff)

	h.Chat(guest, "t1", "secret", true)
	frame := requireFrame(t, guest, EventError)
	assert.Equal(t, "internal messages are staff only", frame.Data.(ErrorData).Message)
	requireNoFrame(t, staff)

	h.Chat(staff, "t1", "note", true)
	requireFrame(t, staff, EventMessageReceived)
	requireFrame(t, guest, EventMessageReceived)
}

func TestTypingExcludesSender(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleReception)
	h.Join(context.Background(), a, "t1")
	h.Join(context.Background(), b, "t1")
	drain(a)
	drain(b)

	h.Typing(a, "t1", true)

	frame := requireFrame(t, b, EventTypingIndicator)
	data := frame.Data.(TypingData)
	assert.True(t, data.IsTyping)
	assert.Equal(t, "u1", data.UserID)
	requireNoFrame(t, a)
}

func TestLeaveStopsDeliveryAndNotifiesRemaining(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleReception)
	h.Join(context.Background(), a, "t1")
	h.Join(context.Background(), b, "t1")
	drain(a)
	drain(b)

	h.Leave(a, "t1")

	frame := requireFrame(t, b, EventUserLeft)
	assert.Equal(t, "u1", frame.Data.(PresenceData).UserID)
	requireNoFrame(t, a)

	h.BroadcastToTicket("t1", Frame{Event: EventStatusUpdated})
	requireFrame(t, b, EventStatusUpdated)
	requireNoFrame(t, a)

	// Leaving again is a no-op and replays nothing.
	h.Leave(a, "t1")
	requireNoFrame(t, b)
}

func TestUnregisterRemovesFromAllGroupsSilently(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleReception)
	for _, ticketID := range []string{"t1", "t2"} {
		h.Join(context.Background(), a, ticketID)
		h.Join(context.Background(), b, ticketID)
	}
	drain(a)
	drain(b)

	h.unregister(a)

	// Disconnects never replay UserLeft.
	requireNoFrame(t, b)
	assert.Equal(t, 1, h.GroupSize("t1"))
	assert.Equal(t, 1, h.GroupSize("t2"))

	h.unregister(a)
}

func TestBroadcastFeedReachesAllClients(t *testing.T) {
	h := newTestHub(nil)
	a := attach(t, h, "u1", domain.RoleUser)
	b := attach(t, h, "u2", domain.RoleAdmin)

	h.BroadcastFeed(Frame{Event: EventTicketCreated})
	requireFrame(t, a, EventTicketCreated)
	requireFrame(t, b, EventTicketCreated)
}

func TestBroadcastSkipsSlowClientWithoutBlocking(t *testing.T) {
	h := newTestHub(nil)
	slow := newClient(h, nil, "slow", "slow", domain.RoleUser, 1)
	h.register(slow)
	h.Join(context.Background(), slow, "t1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.BroadcastToTicket("t1", Frame{Event: EventStatusUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestConcurrentJoinLeaveChat(t *testing.T) {
	h := newTestHub(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		c := attach(t, h, fmt.Sprintf("u%d", i), domain.RoleReception)
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Join(context.Background(), c, "t1")
				h.Chat(c, "t1", "m", false)
				drain(c)
				h.Leave(c, "t1")
			}
			h.unregister(c)
		}(c)
	}
	wg.Wait()
	assert.Equal(t, 0, h.GroupSize("t1"))
}

func TestRelayCountersTrackConnectionsAndDrops(t *testing.T) {
	metrics := observability.NewMetrics()
	h := NewHub(&fakeAccess{}, metrics, zap.NewNop())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	a := attach(t, h, "u1", domain.RoleUser)
	slow := newClient(h, nil, "slow", "slow", domain.RoleUser, 1)
	h.register(slow)

	stats := metrics.RelaySnapshot()
	assert.Equal(t, int64(2), stats.Connections)
	assert.GreaterOrEqual(t, stats.Delivered, int64(2))

	// The Connected frame still occupies slow's single-slot buffer, so
	// the join ack has nowhere to go and counts as a drop.
	h.Join(context.Background(), slow, "t1")
	stats = metrics.RelaySnapshot()
	assert.GreaterOrEqual(t, stats.Dropped, int64(1))

	h.unregister(slow)
	h.unregister(a)
	assert.Equal(t, int64(0), metrics.RelaySnapshot().Connections)
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
