package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64

	relayConnections int64
	relayDelivered   int64
	relayDropped     int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the request counters; handy for a debug endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.requestCount))
	for k, v := range m.requestCount {
		out[k] = v
	}
	return out
}

// RelayStats is a point-in-time copy of the websocket relay counters.
type RelayStats struct {
	Connections int64
	Delivered   int64
	Dropped     int64
}

// RecordRelayConnect tracks a client attaching to the relay.
func (m *Metrics) RecordRelayConnect() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayConnections++
}

// RecordRelayDisconnect tracks a client detaching from the relay.
func (m *Metrics) RecordRelayDisconnect() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayConnections--
}

// RecordRelayFrame counts a frame handed to a client's send queue;
// delivered=false means the frame was dropped on a slow or closed peer.
func (m *Metrics) RecordRelayFrame(delivered bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if delivered {
		m.relayDelivered++
	} else {
		m.relayDropped++
	}
}

// RelaySnapshot copies the relay counters.
func (m *Metrics) RelaySnapshot() RelayStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RelayStats{
		Connections: m.relayConnections,
		Delivered:   m.relayDelivered,
		Dropped:     m.relayDropped,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
