package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventScoreUpdate, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventBehavioralShift},
	}}

	shiftEvent := &Event{Type: EventBehavioralShift}
	scoreEvent := &Event{Type: EventScoreUpdate}

	if !h.shouldSend(client, shiftEvent) {
		t.Error("Should receive behavioral_shift events")
	}
	if h.shouldSend(client, scoreEvent) {
		t.Error("Should NOT receive score_update events")
	}
}

func TestShouldSend_WalletFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Wallets: []string{"wallet-1"},
	}}

	matching := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"wallet": "wallet-1", "score": 40.0},
	}
	notMatching := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"wallet": "wallet-2", "score": 40.0},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match on wallet")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match unrelated wallets")
	}
}

func TestShouldSend_RiskLevelFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		RiskLevels: []string{"HIGH"},
	}}

	high := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"wallet": "w", "riskLevel": "HIGH"},
	}
	low := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"wallet": "w", "riskLevel": "LOW"},
	}

	if !h.shouldSend(client, high) {
		t.Error("Should receive HIGH risk events")
	}
	if h.shouldSend(client, low) {
		t.Error("Should NOT receive LOW risk events")
	}
}

func TestShouldSend_MaxScoreFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MaxScore: 50.0,
	}}

	risky := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"score": 30.0},
	}
	clean := &Event{
		Type: EventScoreUpdate,
		Data: map[string]interface{}{"score": 90.0},
	}
	shift := &Event{
		Type: EventBehavioralShift,
		Data: map[string]interface{}{"wallet": "w"},
	}

	if !h.shouldSend(client, risky) {
		t.Error("Should receive low-score update")
	}
	if h.shouldSend(client, clean) {
		t.Error("Should NOT receive high-score update")
	}
	if !h.shouldSend(client, shift) {
		t.Error("MaxScore filter should only apply to score updates")
	}
}

func TestShouldSend_EmptySubscription(t *testing.T) {
	h := testHub()

	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventScoreUpdate}
	if !h.shouldSend(client, event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

func TestShouldSend_NonMapData(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		Wallets: []string{"wallet-1"},
	}}

	// Event with non-map data should not crash
	event := &Event{
		Type: EventBehavioralShift,
		Data: "string data not a map",
	}

	// Wallet filter skips non-map data (can't extract the wallet), so event passes through
	if !h.shouldSend(client, event) {
		t.Error("Non-map data should pass through when wallet filter can't extract addresses")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Broadcast an event
	h.Broadcast(&Event{Type: EventScoreUpdate, Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak 1, got %v", stats["peakClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Peak should still be 1
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak still 1, got %v", stats["peakClients"])
	}
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.BroadcastScoreUpdate(map[string]interface{}{
		"wallet": "wallet-1", "score": 40.0, "riskLevel": "HIGH",
	})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants behavioral shifts
	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{EventTypes: []EventType{EventBehavioralShift}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Send a score update (should be filtered out)
	h.Broadcast(&Event{Type: EventScoreUpdate, Timestamp: time.Now()})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive score update")
	default:
		// Good - filtered out
	}

	// Send a shift alert (should be received)
	h.Broadcast(&Event{Type: EventBehavioralShift, Timestamp: time.Now()})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive behavioral shift event")
	}
}
