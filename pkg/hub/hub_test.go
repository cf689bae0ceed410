package hub

import (
	"encoding/json"
	"testing"
	"time"
)

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func testClient(h *Hub, buffer int) *Client {
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := New("test")
	go h.Run()

	c := testClient(h, 1)
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	h.unregister <- c
	waitFor(t, func() bool { return h.ClientCount() == 0 }, "client not unregistered")

	// The hub closes the send channel on unregister
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHub_BroadcastJSON(t *testing.T) {
	h := New("test")
	go h.Run()

	a := testClient(h, 4)
	b := testClient(h, 4)
	waitFor(t, func() bool { return h.ClientCount() == 2 }, "clients not registered")

	if err := h.BroadcastJSON(map[string]int{"angle": 90}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != JSONMessage {
				t.Errorf("message type: got %v, want JSONMessage", msg.Type)
			}
			var got map[string]int
			if err := json.Unmarshal(msg.Data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got["angle"] != 90 {
				t.Errorf("payload: got %v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("broadcast not delivered")
		}
	}
}

func TestHub_BroadcastBinary(t *testing.T) {
	h := New("camera")
	go h.Run()

	c := testClient(h, 4)
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	h.BroadcastBinary([]byte{0xFF, 0xD8})

	select {
	case msg := <-c.send:
		if msg.Type != BinaryMessage {
			t.Errorf("message type: got %v, want BinaryMessage", msg.Type)
		}
		if len(msg.Data) != 2 {
			t.Errorf("payload length: got %d, want 2", len(msg.Data))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast not delivered")
	}
}

// The broadcast payload must survive the caller recycling its buffer:
// delivery happens later from the write pumps, so the queued message
// cannot alias caller-owned memory.
func TestHub_BroadcastBinaryDetachesFromCaller(t *testing.T) {
	h := New("camera")
	go h.Run()

	c := testClient(h, 4)
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	payload := []byte{0xFF, 0xD8, 0xFF}
	h.BroadcastBinary(payload)

	// Simulate the caller reusing the buffer for the next frame
	payload[0] = 0x00
	payload[1] = 0x00

	select {
	case msg := <-c.send:
		if msg.Data[0] != 0xFF || msg.Data[1] != 0xD8 {
			t.Errorf("queued payload aliased caller buffer: got % X", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast not delivered")
	}
}

// A client that stops draining its buffer gets evicted instead of
// stalling the broadcast loop.
func TestHub_DropsSlowClient(t *testing.T) {
	h := New("test")
	go h.Run()

	testClient(h, 1)
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "client not registered")

	// First message fills the buffer, second finds it full
	h.BroadcastBinary([]byte("one"))
	h.BroadcastBinary([]byte("two"))

	waitFor(t, func() bool { return h.ClientCount() == 0 }, "slow client not dropped")
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	h := New("test")
	go h.Run()

	// Must not panic or block
	h.BroadcastBinary([]byte("nobody home"))
	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount: got %d, want 0", got)
	}
}
