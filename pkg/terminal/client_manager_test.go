package terminal

import (
	"encoding/json"
	"testing"

	"github.com/antibyte/petbasic/pkg/shared"
)

func newTestClient(id string, buffer int) *Client {
	return &Client{id: id, send: make(chan []byte, buffer)}
}

func TestClientManagerLimit(t *testing.T) {
	cm := NewClientManager()
	cm.maxClients = 2
	if err := cm.AddClient(newTestClient("a", 1)); err != nil {
		t.Fatal(err)
	}
	if err := cm.AddClient(newTestClient("b", 1)); err != nil {
		t.Fatal(err)
	}
	if err := cm.AddClient(newTestClient("c", 1)); err == nil {
		t.Error("third client accepted")
	}
	if n := cm.GetClientCount(); n != 2 {
		t.Errorf("count %d", n)
	}
	if !cm.HasClient("a") || cm.HasClient("c") {
		t.Error("HasClient wrong")
	}
}

func TestClientManagerRemoveClosesSend(t *testing.T) {
	cm := NewClientManager()
	c := newTestClient("a", 1)
	cm.AddClient(c)
	cm.RemoveClient("a")
	cm.RemoveClient("a")
	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
	if cm.HasClient("a") {
		t.Error("client still registered")
	}
}

func TestClientManagerBroadcastMarksStale(t *testing.T) {
	cm := NewClientManager()
	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 4)
	cm.AddClient(slow)
	cm.AddClient(fast)

	cm.Broadcast(shared.Message{Type: shared.MessageTypeCursor, Row: 1, Col: 2})
	cm.Broadcast(shared.Message{Type: shared.MessageTypeClear})

	if !slow.stale.Load() {
		t.Error("slow client not marked stale")
	}
	if fast.stale.Load() {
		t.Error("fast client marked stale")
	}
	if len(fast.send) != 2 {
		t.Fatalf("fast client got %d messages", len(fast.send))
	}
	var msg shared.Message
	if err := json.Unmarshal(<-fast.send, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != shared.MessageTypeCursor || msg.Row != 1 || msg.Col != 2 {
		t.Errorf("first message %+v", msg)
	}
}

func TestClientManagerSendToClient(t *testing.T) {
	cm := NewClientManager()
	cm.AddClient(newTestClient("a", 1))
	if err := cm.SendToClient("a", shared.Message{Type: shared.MessageTypeClear}); err != nil {
		t.Fatal(err)
	}
	if err := cm.SendToClient("a", shared.Message{Type: shared.MessageTypeClear}); err == nil {
		t.Error("send to full buffer succeeded")
	}
	if err := cm.SendToClient("x", shared.Message{Type: shared.MessageTypeClear}); err == nil {
		t.Error("send to unknown client succeeded")
	}
}

func TestClientManagerRateLimit(t *testing.T) {
	cm := NewClientManager()
	for i := 0; i < maxKeysPerMinute; i++ {
		if err := cm.CheckRateLimit("10.0.0.1"); err != nil {
			t.Fatalf("message %d limited: %v", i+1, err)
		}
	}
	if err := cm.CheckRateLimit("10.0.0.1"); err == nil {
		t.Error("limit not enforced")
	}
	if err := cm.CheckRateLimit("10.0.0.2"); err != nil {
		t.Errorf("other address limited: %v", err)
	}
}

func TestClientManagerForgetsRateLimit(t *testing.T) {
	cm := NewClientManager()
	a := newTestClient("a", 1)
	a.remote = "10.0.0.1"
	b := newTestClient("b", 1)
	b.remote = "10.0.0.1"
	cm.AddClient(a)
	cm.AddClient(b)
	cm.CheckRateLimit("10.0.0.1")

	cm.RemoveClient("a")
	if _, ok := cm.rateLimits["10.0.0.1"]; !ok {
		t.Fatal("counter dropped while b is still connected")
	}
	cm.RemoveClient("b")
	if n := len(cm.rateLimits); n != 0 {
		t.Errorf("%d counters left after the last client", n)
	}

	cm.AddClient(newTestClient("c", 1))
	cm.CheckRateLimit("10.0.0.2")
	cm.RemoveAll()
	if n := len(cm.rateLimits); n != 0 {
		t.Errorf("%d counters left after RemoveAll", n)
	}
}
