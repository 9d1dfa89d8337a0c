package ws

import "testing"

func TestHubRegisterAndCloseAll(t *testing.T) {
	hub := NewHub()
	a := NewClient(nil)
	b := NewClient(nil)

	hub.Register(a)
	hub.Register(b)
	if hub.Count() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.Count())
	}

	hub.Unregister(a)
	if hub.Count() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.Count())
	}

	hub.CloseAll()
	if hub.Count() != 0 {
		t.Fatalf("expected no clients, got %d", hub.Count())
	}
	if _, ok := <-b.out; ok {
		t.Fatalf("expected closed outbound queue")
	}
	b.send([]byte("late"))
}

func TestClientSendDropsWhenQueueFull(t *testing.T) {
	client := NewClient(nil)
	for i := 0; i < cap(client.out)+5; i++ {
		client.send([]byte("x"))
	}
	if len(client.out) != cap(client.out) {
		t.Fatalf("expected full queue, got %d", len(client.out))
	}
	client.close()
	client.close()
}
