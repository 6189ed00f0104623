package live

import (
	"testing"
	"time"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{Send: make(chan []byte, 1)}
	b := &Client{Send: make(chan []byte, 1)}
	hub.register <- a
	hub.register <- b

	hub.Broadcast([]byte("order"))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			if string(msg) != "order" {
				t.Fatalf("got %q, want %q", msg, "order")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := &Client{Send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// unbuffered with no reader, so the first broadcast cannot land
	slow := &Client{Send: make(chan []byte)}
	hub.register <- slow

	hub.Broadcast([]byte("x"))

	select {
	case _, ok := <-slow.Send:
		if ok {
			t.Fatal("expected slow client to be dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for slow client drop")
	}
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	finished := make(chan struct{})
	go func() {
		hub.Broadcast([]byte("late"))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}
