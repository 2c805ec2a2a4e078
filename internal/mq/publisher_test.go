package mq

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"vextract/parse-gateway/internal/config"
)

func newTestPublisher(dial func() error) *Publisher {
	p := newPublisher(&config.RabbitMQConfig{Exchange: "video.parse", Queue: "q", RoutingKey: "parse"}, zap.NewNop())
	p.dial = dial
	p.backoff = func(int) time.Duration { return time.Millisecond }
	return p
}

func TestReconnectKeepsRetryingPastOutage(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(func() error {
		if calls.Add(1) <= 12 {
			return errors.New("connection refused")
		}
		return nil
	})

	if !p.reconnect() {
		t.Fatal("reconnect gave up before the broker came back")
	}
	if got := calls.Load(); got != 13 {
		t.Fatalf("dial calls = %d, want 13", got)
	}
}

func TestReconnectStopsOnClose(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(func() error {
		calls.Add(1)
		return errors.New("connection refused")
	})

	result := make(chan bool, 1)
	go func() { result <- p.reconnect() }()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("reconnect stopped dialing")
		}
		time.Sleep(time.Millisecond)
	}
	p.Close()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("reconnect reported success after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconnect did not return after close")
	}
}

func TestWatchConnectionKeepsDialingWhileDisconnected(t *testing.T) {
	var calls atomic.Int32
	p := newTestPublisher(func() error {
		calls.Add(1)
		return errors.New("connection refused")
	})

	done := make(chan struct{})
	go func() {
		p.watchConnection()
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 8 {
		if time.Now().After(deadline) {
			t.Fatalf("dial calls = %d, want at least 8", calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	p.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchConnection did not exit after close")
	}
}

func TestReconnectBackoffCapped(t *testing.T) {
	if got := reconnectBackoff(1); got != time.Second {
		t.Fatalf("backoff(1) = %v", got)
	}
	if got := reconnectBackoff(1000); got != maxReconnectBackoff {
		t.Fatalf("backoff(1000) = %v, want %v", got, maxReconnectBackoff)
	}
}

func TestPublishWithoutChannel(t *testing.T) {
	p := newTestPublisher(func() error { return nil })
	if err := p.PublishParseEvent(context.Background(), &ParseEvent{EventID: "e"}); !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("error = %v, want ErrChannelUnavailable", err)
	}
}
