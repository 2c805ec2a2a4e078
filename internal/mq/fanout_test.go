package mq

import (
	"context"
	"errors"
	"testing"
)

type recordingSink struct {
	events []*ParseEvent
	err    error
}

func (s *recordingSink) PublishParseEvent(_ context.Context, event *ParseEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	boom := errors.New("broker down")
	failing := &recordingSink{err: boom}
	ok := &recordingSink{}

	err := Fanout{failing, ok}.PublishParseEvent(context.Background(), &ParseEvent{EventID: "e"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Fatalf("every sink must receive the event: %d %d", len(failing.events), len(ok.events))
	}
}

func TestFanoutEmpty(t *testing.T) {
	if err := (Fanout{}).PublishParseEvent(context.Background(), &ParseEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
