package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainEvents collects everything delivered within the window.
func drainEvents(ch <-chan *Event, window time.Duration) []*Event {
	var events []*Event
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	return events
}

func memberNames(participants []Participant) map[string]string {
	m := make(map[string]string, len(participants))
	for _, p := range participants {
		m[p.ID] = p.Name
	}
	return m
}
