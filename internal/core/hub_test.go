package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(NewRegistry())
	go hub.Run(ctx)
	return hub
}

func join(hub *Hub, c *Client, room, name string) {
	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room, Name: name}
}

func TestHubJoinBroadcastsMembership(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	join(hub, alice, "room-1", "alice")

	ev := mustEvent(t, alice.Events, EventMembershipUpdate)
	if len(ev.Participants) != 1 || ev.Participants[0].ID != "a" || ev.Participants[0].Name != "alice" {
		t.Fatalf("unexpected initial membership: %+v", ev.Participants)
	}

	join(hub, bob, "room-1", "bob")

	joined := mustEvent(t, alice.Events, EventParticipantJoined)
	if joined.SenderName != "bob" || joined.Room != "room-1" {
		t.Fatalf("unexpected joined event: %+v", joined)
	}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventMembershipUpdate)
		names := memberNames(ev.Participants)
		if len(names) != 2 || names["a"] != "alice" || names["b"] != "bob" {
			t.Fatalf("client %s saw membership %v", c.ID, names)
		}
	}

	// Bob must not see his own join announcement.
	for _, ev := range drainEvents(bob.Events, 50*time.Millisecond) {
		if ev.Kind == EventParticipantJoined && ev.SenderID == "b" {
			t.Fatalf("joiner received own join event")
		}
	}
}

func TestHubAnonymousNameResolution(t *testing.T) {
	hub := startHub(t)

	ghost := NewClient("g")
	hub.RegisterClient(ghost)
	join(hub, ghost, "room-1", "")

	ev := mustEvent(t, ghost.Events, EventMembershipUpdate)
	if ev.Participants[0].Name != AnonymousName {
		t.Fatalf("expected anonymous label, got %q", ev.Participants[0].Name)
	}
}

func TestHubRejoinUpsertsDisplayName(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	join(hub, alice, "room-1", "alice")
	join(hub, bob, "room-1", "bob")
	mustEvent(t, bob.Events, EventMembershipUpdate)

	join(hub, alice, "room-1", "alicia")

	ev := mustEvent(t, bob.Events, EventMembershipUpdate)
	if names := memberNames(ev.Participants); names["a"] != "alicia" {
		t.Fatalf("rejoin did not upsert name: %v", names)
	}
}

func TestHubJoinSecondRoomRejected(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	join(hub, alice, "room-1", "alice")
	join(hub, alice, "room-2", "alice")

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
}

func TestHubRelayWithoutJoinProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandCodeChange, Room: "room-1", Text: "x"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}
}

func TestHubCodeChangeExcludesSenderLastWriteWins(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	carol := NewClient("c")
	for _, c := range []*Client{alice, bob, carol} {
		hub.RegisterClient(c)
		join(hub, c, "room-1", c.ID)
	}
	mustEvent(t, carol.Events, EventMembershipUpdate)

	alice.Commands <- &Command{Kind: CommandCodeChange, Room: "room-1", Text: "draft"}
	alice.Commands <- &Command{Kind: CommandCodeChange, Room: "room-1", Text: "final"}

	for _, c := range []*Client{bob, carol} {
		var last string
		mustEvent(t, c.Events, EventCodeUpdate) // "draft"
		last = mustEvent(t, c.Events, EventCodeUpdate).Text
		if last != "final" {
			t.Fatalf("client %s final buffer = %q", c.ID, last)
		}
	}

	for _, ev := range drainEvents(alice.Events, 50*time.Millisecond) {
		if ev.Kind == EventCodeUpdate {
			t.Fatalf("sender received own code change back")
		}
	}
}

func TestHubCursorAndSelectionAttribution(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	join(hub, alice, "room-1", "alice")
	join(hub, bob, "room-1", "bob")
	mustEvent(t, bob.Events, EventMembershipUpdate)

	alice.Commands <- &Command{
		Kind:     CommandCursorMove,
		Room:     "room-1",
		Position: Position{Line: 3, Column: 7},
	}

	cur := mustEvent(t, bob.Events, EventCursorUpdate)
	if cur.SenderID != "a" || cur.SenderName != "alice" || cur.Position != (Position{Line: 3, Column: 7}) {
		t.Fatalf("unexpected cursor update: %+v", cur)
	}

	alice.Commands <- &Command{
		Kind:  CommandSelectionChange,
		Room:  "room-1",
		Range: Range{Start: Position{Line: 1, Column: 1}, End: Position{Line: 2, Column: 4}},
	}

	sel := mustEvent(t, bob.Events, EventSelectionUpdate)
	if sel.SenderID != "a" || sel.Range.End != (Position{Line: 2, Column: 4}) {
		t.Fatalf("unexpected selection update: %+v", sel)
	}

	alice.Commands <- &Command{Kind: CommandLanguageChange, Room: "room-1", Language: "python"}
	lang := mustEvent(t, bob.Events, EventLanguageUpdate)
	if lang.Language != "python" || lang.SenderName != "alice" {
		t.Fatalf("unexpected language update: %+v", lang)
	}
}

func TestHubDisconnectTeardown(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	carol := NewClient("c")
	for _, c := range []*Client{alice, bob, carol} {
		hub.RegisterClient(c)
		join(hub, c, "room-1", c.ID)
	}
	mustEvent(t, carol.Events, EventMembershipUpdate)
	drainEvents(bob.Events, 50*time.Millisecond)
	drainEvents(carol.Events, 50*time.Millisecond)

	hub.UnregisterClient(alice)

	for _, c := range []*Client{bob, carol} {
		events := drainEvents(c.Events, 100*time.Millisecond)

		var removes, memberships, lefts int
		for _, ev := range events {
			switch ev.Kind {
			case EventCursorRemove:
				removes++
				if ev.SenderID != "a" {
					t.Fatalf("cursor remove for wrong connection: %+v", ev)
				}
			case EventMembershipUpdate:
				memberships++
				names := memberNames(ev.Participants)
				if _, stale := names["a"]; stale || len(names) != 2 {
					t.Fatalf("membership after departure still lists a: %v", names)
				}
			case EventParticipantLeft:
				lefts++
				if ev.SenderName != "a" {
					t.Fatalf("left event for wrong participant: %+v", ev)
				}
			}
		}
		if removes != 1 || memberships != 1 || lefts != 1 {
			t.Fatalf("client %s got removes=%d memberships=%d lefts=%d", c.ID, removes, memberships, lefts)
		}
	}

	if got := drainEvents(alice.Events, 50*time.Millisecond); len(got) > 0 {
		dirty := false
		for _, ev := range got {
			if ev.Kind == EventCursorRemove || ev.Kind == EventParticipantLeft {
				dirty = true
			}
			if ev.Kind == EventMembershipUpdate {
				dirty = true
			}
		}
		if dirty {
			t.Fatalf("departing connection received its own departure events")
		}
	}
}

func TestHubUnjoinedDisconnectProducesNoRoomEvents(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	loner := NewClient("l")
	hub.RegisterClient(alice)
	hub.RegisterClient(loner)
	join(hub, alice, "room-1", "alice")
	mustEvent(t, alice.Events, EventMembershipUpdate)

	hub.UnregisterClient(loner)

	if events := drainEvents(alice.Events, 100*time.Millisecond); len(events) != 0 {
		t.Fatalf("unjoined disconnect produced %d room events: %+v", len(events), events[0])
	}
}

func TestHubRoomGarbageCollected(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	hub.RegisterClient(alice)
	join(hub, alice, "room-1", "alice")
	mustEvent(t, alice.Events, EventMembershipUpdate)

	hub.UnregisterClient(alice)

	// A later join to the same key should behave like a first join again.
	bob := NewClient("b")
	hub.RegisterClient(bob)
	join(hub, bob, "room-1", "bob")

	ev := mustEvent(t, bob.Events, EventMembershipUpdate)
	if len(ev.Participants) != 1 || ev.Participants[0].ID != "b" {
		t.Fatalf("stale membership survived empty room: %+v", ev.Participants)
	}
}

func TestHubShutdownStopsAcceptingWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(NewRegistry())
	go hub.Run(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		hub.RegisterClient(NewClient("late"))
		hub.UnregisterClient(NewClient("later"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after shutdown")
	}
}
