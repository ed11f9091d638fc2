package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codesync/codesync-server/internal/config"
	"github.com/codesync/codesync-server/internal/exec"
	"github.com/codesync/codesync-server/internal/proto"
)

func dialWS(t *testing.T, ctx context.Context, httpURL string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(httpURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readEvent reads outbound frames until one matches the wanted event name.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read waiting for %s: %v", event, err)
		}
		if outbound.Type == proto.OutboundTypeEvent && outbound.Event == event {
			return outbound.Data
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, exec.NewClient("", "", nil), config.Config{})

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketJoinAndCodeRelay(t *testing.T) {
	ts := startTestServer(t, exec.NewClient("", "", nil), config.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts.URL)
	connB := dialWS(t, ctx, ts.URL)

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "room-1", Name: "alice"})

	var membership proto.EventMembership
	if err := json.Unmarshal(readEvent(t, ctx, connA, proto.EventMembershipUpdate), &membership); err != nil {
		t.Fatalf("unmarshal membership: %v", err)
	}
	if len(membership.Participants) != 1 || membership.Participants[0].Name != "alice" {
		t.Fatalf("unexpected initial membership: %+v", membership)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "room-1", Name: "bob"})

	var joined proto.EventParticipant
	if err := json.Unmarshal(readEvent(t, ctx, connA, proto.EventParticipantJoined), &joined); err != nil {
		t.Fatalf("unmarshal joined: %v", err)
	}
	if joined.Name != "bob" {
		t.Fatalf("unexpected joined name: %q", joined.Name)
	}

	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventMembershipUpdate), &membership); err != nil {
		t.Fatalf("unmarshal membership: %v", err)
	}
	if len(membership.Participants) != 2 {
		t.Fatalf("joiner saw %d participants", len(membership.Participants))
	}

	sendInbound(t, ctx, connA, proto.InboundTypeCode, proto.CodeData{Room: "room-1", Text: "let x = 1"})

	var code proto.EventCode
	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventCodeUpdate), &code); err != nil {
		t.Fatalf("unmarshal code: %v", err)
	}
	if code.Text != "let x = 1" {
		t.Fatalf("relayed text = %q", code.Text)
	}
}

func TestWebSocketCursorRelayAndDisconnect(t *testing.T) {
	ts := startTestServer(t, exec.NewClient("", "", nil), config.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts.URL)
	connB := dialWS(t, ctx, ts.URL)

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "room-1", Name: "alice"})
	readEvent(t, ctx, connA, proto.EventMembershipUpdate)
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "room-1", Name: "bob"})
	readEvent(t, ctx, connB, proto.EventMembershipUpdate)

	sendInbound(t, ctx, connA, proto.InboundTypeCursor, proto.CursorData{
		Room:     "room-1",
		Position: proto.Position{Line: 4, Column: 2},
	})

	var cursor proto.EventCursor
	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventCursorUpdate), &cursor); err != nil {
		t.Fatalf("unmarshal cursor: %v", err)
	}
	if cursor.Name != "alice" || cursor.Position.Line != 4 || cursor.Position.Column != 2 {
		t.Fatalf("unexpected cursor event: %+v", cursor)
	}

	// Abrupt departure: bob gets cursor_remove, a membership list without
	// alice, and a participant_left.
	connA.Close(websocket.StatusNormalClosure, "leaving")

	var gone proto.EventCursorGone
	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventCursorRemove), &gone); err != nil {
		t.Fatalf("unmarshal cursor_remove: %v", err)
	}
	if gone.ID != cursor.ID {
		t.Fatalf("cursor_remove for %q, want %q", gone.ID, cursor.ID)
	}

	var membership proto.EventMembership
	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventMembershipUpdate), &membership); err != nil {
		t.Fatalf("unmarshal membership: %v", err)
	}
	for _, p := range membership.Participants {
		if p.Name == "alice" {
			t.Fatal("membership after departure still lists alice")
		}
	}

	var left proto.EventParticipant
	if err := json.Unmarshal(readEvent(t, ctx, connB, proto.EventParticipantLeft), &left); err != nil {
		t.Fatalf("unmarshal left: %v", err)
	}
	if left.Name != "alice" {
		t.Fatalf("left event for %q", left.Name)
	}
}

func TestWebSocketRelayWithoutJoinReturnsError(t *testing.T) {
	ts := startTestServer(t, exec.NewClient("", "", nil), config.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)
	sendInbound(t, ctx, conn, proto.InboundTypeCode, proto.CodeData{Room: "room-1", Text: "x"})

	var raw struct {
		Type  string       `json:"type"`
		Error *proto.Error `json:"error"`
	}
	if err := wsjson.Read(ctx, conn, &raw); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if raw.Type != proto.OutboundTypeError || raw.Error == nil || raw.Error.Code != "not_in_room" {
		t.Fatalf("unexpected frame: %+v", raw)
	}
}
