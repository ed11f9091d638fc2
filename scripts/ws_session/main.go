package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codesync/codesync-server/internal/core"
	"github.com/codesync/codesync-server/internal/editor"
	"github.com/codesync/codesync-server/internal/persist"
	"github.com/codesync/codesync-server/internal/proto"
	"github.com/codesync/codesync-server/internal/store/httpstore"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_session: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	base := flag.String("base", "http://localhost:8080", "HTTP base URL for document bootstrap")
	user := flag.String("user", "cli-user", "display name")
	room := flag.String("room", "demo", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	docs := httpstore.New(*base)
	saver := persist.NewSaver(docs, *room, persist.DefaultQuietPeriod, nil, func(st persist.Status) {
		fmt.Printf("(%s)\n", st)
	})
	defer saver.Close()

	engine := editor.NewEngine(newTerminalRenderer())

	doc, err := saver.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap document: %w", err)
	}
	engine.SetInitial(doc.Content, doc.Language)

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{Room: *room, Name: *user})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s (%s)\n", *addr, *user, *room, doc.Language)
	fmt.Println("Type text to append and send; /lang <mode>, /cursor <line> <col>, /select <l1> <c1> <l2> <c2>, /show. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn, engine)
	}()

	writeLoop(ctx, conn, *room, engine, saver)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, engine *editor.Engine) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError {
			if outbound.Error != nil {
				fmt.Printf("server error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
			}
			continue
		}

		applyEvent(engine, outbound)
	}
}

// applyEvent routes one relay event into the reconciliation engine.
func applyEvent(engine *editor.Engine, outbound proto.Outbound) {
	raw, err := json.Marshal(outbound.Data)
	if err != nil {
		log.Printf("marshal outbound data: %v", err)
		return
	}

	switch outbound.Event {
	case proto.EventCodeUpdate:
		var evt proto.EventCode
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		engine.ApplyCode(evt.Text)
	case proto.EventLanguageUpdate:
		var evt proto.EventLanguage
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		engine.ApplyLanguage(evt.Language)
	case proto.EventMembershipUpdate:
		var evt proto.EventMembership
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		participants := make([]core.Participant, 0, len(evt.Participants))
		names := make([]string, 0, len(evt.Participants))
		for _, p := range evt.Participants {
			participants = append(participants, core.Participant{ID: p.ID, Name: p.Name})
			names = append(names, p.Name)
		}
		engine.ApplyMembership(participants)
		fmt.Printf("[room %s] members: %s\n", evt.Room, strings.Join(names, ", "))
	case proto.EventParticipantJoined:
		var evt proto.EventParticipant
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		fmt.Printf("[room %s] %s joined\n", evt.Room, evt.Name)
	case proto.EventParticipantLeft:
		var evt proto.EventParticipant
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		fmt.Printf("[room %s] %s left\n", evt.Room, evt.Name)
	case proto.EventCursorUpdate:
		var evt proto.EventCursor
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		engine.ApplyCursor(evt.ID, evt.Name, core.Position{Line: evt.Position.Line, Column: evt.Position.Column})
	case proto.EventSelectionUpdate:
		var evt proto.EventSelection
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		engine.ApplySelection(evt.ID, evt.Name, core.Range{
			Start: core.Position{Line: evt.Range.StartLine, Column: evt.Range.StartColumn},
			End:   core.Position{Line: evt.Range.EndLine, Column: evt.Range.EndColumn},
		})
	case proto.EventCursorRemove:
		var evt proto.EventCursorGone
		if err := json.Unmarshal(raw, &evt); err != nil {
			log.Printf("unmarshal %s: %v", outbound.Event, err)
			return
		}
		engine.ApplyCursorRemove(evt.ID)
	default:
		fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room string, engine *editor.Engine, saver *persist.Saver) {
	cursorGate := editor.NewThrottle(editor.CursorEmitInterval)
	selectionGate := editor.NewThrottle(editor.SelectionEmitInterval)

	send := func(msgType string, v any) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Printf("marshal %s: %v", msgType, err)
			return false
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
			log.Printf("send error: %v", err)
			return false
		}
		return true
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			switch {
			case line == "/show":
				fmt.Printf("--- %s ---\n%s\n---\n", engine.Language(), engine.Buffer())
			case strings.HasPrefix(line, "/lang "):
				language := strings.TrimSpace(strings.TrimPrefix(line, "/lang "))
				if language == "" {
					fmt.Println("usage: /lang <mode>")
					continue
				}
				engine.ApplyLanguage(language)
				if !send(proto.InboundTypeLanguage, proto.LanguageData{Room: room, Language: language}) {
					return
				}
				saver.Note(engine.Buffer(), language)
			case strings.HasPrefix(line, "/cursor "):
				nums, err := parseInts(strings.TrimPrefix(line, "/cursor "), 2)
				if err != nil {
					fmt.Println("usage: /cursor <line> <col>")
					continue
				}
				if !cursorGate.Allow(time.Now()) {
					continue
				}
				if !send(proto.InboundTypeCursor, proto.CursorData{
					Room:     room,
					Position: proto.Position{Line: nums[0], Column: nums[1]},
				}) {
					return
				}
			case strings.HasPrefix(line, "/select "):
				nums, err := parseInts(strings.TrimPrefix(line, "/select "), 4)
				if err != nil {
					fmt.Println("usage: /select <l1> <c1> <l2> <c2>")
					continue
				}
				if !selectionGate.Allow(time.Now()) {
					continue
				}
				if !send(proto.InboundTypeSelection, proto.SelectionData{
					Room: room,
					Range: proto.Range{
						StartLine: nums[0], StartColumn: nums[1],
						EndLine: nums[2], EndColumn: nums[3],
					},
				}) {
					return
				}
			default:
				text := engine.Buffer() + line + "\n"
				engine.ApplyCode(text)
				if !send(proto.InboundTypeCode, proto.CodeData{Room: room, Text: text}) {
					return
				}
				saver.Note(text, engine.Language())
			}
		}
	}
}

func parseInts(s string, want int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != want {
		return nil, fmt.Errorf("want %d numbers, got %d", want, len(fields))
	}
	nums := make([]int, want)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// terminalRenderer prints decoration changes as log lines. Tween frames for
// an unchanged position are suppressed so animation does not flood the
// terminal.
type terminalRenderer struct {
	mu   sync.Mutex
	last map[string]core.Position
}

func newTerminalRenderer() *terminalRenderer {
	return &terminalRenderer{last: make(map[string]core.Position)}
}

func (r *terminalRenderer) SetBuffer(text string) {
	fmt.Printf("[buffer] %d bytes\n", len(text))
}

func (r *terminalRenderer) SetLanguage(language string) {
	fmt.Printf("[language] %s\n", language)
}

func (r *terminalRenderer) SetCursor(id, name string, pos core.Position) {
	r.mu.Lock()
	prev, seen := r.last[id]
	r.last[id] = pos
	r.mu.Unlock()
	if seen && prev == pos {
		return
	}
	fmt.Printf("[cursor] %s at %d:%d\n", name, pos.Line, pos.Column)
}

func (r *terminalRenderer) ClearCursor(id string) {
	r.mu.Lock()
	_, seen := r.last[id]
	delete(r.last, id)
	r.mu.Unlock()
	if seen {
		fmt.Printf("[cursor] %s cleared\n", id)
	}
}

func (r *terminalRenderer) SetSelection(id, name string, rng core.Range) {
	fmt.Printf("[selection] %s from %d:%d to %d:%d\n",
		name, rng.Start.Line, rng.Start.Column, rng.End.Line, rng.End.Column)
}

func (r *terminalRenderer) ClearSelection(id string) {}
