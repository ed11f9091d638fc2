package http

import (
	"encoding/json"

	"github.com/codesync/codesync-server/internal/auth"
	"github.com/codesync/codesync-server/internal/core"
	"github.com/codesync/codesync-server/internal/proto"
)

func positionFromProto(p proto.Position) core.Position {
	return core.Position{Line: p.Line, Column: p.Column}
}

func positionToProto(p core.Position) proto.Position {
	return proto.Position{Line: p.Line, Column: p.Column}
}

func rangeFromProto(r proto.Range) core.Range {
	return core.Range{
		Start: core.Position{Line: r.StartLine, Column: r.StartColumn},
		End:   core.Position{Line: r.EndLine, Column: r.EndColumn},
	}
}

func rangeToProto(r core.Range) proto.Range {
	return proto.Range{
		StartLine:   r.Start.Line,
		StartColumn: r.Start.Column,
		EndLine:     r.End.Line,
		EndColumn:   r.End.Column,
	}
}

// inboundToCommand maps a wire message to a core command. A non-nil
// proto.Error means the message was understood but rejected; the connection
// stays up.
func inboundToCommand(verifier *auth.Verifier, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		name := join.Name
		if join.Token != "" {
			claims, err := verifier.Verify(join.Token)
			if err != nil {
				return nil, &proto.Error{Code: "invalid_token", Msg: "identity token rejected"}, nil
			}
			name = claims.DisplayName
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			Name: name,
		}, nil, nil
	case proto.InboundTypeCode:
		var code proto.CodeData
		if err := json.Unmarshal(inbound.Data, &code); err != nil {
			return nil, nil, err
		}
		if code.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandCodeChange,
			Room: code.Room,
			Text: code.Text,
		}, nil, nil
	case proto.InboundTypeLanguage:
		var lang proto.LanguageData
		if err := json.Unmarshal(inbound.Data, &lang); err != nil {
			return nil, nil, err
		}
		if lang.Room == "" || lang.Language == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room and language are required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandLanguageChange,
			Room:     lang.Room,
			Language: lang.Language,
		}, nil, nil
	case proto.InboundTypeCursor:
		var cursor proto.CursorData
		if err := json.Unmarshal(inbound.Data, &cursor); err != nil {
			return nil, nil, err
		}
		if cursor.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandCursorMove,
			Room:     cursor.Room,
			Position: positionFromProto(cursor.Position),
		}, nil, nil
	case proto.InboundTypeSelection:
		var sel proto.SelectionData
		if err := json.Unmarshal(inbound.Data, &sel); err != nil {
			return nil, nil, err
		}
		if sel.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind:  core.CommandSelectionChange,
			Room:  sel.Room,
			Range: rangeFromProto(sel.Range),
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventCodeUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCodeUpdate,
			Data: proto.EventCode{
				Room: event.Room,
				Text: event.Text,
			},
		}
	case core.EventLanguageUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLanguageUpdate,
			Data: proto.EventLanguage{
				Room:     event.Room,
				Language: event.Language,
			},
		}
	case core.EventMembershipUpdate:
		participants := make([]proto.ParticipantData, 0, len(event.Participants))
		for _, p := range event.Participants {
			participants = append(participants, proto.ParticipantData{ID: p.ID, Name: p.Name})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMembershipUpdate,
			Data: proto.EventMembership{
				Room:         event.Room,
				Participants: participants,
			},
		}
	case core.EventParticipantJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventParticipantJoined,
			Data:  proto.EventParticipant{Room: event.Room, Name: event.SenderName},
		}
	case core.EventParticipantLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventParticipantLeft,
			Data:  proto.EventParticipant{Room: event.Room, Name: event.SenderName},
		}
	case core.EventCursorUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCursorUpdate,
			Data: proto.EventCursor{
				Room:     event.Room,
				ID:       event.SenderID,
				Name:     event.SenderName,
				Position: positionToProto(event.Position),
			},
		}
	case core.EventSelectionUpdate:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSelectionUpdate,
			Data: proto.EventSelection{
				Room:  event.Room,
				ID:    event.SenderID,
				Name:  event.SenderName,
				Range: rangeToProto(event.Range),
			},
		}
	case core.EventCursorRemove:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventCursorRemove,
			Data:  proto.EventCursorGone{Room: event.Room, ID: event.SenderID},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
