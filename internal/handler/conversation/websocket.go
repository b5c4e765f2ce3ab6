package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	convmodel "github.com/optm-media/site-assistant/backend/internal/model/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
	"github.com/optm-media/site-assistant/backend/internal/service/typing"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Inbound event types.
const (
	InText         = "text"
	InOption       = "option"
	InField        = "field"
	InChangeOption = "change_option"
	InSubmit       = "submit"
	InNewChat      = "new_chat"
	InSnapshot     = "snapshot"
)

// Outbound event types.
const (
	OutSnapshot = "snapshot"
	OutMessage  = "message"
	OutTyping   = "typing"
	OutView     = "view"
	OutError    = "error"
)

// Inbound is one event sent by a widget.
type Inbound struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Outbound is one frame pushed to a widget.
type Outbound struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ErrorData is the payload of an error frame.
type ErrorData struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TextData, OptionData and FieldData are inbound payloads.
type TextData struct {
	Text string `json:"text"`
}

type OptionData struct {
	Option string `json:"option"`
}

type FieldData struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snap, err := h.svc.Snapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithField("session_id", sessionID)
	log.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	out := &sender{conn: conn, sessionID: sessionID}
	if err := out.send(OutSnapshot, snap); err != nil {
		return
	}

	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			out.sendError("session mismatch", http.StatusBadRequest)
			continue
		}

		if err := h.dispatch(ctx, out, sessionID, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.WithError(err).Warn("websocket write failed")
			return
		}
	}
}

// dispatch runs one inbound event. Only write failures are returned;
// controller errors are reported to the widget as error frames.
func (h *Handler) dispatch(ctx context.Context, out *sender, sessionID string, msg Inbound) error {
	var (
		turn convservice.Turn
		err  error
	)

	switch msg.Type {
	case InSnapshot:
		snap, err := h.svc.Snapshot(ctx, sessionID)
		if err != nil {
			return out.sendError(err.Error(), StatusFor(err))
		}
		return out.send(OutSnapshot, snap)
	case InText:
		var data TextData
		if err := decodeData(msg.Data, &data); err != nil {
			return out.sendError("invalid payload", http.StatusBadRequest)
		}
		turn, err = h.svc.SendText(ctx, sessionID, data.Text)
	case InOption:
		var data OptionData
		if err := decodeData(msg.Data, &data); err != nil {
			return out.sendError("invalid payload", http.StatusBadRequest)
		}
		turn, err = h.svc.SelectOption(ctx, sessionID, data.Option)
	case InField:
		var data FieldData
		if err := decodeData(msg.Data, &data); err != nil {
			return out.sendError("invalid payload", http.StatusBadRequest)
		}
		view, err := h.svc.UpdateField(ctx, sessionID, convmodel.Field(data.Field), data.Value)
		if err != nil {
			return out.sendError(err.Error(), StatusFor(err))
		}
		return out.send(OutView, view)
	case InChangeOption:
		turn, err = h.svc.ChangeOption(ctx, sessionID)
	case InSubmit:
		turn, err = h.svc.Submit(ctx, sessionID)
	case InNewChat:
		turn, err = h.svc.NewChat(ctx, sessionID)
	default:
		return out.sendError("unsupported message type: "+msg.Type, http.StatusBadRequest)
	}

	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.log.WithError(err).WithField("session_id", sessionID).Error("conversation event failed")
			return out.sendError("internal error", status)
		}
		return out.sendError(err.Error(), status)
	}

	return h.player.Play(ctx, turn, func(ev typing.Event) error {
		switch ev.Type {
		case typing.EventTyping:
			return out.send(OutTyping, ev.Message)
		case typing.EventView:
			return out.send(OutView, ev.View)
		default:
			return out.send(OutMessage, ev.Message)
		}
	})
}

// sender writes frames for one connection. Only the read loop goroutine
// writes data frames; pings go through WriteControl.
type sender struct {
	conn      *websocket.Conn
	sessionID string
}

func (s *sender) send(kind string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(Outbound{
		Type:      kind,
		SessionID: s.sessionID,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	})
}

func (s *sender) sendError(message string, status int) error {
	return s.send(OutError, ErrorData{Message: message, Status: status})
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
