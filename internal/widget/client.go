package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	wsapi "github.com/optm-media/site-assistant/backend/internal/handler/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
)

// Conn is a live websocket to one conversation.
type Conn struct {
	ws        *websocket.Conn
	sessionID string
	frames    chan wsapi.Outbound

	writeMu sync.Mutex
	done    chan struct{}
	err     error
}

// Connect opens a conversation on the server at baseURL and attaches to its
// websocket. An empty scriptID selects the server default.
func Connect(ctx context.Context, baseURL, scriptID string, httpClient *http.Client) (*Conn, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")

	body, err := json.Marshal(map[string]string{"scriptId": scriptID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/conversations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create conversation: unexpected status %d", resp.StatusCode)
	}
	var snap convservice.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}

	wsURL, err := websocketURL(base, snap.Session.ID)
	if err != nil {
		return nil, err
	}
	ws, wsResp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	if wsResp != nil && wsResp.Body != nil {
		wsResp.Body.Close()
	}

	c := &Conn{
		ws:        ws,
		sessionID: snap.Session.ID,
		frames:    make(chan wsapi.Outbound, 64),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func websocketURL(base, sessionID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/conversations/" + url.PathEscape(sessionID) + "/ws"
	return u.String(), nil
}

// SessionID is the conversation this connection drives.
func (c *Conn) SessionID() string { return c.sessionID }

// Frames delivers server frames until the connection closes.
func (c *Conn) Frames() <-chan wsapi.Outbound { return c.frames }

// Err reports why the frame channel closed.
func (c *Conn) Err() error {
	<-c.done
	return c.err
}

// Send writes one inbound event.
func (c *Conn) Send(kind string, data any) error {
	msg := wsapi.Inbound{Type: kind}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = raw
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(msg)
}

// Close ends the websocket.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer close(c.frames)
	for {
		var f wsapi.Outbound
		if err := c.ws.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			return
		}
		c.frames <- f
	}
}
