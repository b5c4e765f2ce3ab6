package conversation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	convmodel "github.com/optm-media/site-assistant/backend/internal/model/conversation"
	convservice "github.com/optm-media/site-assistant/backend/internal/service/conversation"
)

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/conversations/" + sessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

// readUntilView collects frames up to and including the next view frame.
func readUntilView(t *testing.T, conn *websocket.Conn) []Outbound {
	t.Helper()
	var frames []Outbound
	for {
		f := read(t, conn)
		frames = append(frames, f)
		if f.Type == OutView || f.Type == OutError {
			return frames
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, kind string, data any) {
	t.Helper()
	msg := Inbound{Type: kind}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func TestWebSocketConversation(t *testing.T) {
	r := setupRouter(&stubSubmitter{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	id := createSession(t, r).Session.ID
	conn := dial(t, srv, id)

	first := read(t, conn)
	require.Equal(t, OutSnapshot, first.Type)
	var snap convservice.Snapshot
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	assert.Equal(t, id, snap.Session.ID)

	send(t, conn, InText, TextData{Text: "hello"})
	frames := readUntilView(t, conn)

	// user message, typing frames from "" to the full reply, final message, view
	require.GreaterOrEqual(t, len(frames), 5)
	assert.Equal(t, OutMessage, frames[0].Type)
	assert.Equal(t, OutTyping, frames[1].Type)

	var empty convmodel.Message
	require.NoError(t, json.Unmarshal(frames[1].Data, &empty))
	assert.Empty(t, empty.Text)
	assert.True(t, empty.IsTyping)

	var final convmodel.Message
	require.NoError(t, json.Unmarshal(frames[len(frames)-2].Data, &final))
	assert.Equal(t, "Hi, what are you here for?", final.Text)
	assert.False(t, final.IsTyping)

	var view convmodel.View
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Data, &view))
	assert.Equal(t, convmodel.StateOptionMenu, view.State)

	send(t, conn, InOption, OptionData{Option: "Job/Internship Opportunities"})
	frames = readUntilView(t, conn)
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Data, &view))
	assert.Equal(t, convmodel.StateJobForm, view.State)

	send(t, conn, InField, FieldData{Field: "jobRole", Value: "Designer"})
	f := read(t, conn)
	assert.Equal(t, OutView, f.Type)
}

func TestWebSocketReportsErrors(t *testing.T) {
	r := setupRouter(&stubSubmitter{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, createSession(t, r).Session.ID)
	read(t, conn)

	send(t, conn, InNewChat, nil)
	f := read(t, conn)
	require.Equal(t, OutError, f.Type)
	var data ErrorData
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, http.StatusConflict, data.Status)

	send(t, conn, "dance", nil)
	f = read(t, conn)
	require.Equal(t, OutError, f.Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: InText, Data: json.RawMessage(`"not an object"`)}))
	f = read(t, conn)
	require.Equal(t, OutError, f.Type)

	require.NoError(t, conn.WriteJSON(Inbound{Type: InSnapshot, SessionID: "other"}))
	f = read(t, conn)
	require.Equal(t, OutError, f.Type)

	send(t, conn, InSnapshot, nil)
	f = read(t, conn)
	assert.Equal(t, OutSnapshot, f.Type)
}

func TestWebSocketUnknownSession(t *testing.T) {
	r := setupRouter(&stubSubmitter{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/conversations/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
