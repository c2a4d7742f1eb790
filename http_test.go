package mdpresent

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*PresenterServer, *Session) {
	session, _ := newTestSession(t, threeSlides)
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	server, err := NewPresenterServer(context.Background(), session, "127.0.0.1:0", log)
	require.NoError(t, err)
	require.NoError(t, server.Run())
	t.Cleanup(func() { server.Close() })
	return server, session
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, buf
}

func TestServerState(t *testing.T) {
	server, _ := newTestServer(t)
	base := "http://" + server.Addr()

	resp, body := doRequest(t, http.MethodGet, base+"/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "editing", snap["mode"])
	assert.EqualValues(t, 3, snap["totalSlides"])
	assert.Equal(t, "idle", snap["timer"].(map[string]interface{})["state"])
}

func TestServerCommands(t *testing.T) {
	server, session := newTestServer(t)
	base := "http://" + server.Addr()

	resp, _ := doRequest(t, http.MethodPost, base+"/api/commands/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, session.IsPresenting())

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/goto?index=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, session.CurrentIndex())

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/goto?index=9", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, session.CurrentIndex())

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/goto?index=x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/goto", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doRequest(t, http.MethodPost, base+"/api/commands/explode", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "unknown command")

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/blackout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, session.Controls().Blackout)
}

func TestServerMarkdown(t *testing.T) {
	server, session := newTestServer(t)
	base := "http://" + server.Addr()

	resp, body := doRequest(t, http.MethodPut, base+"/api/markdown", "# A\n---\n# B")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pres := &Presentation{}
	require.NoError(t, json.Unmarshal(body, pres))
	assert.Equal(t, 2, pres.TotalSlides)
	assert.Equal(t, 2, session.Presentation().TotalSlides)

	_, body = doRequest(t, http.MethodGet, base+"/api/markdown", "")
	assert.Equal(t, "# A\n---\n# B", string(body))

	resp, _ = doRequest(t, http.MethodPost, base+"/api/commands/reset-markdown", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, session.Presentation().TotalSlides)
}

func TestServerPages(t *testing.T) {
	server, _ := newTestServer(t)
	base := "http://" + server.Addr()

	resp, body := doRequest(t, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `id="slide-0"`)
	assert.Contains(t, string(body), `class="audience"`)

	resp, body = doRequest(t, http.MethodGet, base+"/presenter", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `class="presenter"`)

	resp, _ = doRequest(t, http.MethodGet, base+"/assets/deck.css", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) WebSocketMessage {
	conn.SetReadDeadline(time.Now().Add(time.Second * 5))
	for {
		msg := WebSocketMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocketControl(t *testing.T) {
	server, session := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readUntil(t, conn, MessageHello)
	assert.NotEmpty(t, hello.ID)
	state := readUntil(t, conn, MessageState)
	require.NotNil(t, state.State)
	assert.Equal(t, ModeEditing, state.State.Mode)

	// keys are ignored while editing
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessageKey, Key: "ArrowRight"}))
	reply := readUntil(t, conn, MessageKey)
	assert.False(t, reply.PreventDefault)
	assert.Equal(t, 0, session.CurrentIndex())

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessageCommand, Name: "start"}))
	state = readUntil(t, conn, MessageState)
	assert.True(t, state.State.Presenting)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessageKey, Key: "ArrowRight"}))
	state = readUntil(t, conn, MessageState)
	assert.Equal(t, 1, state.State.CurrentIndex)
	assert.Equal(t, "Two", state.State.Current.Content)
	assert.Equal(t, "notes for two", state.State.Current.SpeakerNotes)
	reply = readUntil(t, conn, MessageKey)
	assert.True(t, reply.PreventDefault)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessageCommand, Name: "nope"}))
	errMsg := readUntil(t, conn, MessageError)
	assert.Contains(t, errMsg.Error, "unknown command")

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: MessageKey, Key: "Escape"}))
	state = readUntil(t, conn, MessageState)
	assert.False(t, state.State.Presenting)
}

func TestWebSocketBroadcast(t *testing.T) {
	server, session := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageState)

	require.Eventually(t, func() bool { return server.hub.count() == 1 }, time.Second, 10*time.Millisecond)
	session.UpdateMarkdown("# Replaced")
	state := readUntil(t, conn, MessageState)
	assert.Equal(t, 1, state.State.TotalSlides)
	assert.Equal(t, "# Replaced", state.State.Current.Content)
}

func TestWebSocketDropsStaleState(t *testing.T) {
	server, session := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, MessageState)
	require.Eventually(t, func() bool { return server.hub.count() == 1 }, time.Second, 10*time.Millisecond)

	stale := session.Snapshot()
	fresh := session.Snapshot()
	fresh.CurrentIndex = 2
	server.hub.broadcastState(fresh)
	server.hub.broadcastState(stale)
	session.Start()

	state := readUntil(t, conn, MessageState)
	assert.Equal(t, fresh.Seq, state.State.Seq)
	assert.Equal(t, 2, state.State.CurrentIndex)
	state = readUntil(t, conn, MessageState)
	assert.True(t, state.State.Presenting)
	assert.Greater(t, state.State.Seq, fresh.Seq)
}
