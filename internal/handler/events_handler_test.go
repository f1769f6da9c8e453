package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (c *console) dialEvents() *websocket.Conn {
	c.t.Helper()
	url := "ws" + strings.TrimPrefix(c.server.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(c.t, err)
	resp.Body.Close()
	c.t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestEvents_RequiresSession(t *testing.T) {
	c := newConsole(t, nil)

	url := "ws" + strings.TrimPrefix(c.server.URL, "http") + "/api/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEvents_StreamsNotificationsUntilSignOut(t *testing.T) {
	c := newConsole(t, nil)
	c.login()
	conn := c.dialEvents()

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventSession, ev.Type)
	require.NotNil(t, ev.Session)
	assert.True(t, ev.Session.Authenticated)

	c.notices.Success(context.Background(), `Assistant "Test Bot" created`)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventNotification, ev.Type)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, notify.LevelSuccess, ev.Notification.Level)
	assert.Equal(t, `Assistant "Test Bot" created`, ev.Notification.Message)

	resp := c.json(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventSession, ev.Type)
	require.NotNil(t, ev.Session)
	assert.False(t, ev.Session.Authenticated)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
