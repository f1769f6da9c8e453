package handler

import (
	"net/http"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/notify"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	eventsWriteWait = 10 * time.Second
	eventsPongWait  = 60 * time.Second
)

// Event is one message on the console event stream.
type Event struct {
	Type         string               `json:"type"`
	Session      *StatusResponse      `json:"session,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Event types.
const (
	EventSession      = "session"
	EventNotification = "notification"
)

// EventsHandler pushes notifications to the console as they are recorded,
// so toasts appear without polling.
type EventsHandler struct {
	auth      *AuthHandler
	notices   *notify.Recorder
	upgrader  websocket.Upgrader
	pingEvery time.Duration
}

// NewEventsHandler creates a new events handler. Browser connections are
// accepted from the allowed CORS origins only.
func NewEventsHandler(sessions SessionService, notices *notify.Recorder, allowedOrigins []string, pingEvery time.Duration) *EventsHandler {
	if pingEvery <= 0 {
		pingEvery = eventsPongWait * 9 / 10
	}
	return &EventsHandler{
		auth:    NewAuthHandler(sessions),
		notices: notices,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(allowedOrigins, origin) != ""
			},
		},
		pingEvery: pingEvery,
	}
}

// Stream godoc
// @Summary Console event stream
// @Description Websocket carrying the session status on connect and every notification after it.
// The stream ends with a session event when the operator is signed out.
// @Tags console
// @Router /api/events [get]
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(ctx, "event stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	notes, cancel := h.notices.Subscribe(16)
	defer cancel()

	// Reads only serve control frames; a read error means the client left.
	gone := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev Event) bool {
		conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			logger.Debug(ctx, "event stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	status := h.auth.status()
	if !send(Event{Type: EventSession, Session: &status}) {
		return
	}
	logger.Info(ctx, "event stream opened")

	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notes:
			if !ok {
				return
			}
			if !send(Event{Type: EventNotification, Notification: &n}) {
				return
			}
		case <-ticker.C:
			if st := h.auth.status(); !st.Authenticated && !st.Loading {
				send(Event{Type: EventSession, Session: &st})
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "signed out"),
					time.Now().Add(eventsWriteWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			logger.Info(ctx, "event stream closed")
			return
		case <-ctx.Done():
			return
		}
	}
}

// SetupEventsRoutes sets up the event stream route
func (h *EventsHandler) SetupEventsRoutes(router *mux.Router) {
	router.HandleFunc("/events", h.Stream).Methods("GET")
}
