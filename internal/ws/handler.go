package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swiftloan/backend/internal/tracking"
	"golang.org/x/net/websocket"
)

const (
	actionTrack = "track"
	actionStop  = "stop"
)

type Handler struct {
	store            tracking.Store
	hub              *Hub
	logger           *slog.Logger
	reconcileTimeout time.Duration
}

func NewHandler(store tracking.Store, hub *Hub, logger *slog.Logger, reconcileTimeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, hub: hub, logger: logger, reconcileTimeout: reconcileTimeout}
}

type clientMessage struct {
	Action            string `json:"action"`
	ApplicationNumber string `json:"application_number"`
}

type serverMessage struct {
	Event string        `json:"event"`
	Data  tracking.View `json:"data"`
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	websocket.Handler(func(conn *websocket.Conn) {
		client := NewClient(conn)
		h.hub.Register(client)
		go h.writer(client)
		h.reader(client)
	}).ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) reader(client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	session := tracking.NewSession(h.store,
		tracking.WithListener(func(ev tracking.Event) {
			h.emit(client, string(ev.Kind), tracking.NewView(ev.Snapshot))
		}),
		tracking.WithLogger(h.logger.With("conn_id", client.id)),
		tracking.WithReconcileTimeout(h.reconcileTimeout),
	)
	defer func() {
		cancel()
		session.Shutdown()
		h.hub.Unregister(client)
		client.close()
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			h.emitError(client, "Malformed message.")
			continue
		}
		switch strings.ToLower(strings.TrimSpace(msg.Action)) {
		case actionTrack:
			number := msg.ApplicationNumber
			go func() {
				if err := session.Submit(ctx, number); err != nil {
					h.emitError(client, submitErrorMessage(err))
				}
			}()
		case actionStop:
			session.Close()
		default:
			h.emitError(client, "Unknown action.")
		}
	}
}

func (h *Handler) writer(client *Client) {
	for payload := range client.out {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}

func (h *Handler) emit(client *Client, event string, view tracking.View) {
	payload, err := json.Marshal(serverMessage{Event: event, Data: view})
	if err != nil {
		h.logger.Error("encode tracking event failed", "event", event, "err", err)
		return
	}
	client.send(payload)
}

// emitError reports a rejected request without touching the session state.
func (h *Handler) emitError(client *Client, message string) {
	h.emit(client, string(tracking.EventFailed), tracking.View{Message: message})
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, tracking.ErrEmptyIdentifier):
		return "Please enter an application number."
	case errors.Is(err, tracking.ErrLookupInFlight):
		return "A lookup is already in progress."
	case errors.Is(err, tracking.ErrSessionClosed):
		return "Tracking was stopped."
	default:
		return "Unable to track this application."
	}
}
