package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/hireprep/hireprep/internal/events"
	"github.com/hireprep/hireprep/internal/services"
	"github.com/hireprep/hireprep/internal/utils"
)

// WSHandler fans interview events out to open tabs. A tab that observes a
// completed/cancelled status must treat the session as ended by another
// actor and stop driving it.
type WSHandler struct {
	interviews services.InterviewService
	redis      *redis.Client
	upgrader   websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		redis:      rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // cancel|ping
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	interviewID := c.Param("interview_id")
	if interviewID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.InterviewWS", "missing interview_id", nil))
		return
	}

	// ownership check before upgrading
	session, err := h.interviews.Get(c.Request.Context(), userID, interviewID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// current status first so a resuming tab can stop immediately if the
	// session already ended elsewhere
	snap, _ := json.Marshal(events.Event{
		Type:        "status",
		InterviewID: interviewID,
		Status:      session.Status,
		At:          time.Now().UTC(),
	})
	if err := wc.writeText(snap); err != nil {
		return
	}

	pubsub := h.redis.Subscribe(ctx, events.Channel(interviewID))
	defer pubsub.Close()

	// reader: client control messages
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "cancel":
				if _, cerr := h.interviews.Cancel(ctx, userID, interviewID); cerr != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"CONFLICT","message":"could not cancel"}`))
					continue
				}
				return
			case "ping":
				_ = wc.writeText([]byte(`{"type":"pong"}`))
			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis pub/sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
