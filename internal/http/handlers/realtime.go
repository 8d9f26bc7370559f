package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		Log:     log.With("handler", "RealtimeHandler"),
		Hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /api/sse/stream subscribes the session to its user's channel, and
// admins to the admin channel as well. A second stream for the same
// session replaces the first.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	sessionID := rd.SessionID
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}

	client := h.Hub.NewSSEClient(rd.UserID)
	h.mu.Lock()
	if existing, ok := h.clients[sessionID]; ok {
		h.Hub.CloseClient(existing)
	}
	h.clients[sessionID] = client
	h.mu.Unlock()

	h.Hub.AddChannel(client, rd.UserID.String())
	if rd.IsAdmin() {
		h.Hub.AddChannel(client, realtime.AdminChannel)
	}
	h.Log.Info("SSE stream open", "user_id", rd.UserID, "session_id", sessionID, "admin", rd.IsAdmin())

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[sessionID] == client {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()
	h.Hub.CloseClient(client)
}
