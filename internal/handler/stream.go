package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/staffdir/internal/domain"
	"github.com/aryan0dhankhar/staffdir/internal/service"
)

const (
	pingInterval = 15 * time.Second
	writeWait    = 5 * time.Second
)

// StreamMessage is one pushed view of the directory
type StreamMessage struct {
	Version   uint64            `json:"version"`
	Total     int               `json:"total"`
	Employees []domain.Employee `json:"employees"`
	Error     string            `json:"error,omitempty"`
}

// StreamHandler pushes the filtered directory over a websocket after every
// change
type StreamHandler struct {
	directory      *service.Directory
	logger         *slog.Logger
	allowedOrigins []string
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(directory *service.Directory, logger *slog.Logger, allowedOrigins []string) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		directory:      directory,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (h *StreamHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin.
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/employees. Query parameters are the same as for
// GET /api/employees and are fixed for the life of the connection.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q, err := domain.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err, "invalid query", h.logger)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	updates, unsubscribe := h.directory.Subscribe()
	defer unsubscribe()

	// The client never sends data; reading surfaces its close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	if err := h.push(ws, q); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			h.logger.Debug("websocket closed by client")
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-updates:
			if err := h.push(ws, q); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) push(ws *websocket.Conn, q domain.Query) error {
	view := h.directory.View(q)
	msg := StreamMessage{
		Version:   view.Version,
		Total:     view.Total,
		Employees: view.Records,
	}
	if view.Err != nil {
		msg.Error = "failed to load directory"
	}

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			h.logger.Debug("websocket write failed", slog.String("error", err.Error()))
		}
		return err
	}
	return nil
}
