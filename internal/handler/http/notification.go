package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type EventHandler interface {
	GetStreamToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type eventHandlerImpl struct {
	publisher  notification.Publisher
	jwtService jwt.Service
}

func NewEventHandler(publisher notification.Publisher, jwtService jwt.Service) EventHandler {
	return &eventHandlerImpl{
		publisher:  publisher,
		jwtService: jwtService,
	}
}

// GetStreamToken exchanges an access token for a short-lived stream token
func (h *eventHandlerImpl) GetStreamToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.HandleError(w, jwt.ErrInvalidToken)
		return
	}

	token, expiresIn, err := h.jwtService.GenerateStreamToken(claims)
	if err != nil {
		response.InternalServerError(w, "Failed to generate stream token")
		return
	}

	response.Success(w, StreamTokenResponse{Token: token, ExpiresIn: expiresIn})
}

// Stream serves lifecycle events over SSE. Admins receive every event,
// employees only their own.
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot set headers, so the token travels in the query string
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	claims, err := h.jwtService.ValidateStreamToken(tokenStr)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	topic := claims.EmployeeID
	if claims.IsAdmin {
		topic = notification.TopicAll
	}
	if topic == "" {
		response.Forbidden(w, "No employee profile is linked to this account")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.publisher.Subscribe(r.Context(), topic)
	defer cleanup()

	if err := sse.WriteMessage(w, "connected", map[string]string{"status": "connected", "topic": topic}); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteEvent(w, event); err != nil {
				slog.Warn("event stream write failed", "topic", topic, "event_id", event.ID, "error", err)
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if err := sse.WriteMessage(w, "ping", map[string]int64{"timestamp": time.Now().Unix()}); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
