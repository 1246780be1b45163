// internal/service/notification/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"petshop/internal/pkg/session"
	"petshop/internal/service/notification/application"
	"petshop/internal/service/notification/domain"
)

// NotificationHandler 封装了通知的 HTTP 处理器
type NotificationHandler struct {
	service    *application.NotificationService
	sessionMgr *session.Manager
}

func NewNotificationHandler(service *application.NotificationService, sessionMgr *session.Manager) *NotificationHandler {
	return &NotificationHandler{service: service, sessionMgr: sessionMgr}
}

func (h *NotificationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/notifications", session.RequireAuth(h.sessionMgr, h.handleList))
	mux.HandleFunc("/notifications/mark_read", session.RequireAuth(h.sessionMgr, h.handleMarkRead))
	mux.HandleFunc("/notifications/mark_all_read", session.RequireAuth(h.sessionMgr, h.handleMarkAllRead))
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	notifications, err := h.service.List(ctx, sess.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, notifications)
}

func (h *NotificationHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(ctx, sess.Username, req.ID); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func (h *NotificationHandler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sess, _ := session.FromContext(r.Context())

	if err := h.service.MarkAllRead(ctx, sess.Username); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
