// Package health содержит служебные обработчики: проверку живости,
// описание сервиса и ответ на неизвестный маршрут.
package health

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/omniclass/internal/http/response"
)

// Handler служебные обработчики.
type Handler struct {
	now func() time.Time
}

// New создаёт Handler.
func New() *Handler {
	return &Handler{now: time.Now}
}

// Health godoc
// @Summary Проверка живости
// @Tags Service
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Root описание сервиса и основных групп маршрутов.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"message": "OmniClass AI Backend API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"health":        "/health",
			"auth":          "/api/auth",
			"users":         "/api/users",
			"subscriptions": "/api/subscriptions",
			"payments":      "/api/payments",
			"subjects":      "/api/subjects",
			"chat":          "/api/chat",
			"video":         "/api/video",
			"instructors":   "/api/instructors",
			"admin":         "/api/admin",
			"files":         "/api/files",
			"docs":          "/docs/index.html",
			"metrics":       "/metrics",
		},
	})
}

// NotFound ответ на неизвестный маршрут.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, r, http.StatusNotFound, "Route not found")
}
