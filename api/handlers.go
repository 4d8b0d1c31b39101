package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/hub"
)

// Mutator applies mutation intents against the authoritative store and
// hands out snapshot subscriptions consistent with it.
type Mutator interface {
	Observe(subscribe func() (string, <-chan []byte)) (string, <-chan []byte, []domain.Task)
	Create(payload map[string]any) domain.Result
	Update(payload map[string]any) domain.Result
	Move(payload map[string]any) domain.Result
	Delete(payload map[string]any) domain.Result
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, svc Mutator, h *hub.Hub, logger *log.Logger) {
	e.GET("/ws", serveWS(svc, h, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
