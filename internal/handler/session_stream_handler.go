package handler

import (
	"encoding/json"
	"errors"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/service"
	internalWS "ai-oneshot-console/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type SessionStreamHandler struct {
	service service.ISessionService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewSessionStreamHandler(service service.ISessionService, hub *internalWS.Hub, log logger.ILogger) *SessionStreamHandler {
	return &SessionStreamHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs streams every view change of a session to the peer, starting
// with the current view.
func (h *SessionStreamHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := c.Params("id")
	view, err := h.service.GetSession(c.UserContext(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	initial, err := json.Marshal(fiber.Map{
		"type": "session",
		"data": view,
	})
	if err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SessionStreamHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, initial)
		h.logger.Info("SessionStreamHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *SessionStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/oneshot/v1/sessions/:id/ws", h.ServeWs)
}
