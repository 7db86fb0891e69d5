package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

// WebSocketController streams game state to watchers and accepts moves.
type WebSocketController struct {
	manager *GameManager
	log     zerolog.Logger
}

// NewWebSocketController creates a websocket controller.
func NewWebSocketController(manager *GameManager, logger zerolog.Logger) *WebSocketController {
	return &WebSocketController{manager: manager, log: logger}
}

// Upgrade rejects requests that are not websocket upgrades.
func (wsc *WebSocketController) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := wsc.manager.session(c.Params("id")); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Next()
}

// HandleConnection serves one websocket client until it disconnects.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("id")
	log := wsc.log.With().Str("game", gameID).Logger()

	if err := wsc.manager.RegisterConnection(gameID, c); err != nil {
		log.Warn().Err(err).Msg("failed to register connection")
		c.Close()
		return
	}
	defer wsc.manager.UnregisterConnection(gameID, c)
	log.Debug().Msg("websocket connected")

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("websocket closed")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			wsc.sendError(gameID, c, fmt.Errorf("parse message: %w", err))
			continue
		}
		if err := wsc.handleMessage(gameID, msg); err != nil {
			wsc.sendError(gameID, c, err)
		}
	}
}

// handleMessage applies a client message. The resulting state reaches the
// client through the session broadcast.
func (wsc *WebSocketController) handleMessage(gameID string, msg Message) error {
	switch msg.Type {
	case MessageTypeMove:
		var req MoveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		_, err := wsc.manager.HandleMove(context.Background(), gameID, req)
		return err
	case MessageTypeEngine:
		_, err := wsc.manager.EngineMove(context.Background(), gameID)
		return err
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(gameID string, c *websocket.Conn, err error) {
	payload, _ := json.Marshal(err.Error())
	if werr := wsc.manager.writeTo(gameID, c, Message{Type: MessageTypeError, Payload: payload}); werr != nil {
		wsc.log.Debug().Err(werr).Msg("failed to send error")
	}
}

func writeState(c *websocket.Conn, st GameState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.WriteJSON(Message{Type: MessageTypeGameState, Payload: payload})
}
