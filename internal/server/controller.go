package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
)

// GameController serves the REST game API.
type GameController struct {
	manager *GameManager
}

// NewGameController creates a game controller.
func NewGameController(manager *GameManager) *GameController {
	return &GameController{manager: manager}
}

// CreateGame handles POST /api/games.
func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req CreateGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
	}
	st, err := gc.manager.CreateGame(c.UserContext(), req)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

// GetGameState handles GET /api/games/:id.
func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	st, err := gc.manager.GetGameState(c.Params("id"))
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(st)
}

// SelectPiece handles GET /api/games/:id/moves/:square.
func (gc *GameController) SelectPiece(c *fiber.Ctx) error {
	sq, err := board.ParseSquare(c.Params("square"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	resp, err := gc.manager.Select(c.Params("id"), sq)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(resp)
}

// MakeMove handles POST /api/games/:id/moves.
func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	st, err := gc.manager.HandleMove(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(st)
}

// EngineMove handles POST /api/games/:id/engine.
func (gc *GameController) EngineMove(c *fiber.Ctx) error {
	st, err := gc.manager.EngineMove(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(st)
}

// Evaluate handles POST /api/evaluate.
func (gc *GameController) Evaluate(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	evals, err := gc.manager.Evaluate(c.UserContext(), req)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{"evaluations": evals})
}

// DeleteGame handles DELETE /api/games/:id.
func (gc *GameController) DeleteGame(c *fiber.Ctx) error {
	if err := gc.manager.DeleteGame(c.Params("id")); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListGames handles GET /api/games.
func (gc *GameController) ListGames(c *fiber.Ctx) error {
	games, err := gc.manager.ListGames()
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{"games": games})
}

// Stats handles GET /api/stats.
func (gc *GameController) Stats(c *fiber.Ctx) error {
	stats, err := gc.manager.Stats()
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(stats)
}

// GetPreferences handles GET /api/preferences.
func (gc *GameController) GetPreferences(c *fiber.Ctx) error {
	prefs, err := gc.manager.Preferences()
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(prefs)
}

// SavePreferences handles PUT /api/preferences.
func (gc *GameController) SavePreferences(c *fiber.Ctx) error {
	var prefs storage.UserPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if err := gc.manager.SavePreferences(&prefs); err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(&prefs)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, board.ErrInvalidSquare),
		errors.Is(err, board.ErrInvalidFEN):
		return fiber.StatusBadRequest
	case errors.Is(err, board.ErrIllegalMove),
		errors.Is(err, board.ErrNoPiece),
		errors.Is(err, game.ErrNotYourPiece):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, game.ErrGameOver):
		return fiber.StatusConflict
	case errors.Is(err, ErrNoStore):
		return fiber.StatusNotImplemented
	}
	return fiber.StatusInternalServerError
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
