package api

import (
	"os"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/orchestrator"
	"github.com/yami-inc/ai-death-game/internal/session"
	"github.com/yami-inc/ai-death-game/internal/storage"
)

// GameHandler groups all game-related HTTP handlers.
type GameHandler struct {
	sessions         *session.Manager
	repo             storage.Repository
	pool             []game.Personality
	participantCount int
}

// NewGameHandler creates a new GameHandler with the given session
// manager, result repository and configured character pool.
func NewGameHandler(sessions *session.Manager, repo storage.Repository, pool []game.Personality, participantCount int) *GameHandler {
	return &GameHandler{
		sessions:         sessions,
		repo:             repo,
		pool:             pool,
		participantCount: participantCount,
	}
}

// driverFor resolves the session driver for the gameID route param and
// refreshes its API credential from the request header.
func (h *GameHandler) driverFor(sessionID, apiKey string) (*orchestrator.Driver, bool) {
	d, ok := h.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	d.SetAPIKey(resolveAPIKey(apiKey))
	return d, true
}

// resolveAPIKey prefers the per-request header; the env var is a local
// development fallback only.
func resolveAPIKey(headerKey string) string {
	if headerKey != "" {
		return headerKey
	}
	return os.Getenv(constants.EnvGenaiAPIKey)
}
