package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/keys"
	"github.com/yami-inc/ai-death-game/internal/logging"
	"github.com/gin-gonic/gin"
)

type createGameRequest struct {
	ParticipantCount int `json:"participant_count"`
}

// CreateGame starts a new session from the configured character pool.
// The generative API credential arrives in the X-Genai-Key header; it
// is handed to the driver and never logged or stored.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req createGameRequest
	// The body is optional; an empty body uses the configured defaults.
	_ = c.ShouldBindJSON(&req)

	count := h.participantCount
	if req.ParticipantCount > 0 {
		count = req.ParticipantCount
	}
	if count > len(h.pool) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrTooManyParticipants})
		return
	}
	apiKey := resolveAPIKey(c.GetHeader(constants.HeaderGenaiKey))
	if apiKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingAPIKey})
		return
	}

	d := h.sessions.Create(h.pool, count, apiKey)
	snap := d.Snapshot()
	names := make([]string, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		names = append(names, a.Name)
	}
	logging.Info("Game created", logging.Fields{
		constants.LogFieldSessionID: snap.SessionID,
		"roster":                    keys.RosterKey(names),
		constants.LogFieldCount:     len(names),
	})
	c.JSON(http.StatusCreated, snap)
}

// GetGame returns the current session snapshot.
func (h *GameHandler) GetGame(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	c.Header(constants.CacheControlHeader, constants.CacheControlNoCache)
	c.JSON(http.StatusOK, d.Snapshot())
}

// Advance handles the user's tap. States that do not accept advance
// input ignore it; the response is always the resulting snapshot.
func (h *GameHandler) Advance(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	if d.Done() {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrGameAlreadyOver})
		return
	}
	d.Advance()
	c.JSON(http.StatusOK, d.Snapshot())
}

// TypingComplete is the renderer's typewriter completion callback.
func (h *GameHandler) TypingComplete(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	d.TypingComplete()
	c.JSON(http.StatusOK, d.Snapshot())
}

type voteRequest struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id"`
}

// SubmitVote records the gamemaster's vote while the vote modal is open.
func (h *GameHandler) SubmitVote(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	uv := game.UserVote{Type: game.UserVoteType(req.Type), TargetID: req.TargetID}
	if err := d.SubmitUserVote(uv); err != nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.Snapshot())
}

type interventionRequest struct {
	Text string `json:"text"`
	Skip bool   `json:"skip"`
}

// Intervention submits or skips the gamemaster's free-text instruction.
func (h *GameHandler) Intervention(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	var req interventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	var err error
	if req.Skip {
		err = d.SkipIntervention()
	} else {
		err = d.SubmitIntervention(req.Text)
	}
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.Snapshot())
}

type timerRequest struct {
	Name string `json:"name"`
}

// TimerElapsed lets the renderer report an animation timer firing. It
// performs the same transition as a manual advance for that timer.
func (h *GameHandler) TimerElapsed(c *gin.Context) {
	d, ok := h.driverFor(c.Param("gameID"), c.GetHeader(constants.HeaderGenaiKey))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	var req timerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrTimerNameRequired})
		return
	}
	d.TimerElapsed(req.Name)
	c.JSON(http.StatusOK, d.Snapshot())
}

// EndGame removes a session before its natural end.
func (h *GameHandler) EndGame(c *gin.Context) {
	id := c.Param("gameID")
	if _, ok := h.sessions.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrGameNotFound})
		return
	}
	h.sessions.Remove(id)
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "removed"})
}

// ListResults returns recent terminal snapshots, newest first.
func (h *GameHandler) ListResults(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusOK, gin.H{"results": []struct{}{}, "finished_last_24h": 0})
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	recs, err := h.repo.ListResults(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchResults})
		return
	}
	recent, err := h.repo.CountResultsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchResults})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":           recs,
		"finished_last_24h": recent,
	})
}
