// Package session owns the live game sessions: creation, lookup and
// idle expiry. One Driver exists per session for its whole life.
package session

import (
	"sync"
	"time"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/engine"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/genaiclient"
	"github.com/yami-inc/ai-death-game/internal/logging"
	"github.com/yami-inc/ai-death-game/internal/orchestrator"
	"github.com/yami-inc/ai-death-game/internal/provider"
	"github.com/yami-inc/ai-death-game/internal/storage"
	"github.com/yami-inc/ai-death-game/internal/timers"
)

type entry struct {
	driver     *orchestrator.Driver
	lastActive time.Time
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	caller        genaiclient.Caller
	primaryModel  string
	fallbackModel string
	repo          storage.Repository
	driverCfg     orchestrator.Config
}

func NewManager(caller genaiclient.Caller, primary, fallback string, repo storage.Repository, driverCfg orchestrator.Config) *Manager {
	return &Manager{
		sessions:      make(map[string]*entry),
		caller:        caller,
		primaryModel:  primary,
		fallbackModel: fallback,
		repo:          repo,
		driverCfg:     driverCfg,
	}
}

// Create builds a fresh session from the personality pool and starts
// it. The returned driver is already past its opening narration call.
func (m *Manager) Create(pool []game.Personality, count int, apiKey string) *orchestrator.Driver {
	st := game.NewState(pool, count)

	var driver *orchestrator.Driver
	adapter := provider.New(m.caller, m.primaryModel, m.fallbackModel, func(msg string) {
		if driver != nil {
			driver.NoteError(msg)
		}
	})
	driver = orchestrator.New(st, adapter, timers.NewRegistry(), m.driverCfg, m.persistResult)
	driver.SetAPIKey(apiKey)
	driver.Start()

	m.mu.Lock()
	m.sessions[st.SessionID] = &entry{driver: driver, lastActive: time.Now()}
	m.mu.Unlock()
	return driver
}

// Get returns the session driver and refreshes its idle clock.
func (m *Manager) Get(sessionID string) (*orchestrator.Driver, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	e.lastActive = time.Now()
	return e.driver, true
}

// Remove tears a session down, cancelling its timers and calls.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		e.driver.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepIdle removes sessions idle for longer than ttl and returns how
// many were expired. Called from the background ticker in main.
func (m *Manager) SweepIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	var expired []*entry

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.driver.Close()
	}
	if len(expired) > 0 {
		logging.Info("expired idle sessions", logging.Fields{constants.LogFieldCount: len(expired)})
	}
	return len(expired)
}

// persistResult stores the terminal snapshot. Persistence failures are
// logged but never surface into the game flow.
func (m *Manager) persistResult(st *game.State, outcome engine.Outcome) {
	if m.repo == nil {
		return
	}
	rec := storage.RecordFromState(st, string(outcome))
	if err := m.repo.SaveResult(rec); err != nil {
		logging.Error(constants.ErrFailedSaveResult, err, logging.Fields{
			constants.LogFieldSessionID: st.SessionID,
		})
		return
	}
	logging.Info("game result saved", logging.Fields{
		constants.LogFieldSessionID: st.SessionID,
		constants.LogFieldRound:     rec.Rounds,
	})
}
