package orchestrator

import (
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/uistate"
)

// View is the renderer-facing snapshot: the presentation state plus the
// rule engine state it needs to paint the screen. LastError is the
// transient provider failure notification and is cleared once read.
type View struct {
	SessionID   string                      `json:"session_id"`
	State       uistate.State               `json:"ui_state"`
	Phase       game.Phase                  `json:"phase"`
	Round       int                         `json:"round"`
	TurnInRound int                         `json:"turn_in_round"`
	TurnIndex   int                         `json:"turn_index"`
	Agents      []*game.Agent               `json:"agents"`
	Logs        []*game.LogEntry            `json:"logs"`
	Votes       map[string]*game.VoteInfo   `json:"votes,omitempty"`
	VoteTally   map[string]int              `json:"vote_tally,omitempty"`
	Queue       []game.EliminationQueueItem `json:"elimination_queue,omitempty"`
	WinnerIDs   []string                    `json:"winner_ids,omitempty"`
	Stats       game.SessionStats           `json:"stats"`
	LastError   string                      `json:"last_error,omitempty"`
}

// Snapshot renders the current view. Agents and log entries are copied
// so the caller can serialize without holding the driver lock.
func (d *Driver) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state

	agents := make([]*game.Agent, len(st.Agents))
	for i, a := range st.Agents {
		c := *a
		agents[i] = &c
	}
	logs := make([]*game.LogEntry, len(st.Logs))
	for i, e := range st.Logs {
		c := *e
		logs[i] = &c
	}
	votes := make(map[string]*game.VoteInfo, len(st.Votes))
	for id, v := range st.Votes {
		c := *v
		votes[id] = &c
	}
	tally := make(map[string]int, len(st.VoteTally))
	for id, n := range st.VoteTally {
		tally[id] = n
	}

	v := View{
		SessionID:   st.SessionID,
		State:       d.ui,
		Phase:       st.Phase,
		Round:       st.Round,
		TurnInRound: st.TurnInRound,
		TurnIndex:   st.TurnIndex,
		Agents:      agents,
		Logs:        logs,
		Votes:       votes,
		VoteTally:   tally,
		Queue:       append([]game.EliminationQueueItem(nil), st.EliminationQueue...),
		WinnerIDs:   append([]string(nil), st.WinnerIDs...),
		Stats:       st.Stats,
		LastError:   st.LastError,
	}
	st.LastError = ""
	return v
}

// UIState returns just the current presentation state.
func (d *Driver) UIState() uistate.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ui
}

// Done reports whether the session reached its terminal state.
func (d *Driver) Done() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}
