// Package orchestrator glues the rule engine, the presentation state
// machine and the generation provider together. All session mutation
// funnels through Driver methods under one mutex; async completions
// re-enter through observer methods that re-read the latest state
// instead of values captured at dispatch time.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/engine"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/logging"
	"github.com/yami-inc/ai-death-game/internal/provider"
	"github.com/yami-inc/ai-death-game/internal/timers"
	"github.com/yami-inc/ai-death-game/internal/uistate"
)

// Generator is the slice of the provider the driver depends on.
// Satisfied by *provider.Adapter; stubbed in tests.
type Generator interface {
	GenerateTurnBatch(ctx context.Context, apiKey string, req provider.BatchRequest) []game.PendingTurn
	CollectVotes(ctx context.Context, apiKey string, req provider.VoteRequest) []game.VoteResult
	GenerateReactions(ctx context.Context, apiKey string, req provider.ReactionRequest) map[string]string
	GenerateVictoryComment(ctx context.Context, apiKey string, req provider.VictoryRequest) string
	ModerateIntervention(ctx context.Context, apiKey string, text string) provider.Moderation
}

// PersistFunc receives the terminal snapshot once the session reaches
// its final state.
type PersistFunc func(st *game.State, outcome engine.Outcome)

type Config struct {
	TurnsPerRound    int
	EliminationDelay time.Duration
	GMVoteDelay      time.Duration
	TranscriptDepth  int
}

func (c Config) withDefaults() Config {
	if c.TurnsPerRound <= 0 {
		c.TurnsPerRound = 2
	}
	if c.EliminationDelay <= 0 {
		c.EliminationDelay = 600 * time.Millisecond
	}
	if c.GMVoteDelay <= 0 {
		c.GMVoteDelay = 1200 * time.Millisecond
	}
	if c.TranscriptDepth <= 0 {
		c.TranscriptDepth = 30
	}
	return c
}

type Driver struct {
	mu      sync.Mutex
	state   *game.State
	ui      uistate.State
	gen     Generator
	timers  *timers.Registry
	cfg     Config
	persist PersistFunc

	apiKey        string
	placeholderID string
	moderating    bool
	outcome       engine.Outcome
	done          bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(st *game.State, gen Generator, reg *timers.Registry, cfg Config, persist PersistFunc) *Driver {
	ctx, cancel := context.WithCancel(context.Background())
	if persist == nil {
		persist = func(*game.State, engine.Outcome) {}
	}
	return &Driver{
		state:   st,
		ui:      uistate.Of(uistate.Idle),
		gen:     gen,
		timers:  reg,
		cfg:     cfg.withDefaults(),
		persist: persist,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetAPIKey refreshes the caller-held credential. It is read at call
// time only and never logged or persisted.
func (d *Driver) SetAPIKey(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if key != "" {
		d.apiKey = key
	}
}

// NoteError records a sanitized provider failure for the transient
// notification. Wired as the provider adapter's error callback.
func (d *Driver) NoteError(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.LastError = msg
}

// Close cancels outstanding calls and timers.
func (d *Driver) Close() {
	d.cancel()
	d.timers.CancelAll()
}

// Start opens the session: the narrator's opening line is shown and
// the first round's discussion is prepared but not yet generated.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ui.Kind != uistate.Idle {
		return
	}
	engine.BeginDiscussion(d.state)
	d.state.AddLog(&game.LogEntry{Type: game.LogSystem, Content: engine.GameStartLine(d.state)})
	d.ui = uistate.Of(uistate.GameStartTyping)
	logging.Info("session started", logging.Fields{
		constants.LogFieldSessionID: d.state.SessionID,
		constants.LogFieldCount:     len(d.state.Agents),
	})
}

// TypingComplete is invoked by the renderer when a typewriter reveal
// finishes. Late callbacks on non-typing states are no-ops.
func (d *Driver) TypingComplete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ui = uistate.TypingComplete(d.ui)
}

// Advance is the single advance (tap) entry point. Input is accepted
// only in tap-wait and executing states; everything else rejects it
// silently.
func (d *Driver) Advance() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ui.IsTapWait() && !d.ui.IsExecuting() {
		return
	}
	logging.Debug("advance", logging.Fields{
		constants.LogFieldSessionID: d.state.SessionID,
		constants.LogFieldState:     d.ui.String(),
	})

	st := d.state
	switch d.ui.Kind {
	case uistate.GameStartTapWait:
		d.afterMasterLineLocked()

	case uistate.DiscussionTapWait:
		switch {
		case engine.DiscussionComplete(st, d.cfg.TurnsPerRound):
			st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.DiscussionCompleteLine(st)})
			d.ui = uistate.Of(uistate.DiscussionCompleteTyping)
		case len(st.BatchQueue) > 0:
			d.revealNextTurnLocked(d.ui.Index + 1)
		case st.Processing:
			d.ui = uistate.At(uistate.DiscussionThinking, d.ui.Index+1)
		case engine.AtLapBoundary(st):
			engine.NextLap(st)
			st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.LapLine(st, d.cfg.TurnsPerRound)})
			d.ui = uistate.Of(uistate.GameStartTyping)
		default:
			d.startLapBatchLocked(d.ui.Index + 1)
		}

	case uistate.DiscussionCompleteTapWait:
		engine.BeginVoting(st)
		d.ui = uistate.Of(uistate.VoteUserModal)

	case uistate.VoteRevealTapWait:
		if v, ok := engine.RevealNextVote(st); ok {
			st.AddLog(&game.LogEntry{Type: game.LogVote, AgentID: v.VoterID, Content: engine.VoteRevealLine(v)})
			d.ui = uistate.At(uistate.VoteRevealTyping, d.ui.Index+1)
			return
		}
		d.ui = uistate.Of(uistate.VoteGMAnimating)
		d.timers.Register(d.timerName("gmvote"), d.cfg.GMVoteDelay, func() { d.TimerElapsed("gmvote") })

	case uistate.VoteGMAnimating:
		d.finishGMVoteLocked()

	case uistate.VoteGMTapWait:
		d.resolveVotesLocked()

	case uistate.ResolutionAnnounceTapWait:
		switch {
		case len(st.WinnerIDs) == 2:
			d.gameOverLocked(engine.OutcomeDualWinner)
		case len(st.EliminationQueue) == 0:
			d.nextRoundLocked()
		default:
			d.startReactionsLocked()
		}

	case uistate.ResolutionReactionTapWait:
		i := d.ui.Index
		d.ui = uistate.At(uistate.ResolutionExecuting, i)
		name := fmt.Sprintf("elim-%d", i)
		d.timers.Register(d.timerName(name), d.cfg.EliminationDelay, func() { d.TimerElapsed(name) })

	case uistate.ResolutionExecuting:
		d.finalizeEliminationLocked(d.ui.Index)

	case uistate.ResolutionNextRoundTapWait:
		d.afterMasterLineLocked()

	case uistate.GameOverAnnounceTapWait:
		if len(engine.Winners(st)) == 0 {
			d.completeLocked()
			return
		}
		d.startVictoryLocked(0)

	case uistate.GameOverVictoryTapWait:
		if d.ui.Index+1 < len(engine.Winners(st)) {
			d.startVictoryLocked(d.ui.Index + 1)
			return
		}
		d.completeLocked()
	}
}

// TimerElapsed handles a named presentation timer firing, whether from
// the internal registry or the renderer's own animation clock. It
// performs the same transition as a manual advance, guarded so firing
// after the user already advanced is a no-op.
func (d *Driver) TimerElapsed(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case name == "gmvote":
		d.finishGMVoteLocked()
	default:
		var i int
		if _, err := fmt.Sscanf(name, "elim-%d", &i); err == nil {
			d.finalizeEliminationLocked(i)
		}
	}
}

// afterMasterLineLocked dispatches the tap that follows a narrator
// line: resolve the round if discussion is done, otherwise offer the
// intervention window once per round, otherwise generate the next lap.
func (d *Driver) afterMasterLineLocked() {
	st := d.state
	if st.Phase == game.PhaseDiscussion && engine.DiscussionComplete(st, d.cfg.TurnsPerRound) {
		st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.DiscussionCompleteLine(st)})
		d.ui = uistate.Of(uistate.DiscussionCompleteTyping)
		return
	}
	if !st.InterventionUsed {
		d.ui = uistate.Of(uistate.InterventionWindow)
		return
	}
	d.startLapBatchLocked(st.TurnIndex)
}

func (d *Driver) timerName(suffix string) string {
	return d.state.SessionID + ":" + suffix
}

func (d *Driver) transcriptLocked() []string {
	return d.state.RecentTranscript(d.cfg.TranscriptDepth)
}
