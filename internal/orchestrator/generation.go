package orchestrator

import (
	"fmt"

	"github.com/yami-inc/ai-death-game/internal/constants"
	"github.com/yami-inc/ai-death-game/internal/dedupe"
	"github.com/yami-inc/ai-death-game/internal/engine"
	"github.com/yami-inc/ai-death-game/internal/game"
	"github.com/yami-inc/ai-death-game/internal/logging"
	"github.com/yami-inc/ai-death-game/internal/provider"
	"github.com/yami-inc/ai-death-game/internal/uistate"
)

// lapRemainingSpeakers returns the speakers of the current lap that
// have not yet spoken, as a fixed snapshot for one batch call.
func (d *Driver) lapRemainingSpeakers() []*game.Agent {
	speakers := engine.LapSpeakers(d.state)
	n := len(speakers)
	if n == 0 {
		return nil
	}
	return speakers[d.state.TurnIndex%n:]
}

// startLapBatchLocked kicks off batch generation for the rest of the
// current lap. The processing flag is re-read here, not captured by
// callers, so rapid repeated advances cannot start a second call for
// the same slot.
func (d *Driver) startLapBatchLocked(index int) {
	st := d.state
	if st.Processing {
		d.ui = uistate.At(uistate.DiscussionThinking, index)
		return
	}
	speakers := d.lapRemainingSpeakers()
	if len(speakers) == 0 {
		return
	}

	st.Processing = true
	epoch := st.Epoch
	directive := st.GMInstruction
	st.GMInstruction = ""

	placeholder := st.AddLog(&game.LogEntry{
		Type:        game.LogAgentTurn,
		AgentID:     speakers[0].ID,
		IsStreaming: true,
	})
	d.placeholderID = placeholder.ID
	d.ui = uistate.At(uistate.DiscussionThinking, index)

	req := provider.BatchRequest{
		Speakers:   speakers,
		Transcript: d.transcriptLocked(),
		Round:      st.Round,
		Living:     st.AliveAgents(),
		Directive:  directive,
	}
	key := fmt.Sprintf("%s:turns:%d:%d", st.SessionID, epoch, st.TurnInRound)
	apiKey := d.apiKey

	go func() {
		v, _, _ := dedupe.TurnGroup.Do(key, func() (interface{}, error) {
			return d.gen.GenerateTurnBatch(d.ctx, apiKey, req), nil
		})
		d.onBatchReady(epoch, v.([]game.PendingTurn))
	}()
}

// onBatchReady is the batch completion observer. Results from a stale
// epoch are discarded unread; their placeholder was already removed
// when the epoch was bumped.
func (d *Driver) onBatchReady(epoch int, turns []game.PendingTurn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state
	if epoch != st.Epoch {
		logging.Info("discarded stale batch", logging.Fields{
			constants.LogFieldSessionID: st.SessionID,
			constants.LogFieldEpoch:     epoch,
		})
		return
	}
	st.Processing = false
	st.BatchQueue = turns
	if d.ui.Kind == uistate.DiscussionThinking {
		d.revealNextTurnLocked(d.ui.Index)
	}
}

// revealNextTurnLocked moves the next queued turn into the log. The
// first turn after a batch fills the streaming placeholder; later turns
// append fresh entries. Turn counters advance here, at reveal time.
func (d *Driver) revealNextTurnLocked(index int) {
	st := d.state
	if len(st.BatchQueue) == 0 {
		return
	}
	turn := st.BatchQueue[0]
	st.BatchQueue = st.BatchQueue[1:]

	entry := st.LogByID(d.placeholderID)
	if entry == nil || !entry.IsStreaming {
		entry = st.AddLog(&game.LogEntry{Type: game.LogAgentTurn})
	}
	d.placeholderID = ""
	entry.AgentID = turn.AgentID
	entry.Thought = turn.Thought
	entry.Speech = turn.Speech
	entry.Content = turn.Speech
	entry.ThoughtExpression = turn.ThoughtExpression
	entry.SpeechExpression = turn.SpeechExpression
	entry.RawText = turn.RawText
	entry.IsStreaming = false

	if a := st.AgentByID(turn.AgentID); a != nil {
		a.CurrentExpression = turn.SpeechExpression
	}
	engine.ConsumeTurn(st)
	d.ui = uistate.At(uistate.DiscussionTyping, index)
}

// SubmitUserVote records the gamemaster's vote and starts the batched
// agent vote collection.
func (d *Driver) SubmitUserVote(v game.UserVote) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state
	if d.ui.Kind != uistate.VoteUserModal {
		return fmt.Errorf(constants.ErrVoteNotOpen)
	}
	switch v.Type {
	case game.UserVoteWatch:
		v.TargetID = ""
		st.Stats.WatchCount++
	case game.UserVoteOne:
		st.Stats.OneVoteCount++
	case game.UserVoteForceEliminate:
		st.Stats.ForceEliminateCount++
	default:
		return fmt.Errorf(constants.ErrInvalidVoteType)
	}
	if v.Type != game.UserVoteWatch {
		if a := st.AgentByID(v.TargetID); a == nil || !a.IsAlive {
			return fmt.Errorf(constants.ErrInvalidVoteTarget)
		}
	}
	st.UserVote = &v
	d.ui = uistate.Of(uistate.VoteFetching)

	living := st.AliveAgents()
	req := provider.VoteRequest{
		Voters:     living,
		Candidates: living,
		Transcript: d.transcriptLocked(),
		Round:      st.Round,
	}
	key := fmt.Sprintf("%s:votes:%d", st.SessionID, st.Round)
	apiKey := d.apiKey
	round := st.Round

	go func() {
		v, _, _ := dedupe.VoteGroup.Do(key, func() (interface{}, error) {
			return d.gen.CollectVotes(d.ctx, apiKey, req), nil
		})
		d.onVotesReady(round, v.([]game.VoteResult))
	}()
	return nil
}

func (d *Driver) onVotesReady(round int, votes []game.VoteResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state
	if d.ui.Kind != uistate.VoteFetching || st.Round != round {
		return
	}
	engine.RecordVotes(st, votes)
	if v, ok := engine.RevealNextVote(st); ok {
		st.AddLog(&game.LogEntry{Type: game.LogVote, AgentID: v.VoterID, Content: engine.VoteRevealLine(v)})
		d.ui = uistate.At(uistate.VoteRevealTyping, 0)
		return
	}
	// Nobody voted at all; move straight to the GM beat.
	d.ui = uistate.Of(uistate.VoteGMAnimating)
	d.timers.Register(d.timerName("gmvote"), d.cfg.GMVoteDelay, func() { d.TimerElapsed("gmvote") })
}

func (d *Driver) finishGMVoteLocked() {
	if d.ui.Kind != uistate.VoteGMAnimating {
		return
	}
	d.timers.Cancel(d.timerName("gmvote"))
	d.state.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.UserVoteLine(d.state)})
	d.ui = uistate.Of(uistate.VoteGMTyping)
}

// resolveVotesLocked runs tie resolution and records the round's vote
// statistics. The queue is filled here; aliveness flips later, one
// reveal at a time.
func (d *Driver) resolveVotesLocked() {
	st := d.state
	engine.ResolveVotes(st)

	eliminated := map[string]bool{}
	for _, e := range st.EliminationQueue {
		eliminated[e.AgentID] = true
	}
	if uv := st.UserVote; uv != nil && uv.Type != game.UserVoteWatch {
		rec := game.UserVoteRecord{Round: st.Round, Type: uv.Type, ResultedInElimination: eliminated[uv.TargetID]}
		if a := st.AgentByID(uv.TargetID); a != nil {
			rec.TargetName = a.Name
		}
		st.Stats.UserVoteHistory = append(st.Stats.UserVoteHistory, rec)
	} else if uv != nil {
		st.Stats.UserVoteHistory = append(st.Stats.UserVoteHistory, game.UserVoteRecord{Round: st.Round, Type: game.UserVoteWatch})
	}
	st.Stats.LastEliminationCount = len(st.EliminationQueue)
	for _, v := range st.CachedVotes {
		if v.VoterID == v.TargetID && eliminated[v.VoterID] {
			st.Stats.SelfSacrificeCount++
		}
	}

	st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.ResolutionLine(st)})
	d.ui = uistate.Of(uistate.ResolutionAnnounceTyping)
}

func (d *Driver) startReactionsLocked() {
	st := d.state
	d.ui = uistate.Of(uistate.ResolutionFetching)
	req := provider.ReactionRequest{
		Eliminated: append([]game.EliminationQueueItem(nil), st.EliminationQueue...),
		Agents:     st.Agents,
		Transcript: d.transcriptLocked(),
	}
	key := fmt.Sprintf("%s:reactions:%d", st.SessionID, st.Round)
	apiKey := d.apiKey
	round := st.Round

	go func() {
		v, _, _ := dedupe.ReactionGroup.Do(key, func() (interface{}, error) {
			return d.gen.GenerateReactions(d.ctx, apiKey, req), nil
		})
		d.onReactionsReady(round, v.(map[string]string))
	}()
}

func (d *Driver) onReactionsReady(round int, reactions map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state
	if d.ui.Kind != uistate.ResolutionFetching || st.Round != round {
		return
	}
	for i := range st.EliminationQueue {
		st.EliminationQueue[i].Reaction = reactions[st.EliminationQueue[i].AgentID]
	}
	d.revealReactionLocked(0)
}

// revealReactionLocked appends the queued reaction at index, strictly
// in queue order.
func (d *Driver) revealReactionLocked(i int) {
	st := d.state
	if i >= len(st.EliminationQueue) {
		return
	}
	item := st.EliminationQueue[i]
	reaction := item.Reaction
	if reaction == "" {
		reaction = provider.StaticFallbackText
	}
	st.AddLog(&game.LogEntry{Type: game.LogEliminationReaction, AgentID: item.AgentID, Content: reaction})
	d.ui = uistate.At(uistate.ResolutionReactionTyping, i)
}

// finalizeEliminationLocked completes one elimination: the manual
// advance and the backstop timer both land here, and the second caller
// finds the executing state already gone.
func (d *Driver) finalizeEliminationLocked(i int) {
	st := d.state
	if d.ui.Kind != uistate.ResolutionExecuting || d.ui.Index != i {
		return
	}
	d.timers.Cancel(d.timerName(fmt.Sprintf("elim-%d", i)))
	if engine.ConfirmElimination(st, i) {
		st.AddLog(&game.LogEntry{Type: game.LogSystem, Content: engine.EliminationConfirmLine(st.EliminationQueue[i])})
	}
	if i+1 < len(st.EliminationQueue) {
		d.revealReactionLocked(i + 1)
		return
	}
	switch outcome := engine.DetectOutcome(st); outcome {
	case engine.OutcomeContinue:
		d.nextRoundLocked()
	default:
		d.gameOverLocked(outcome)
	}
}

func (d *Driver) nextRoundLocked() {
	st := d.state
	engine.AdvanceRound(st)
	st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.NextRoundLine(st)})
	d.ui = uistate.Of(uistate.ResolutionNextRoundTyping)
}

func (d *Driver) gameOverLocked(outcome engine.Outcome) {
	st := d.state
	st.Phase = game.PhaseGameOver
	st.Stats.TotalRounds = st.Round
	d.outcome = outcome
	st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.GameOverLine(st, outcome)})
	d.ui = uistate.Of(uistate.GameOverAnnounceTyping)
	logging.Info("game over", logging.Fields{
		constants.LogFieldSessionID: st.SessionID,
		constants.LogFieldRound:     st.Round,
		"outcome":                   string(outcome),
	})
}

func (d *Driver) startVictoryLocked(i int) {
	st := d.state
	winners := engine.Winners(st)
	if i >= len(winners) {
		d.completeLocked()
		return
	}
	st.AddLog(&game.LogEntry{Type: game.LogMaster, Content: engine.VictoryIntroLine(winners[i])})
	d.ui = uistate.At(uistate.GameOverFetching, i)
	req := provider.VictoryRequest{
		Winner:     winners[i],
		Round:      st.Round,
		Transcript: d.transcriptLocked(),
	}
	if len(winners) == 2 {
		req.Partner = winners[1-i]
	}
	key := fmt.Sprintf("%s:victory:%d", st.SessionID, i)
	apiKey := d.apiKey
	winnerID := winners[i].ID

	go func() {
		v, _, _ := dedupe.VictoryGroup.Do(key, func() (interface{}, error) {
			return d.gen.GenerateVictoryComment(d.ctx, apiKey, req), nil
		})
		d.onVictoryReady(i, winnerID, v.(string))
	}()
}

func (d *Driver) onVictoryReady(i int, winnerID, comment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ui.Kind != uistate.GameOverFetching || d.ui.Index != i {
		return
	}
	d.state.AddLog(&game.LogEntry{Type: game.LogVictoryComment, AgentID: winnerID, Content: comment})
	d.ui = uistate.At(uistate.GameOverVictoryTyping, i)
}

// completeLocked reaches the terminal state and hands the snapshot to
// the persistence collaborator exactly once.
func (d *Driver) completeLocked() {
	if d.done {
		return
	}
	d.done = true
	d.ui = uistate.Of(uistate.GameOverComplete)
	d.timers.CancelAll()
	d.persist(d.state, d.outcome)
}
